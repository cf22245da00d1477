package dispatch

import (
	"strings"

	"github.com/ambervale/relaycore/internal/session"
)

// dispatchChat implements the 'C' chat opcode (spec.md §4.2). The wire
// format is "C:<ignored>:<ignored>:<message>" — the message is everything
// after the second colon found at or after index 3; a packet without two
// such colons is dropped.
//
// Chat is logged unconditionally, before the veto check runs: the veto
// only gates whether the message is relayed to other clients, it never
// suppresses the log (spec.md §9).
func (d *Dispatcher) dispatchChat(c *session.Client, packet []byte) {
	if len(packet) < 4 {
		return
	}
	raw := string(packet)
	first := strings.IndexByte(raw[3:], ':')
	if first < 0 {
		return
	}
	first += 3
	second := strings.IndexByte(raw[first+1:], ':')
	if second < 0 {
		return
	}
	message := raw[first+1+second+1:]

	res := d.script.TriggerEvent("onChatMessage", []any{c.ID, c.Name, message}, true)

	if d.chatLog != nil {
		d.chatLog.LogChat(c.Name, c.ID, message)
	}

	if vetoed(res) {
		return
	}
	d.network.SendToAll(nil, packet, true, true)
}
