package dispatch

import (
	"strings"

	"github.com/ambervale/relaycore/internal/session"
)

// dispatchEvent implements the 'E' generic event opcode (spec.md §4.5).
// The wire format is "E:<name>:<arg>" — fields beyond the third are
// ignored, and a packet with fewer than three fields fires nothing.
func (d *Dispatcher) dispatchEvent(c *session.Client, packet []byte) {
	fields := strings.Split(string(packet), ":")
	if len(fields) < 3 {
		return
	}
	name := fields[1]
	arg := fields[2]

	d.script.TriggerEvent(name, []any{c.ID, arg}, false)
}
