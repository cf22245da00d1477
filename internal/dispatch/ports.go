package dispatch

import "github.com/ambervale/relaycore/internal/session"

// NetworkSink is the transport collaborator (spec.md §6). The dispatcher
// never inspects or manages sockets directly — it only ever calls through
// this interface to move bytes to other clients.
type NetworkSink interface {
	// SendToAll delivers payload to every connected client except except
	// (nil means no exclusion). toSelf controls whether the sender itself
	// (when not excluded) also receives it back.
	SendToAll(except *session.Client, payload []byte, reliable, toSelf bool)
	// Respond sends payload to exactly one client. It returns false if the
	// send failed, signaling the caller to mark the client for removal.
	Respond(c *session.Client, payload []byte, reliable bool) bool
	// SyncClient triggers the initial world-state sync to a newly
	// handshaked client.
	SyncClient(c *session.Client) bool
	// UpdatePlayer notifies the transport layer that a client is alive
	// and its positional data should keep propagating.
	UpdatePlayer(c *session.Client)
}

// RateMonitor tracks inbound packet rate (spec.md §2/§4.1).
type RateMonitor interface {
	IncrementInternalPPS()
}

// ScriptBridge is the embedded scripting collaborator (spec.md §6). It
// returns 0 to allow the action that triggered the event, non-zero to
// veto it. When wait is false the return value is meaningless — the
// event may be queued and run asynchronously.
type ScriptBridge interface {
	TriggerEvent(name string, args []any, wait bool) int
}

// vetoed reports whether a ScriptBridge result vetoes the action.
func vetoed(result int) bool {
	return result != 0
}

// ChatLogger records chat lines regardless of whether they were vetoed
// from fanout (spec.md §4.2, §9 — "chat logging happens before the veto
// check... this spec preserves the observed behavior").
type ChatLogger interface {
	LogChat(name string, id uint32, message string)
}
