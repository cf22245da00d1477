package dispatch

import (
	"testing"

	"github.com/ambervale/relaycore/internal/session"
)

func TestChatFansOutAndLogs(t *testing.T) {
	h := newHarness(t, nil)
	c := session.New(2, "racer", "none")

	h.d.dispatchChat(c, []byte("C:ignored:ignored:hello world"))

	if len(h.chatLog.lines) != 1 || h.chatLog.lines[0] != "hello world" {
		t.Fatalf("expected chat logged as 'hello world', got %v", h.chatLog.lines)
	}
	if len(h.net.sendToAll) != 1 {
		t.Fatalf("expected chat broadcast, got %d", len(h.net.sendToAll))
	}
}

func TestChatVetoSuppressesFanoutButStillLogs(t *testing.T) {
	h := newHarness(t, nil)
	h.script.vetoes["onChatMessage"] = 1
	c := session.New(2, "racer", "none")

	h.d.dispatchChat(c, []byte("C:ignored:ignored:hello world"))

	if len(h.chatLog.lines) != 1 {
		t.Fatalf("expected chat still logged when vetoed, got %v", h.chatLog.lines)
	}
	if len(h.net.sendToAll) != 0 {
		t.Fatalf("expected no broadcast when chat is vetoed")
	}
}

func TestChatTooShortIsDropped(t *testing.T) {
	h := newHarness(t, nil)
	c := session.New(2, "racer", "none")

	h.d.dispatchChat(c, []byte("C:a"))

	if len(h.chatLog.lines) != 0 || len(h.net.sendToAll) != 0 {
		t.Fatalf("expected a too-short chat packet to be dropped entirely")
	}
}

func TestChatMissingSeparatorIsDropped(t *testing.T) {
	h := newHarness(t, nil)
	c := session.New(2, "racer", "none")

	h.d.dispatchChat(c, []byte("C:nocolonhere"))

	if len(h.chatLog.lines) != 0 {
		t.Fatalf("expected a packet with no second ':' to be dropped")
	}
}
