package dispatch

import (
	"testing"
	"weak"

	"go.uber.org/zap"

	"github.com/ambervale/relaycore/internal/config"
	"github.com/ambervale/relaycore/internal/session"
)

type harness struct {
	d       *Dispatcher
	net     *fakeNetwork
	rate    *fakeRate
	script  *fakeScript
	chatLog *fakeChatLog
	store   *config.Store
}

func newHarness(t *testing.T, settings *config.Settings) *harness {
	t.Helper()
	if settings == nil {
		settings = config.Default()
	}
	store := config.NewStore(settings)
	net := newFakeNetwork()
	rate := &fakeRate{}
	script := newFakeScript()
	chatLog := &fakeChatLog{}
	d := New(store, net, rate, script, chatLog, zap.NewNop())
	return &harness{d: d, net: net, rate: rate, script: script, chatLog: chatLog, store: store}
}

func TestDispatchVehicleDataFastPathBroadcasts(t *testing.T) {
	h := newHarness(t, nil)
	c := session.New(1, "racer", "none")
	ref := weak.Make(c)

	h.d.Dispatch(ref, []byte("Vposition-data"))

	if len(h.net.sendToAll) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(h.net.sendToAll))
	}
	if h.rate.count != 1 {
		t.Fatalf("expected rate increment, got %d", h.rate.count)
	}
	if h.net.sendToAll[0].toSelf {
		t.Fatalf("expected toSelf=false for position data")
	}
}

func TestDispatchHandshakeSyncsClient(t *testing.T) {
	h := newHarness(t, nil)
	c := session.New(1, "racer", "none")
	ref := weak.Make(c)

	h.d.Dispatch(ref, []byte("H"))

	if h.net.syncCalls != 1 {
		t.Fatalf("expected SyncClient called once, got %d", h.net.syncCalls)
	}
}

func TestDispatchPingSuccessUpdatesPlayer(t *testing.T) {
	h := newHarness(t, nil)
	c := session.New(1, "racer", "none")
	ref := weak.Make(c)

	h.d.Dispatch(ref, []byte("p"))

	if h.net.updateCalls != 1 {
		t.Fatalf("expected UpdatePlayer called once, got %d", h.net.updateCalls)
	}
	if c.Status == -1 {
		t.Fatalf("status should not be demoted on successful ping")
	}
}

func TestDispatchPingFailureDemotesStatus(t *testing.T) {
	h := newHarness(t, nil)
	h.net.respondOK = false
	c := session.New(1, "racer", "none")
	c.Status = 1
	ref := weak.Make(c)

	h.d.Dispatch(ref, []byte("p"))

	if c.Status != -1 {
		t.Fatalf("expected status demoted to -1, got %d", c.Status)
	}
	if h.net.updateCalls != 0 {
		t.Fatalf("UpdatePlayer should not be called after a failed respond")
	}
}

func TestDispatchEmptyPacketIsIgnored(t *testing.T) {
	h := newHarness(t, nil)
	c := session.New(1, "racer", "none")
	ref := weak.Make(c)

	h.d.Dispatch(ref, []byte{})

	if len(h.net.sendToAll) != 0 || len(h.net.responses) != 0 {
		t.Fatalf("expected no network activity for an empty packet")
	}
}

func TestDispatchExpiredClientIsIgnored(t *testing.T) {
	h := newHarness(t, nil)
	var ref weak.Pointer[session.Client]

	h.d.Dispatch(ref, []byte("Vpos"))

	if len(h.net.sendToAll) != 0 {
		t.Fatalf("expected no network activity for an expired client reference")
	}
}

func TestDispatchUnknownOpcodeIsIgnored(t *testing.T) {
	h := newHarness(t, nil)
	c := session.New(1, "racer", "none")
	ref := weak.Make(c)

	h.d.Dispatch(ref, []byte("Q:whatever"))

	if len(h.net.sendToAll) != 0 || len(h.net.responses) != 0 {
		t.Fatalf("expected no network activity for an unrecognized opcode")
	}
}

func TestDispatchJAndNBroadcastToSelf(t *testing.T) {
	h := newHarness(t, nil)
	c := session.New(1, "racer", "none")
	ref := weak.Make(c)

	h.d.Dispatch(ref, []byte("Jhello"))
	h.d.Dispatch(ref, []byte("Nhello"))

	if len(h.net.sendToAll) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(h.net.sendToAll))
	}
	for _, sent := range h.net.sendToAll {
		if !sent.toSelf {
			t.Fatalf("expected toSelf=true for J/N packets")
		}
	}
}
