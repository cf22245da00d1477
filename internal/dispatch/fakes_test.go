package dispatch

import (
	"sync"

	"github.com/ambervale/relaycore/internal/session"
)

// fakeNetwork is a dummy NetworkSink recording every call for assertions.
type fakeNetwork struct {
	mu sync.Mutex

	sendToAll   []sentPacket
	responses   []sentPacket
	respondOK   bool
	syncOK      bool
	syncCalls   int
	updateCalls int
}

type sentPacket struct {
	except   *session.Client
	payload  []byte
	reliable bool
	toSelf   bool
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{respondOK: true, syncOK: true}
}

func (f *fakeNetwork) SendToAll(except *session.Client, payload []byte, reliable, toSelf bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), payload...)
	f.sendToAll = append(f.sendToAll, sentPacket{except, cp, reliable, toSelf})
}

func (f *fakeNetwork) Respond(c *session.Client, payload []byte, reliable bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), payload...)
	f.responses = append(f.responses, sentPacket{c, cp, reliable, false})
	return f.respondOK
}

func (f *fakeNetwork) SyncClient(c *session.Client) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncCalls++
	return f.syncOK
}

func (f *fakeNetwork) UpdatePlayer(c *session.Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
}

// fakeRate is a dummy RateMonitor.
type fakeRate struct {
	mu    sync.Mutex
	count int
}

func (f *fakeRate) IncrementInternalPPS() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
}

// fakeScript is a dummy ScriptBridge whose veto result is configurable per
// event name.
type fakeScript struct {
	mu      sync.Mutex
	vetoes  map[string]int
	calls   []scriptCall
	waitArg bool
}

type scriptCall struct {
	name string
	args []any
	wait bool
}

func newFakeScript() *fakeScript {
	return &fakeScript{vetoes: make(map[string]int)}
}

func (f *fakeScript) TriggerEvent(name string, args []any, wait bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, scriptCall{name, args, wait})
	return f.vetoes[name]
}

// fakeChatLog is a dummy ChatLogger.
type fakeChatLog struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeChatLog) LogChat(name string, id uint32, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, message)
}
