package heartbeat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ambervale/relaycore/internal/config"
	"github.com/ambervale/relaycore/internal/resources"
	"github.com/ambervale/relaycore/internal/session"
)

type fakeRate struct{ pps int }

func (f fakeRate) CurrentPPS() int { return f.pps }

func newTestEngine(t *testing.T, endpoints []string) *Engine {
	t.Helper()
	store := config.NewStore(config.Default())
	registry := session.NewRegistry()
	catalog := resources.New(t.TempDir(), zap.NewNop())
	return New(store, registry, catalog, fakeRate{pps: 3}, endpoints, zap.NewNop())
}

func TestGenerateCallIncludesFixedOrderFields(t *testing.T) {
	e := newTestEngine(t, nil)
	body := e.generateCall()

	for _, key := range []string{"uuid=", "players=", "maxplayers=", "port=", "map=", "private=", "version=", "clientversion=", "name=", "modlist=", "modstotalsize=", "modstotal=", "playerslist=", "desc="} {
		if !strings.Contains(body, key) {
			t.Fatalf("expected body to contain %q, got %s", key, body)
		}
	}
}

func TestSendFallsThroughToSecondEndpointOnFailure(t *testing.T) {
	var hitFirst, hitSecond bool

	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitFirst = true
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitSecond = true
		if r.Header.Get("api-v") != "2" {
			t.Errorf("expected api-v header to be 2, got %s", r.Header.Get("api-v"))
		}
		w.Write([]byte(`{"status":"2000","code":"ok","msg":""}`))
	}))
	defer second.Close()

	e := newTestEngine(t, []string{first.URL, second.URL})
	e.send(t.Context(), "body=x")

	if !hitFirst || !hitSecond {
		t.Fatalf("expected both endpoints to be tried, hitFirst=%v hitSecond=%v", hitFirst, hitSecond)
	}
	if !e.IsAuth() {
		t.Fatalf("expected isAuth to be set after a successful 2000 response")
	}
}

func TestSendAllEndpointsFailLeavesAuthUnset(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	e := newTestEngine(t, []string{bad.URL, bad.URL})
	e.send(t.Context(), "body=x")

	if e.IsAuth() {
		t.Fatalf("expected isAuth to remain false when every endpoint fails")
	}
}

func TestApplyResponseResumedSession(t *testing.T) {
	e := newTestEngine(t, nil)
	e.applyResponse(&response{Status: "200", Code: "ok"})

	if !e.IsAuth() {
		t.Fatalf("expected a 200 status to set isAuth")
	}
}

func TestApplyResponseRefusalLeavesAuthUnset(t *testing.T) {
	e := newTestEngine(t, nil)
	e.applyResponse(&response{Status: "4010", Message: "bad key"})

	if e.IsAuth() {
		t.Fatalf("expected a refusal status to leave isAuth false")
	}
}
