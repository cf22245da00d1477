// Package heartbeat implements the periodic backend check-in (spec.md
// §4.6): a long-running worker that reports server identity and roster
// state to a ranked list of backend endpoints, with a hot-change-aware
// send interval and authentication-state tracking.
package heartbeat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ambervale/relaycore/internal/config"
	"github.com/ambervale/relaycore/internal/resources"
	"github.com/ambervale/relaycore/internal/session"
)

const (
	// unchangedInterval is the send gate when the outgoing body is
	// identical to the previous send (spec.md §4.6 step 2).
	unchangedInterval = 30 * time.Second
	// changedInterval is the send gate after a hot change (roster or
	// settings change) shortens the next report.
	changedInterval = 5 * time.Second
	// pollInterval is how often the worker wakes to re-check the gate.
	pollInterval = 100 * time.Millisecond
	// retryDelay is the pause between trying successive backend
	// endpoints after a failure.
	retryDelay = 500 * time.Millisecond

	apiVersionHeader = "2"
	heartbeatPath    = "/heartbeat"

	// requestTimeout bounds a single outbound POST. It is deliberately not
	// tied to Run's cancellable context: a heartbeat in flight at shutdown
	// is allowed to complete rather than being aborted (spec.md §5 /
	// SPEC_FULL.md §6).
	requestTimeout = 10 * time.Second

	// serverVersion and clientProtocolVersion are compile-time identity
	// strings reported on every heartbeat (spec.md §6).
	serverVersion         = "relaycore-1.0.0"
	clientProtocolVersion = "3.0"
)

// errMalformedResponse is returned by post when the backend's JSON body is
// missing one of the three required string members, mirroring the
// original's per-field HasMember+IsString validation (spec.md §4.6 step 5).
var errMalformedResponse = errors.New("heartbeat: backend response missing required fields")

// response is the expected backend reply shape (spec.md §4.6 step 5).
type response struct {
	Status  string
	Code    string
	Message string
}

// RateSource reports the current internal packets-per-second figure to
// embed in the heartbeat body.
type RateSource interface {
	CurrentPPS() int
}

// Engine is the heartbeat worker. The zero value is not usable — build
// with New.
type Engine struct {
	settings *config.Store
	registry *session.Registry
	catalog  *resources.Catalog
	rate     RateSource
	client   *http.Client
	logger   *zap.Logger

	endpoints []string

	lastBody string
	lastSend time.Time
	isAuth   bool
}

// New creates an Engine. endpoints must be given in priority order:
// primary backend first, then the backup hosts.
func New(settings *config.Store, registry *session.Registry, catalog *resources.Catalog, rate RateSource, endpoints []string, logger *zap.Logger) *Engine {
	return &Engine{
		settings:  settings,
		registry:  registry,
		catalog:   catalog,
		rate:      rate,
		client:    &http.Client{Timeout: requestTimeout},
		logger:    logger.Named("heartbeat"),
		endpoints: endpoints,
	}
}

// Run executes the heartbeat loop until ctx is cancelled (process
// shutdown, spec.md §4.7). It never returns an error: every failure mode
// is handled internally by logging and retrying on the next tick.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		body := e.generateCall()
		unchanged := body == e.lastBody
		threshold := changedInterval
		if unchanged {
			threshold = unchangedInterval
		}
		elapsed := time.Since(e.lastSend)
		if elapsed < threshold {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
				continue
			}
		}

		e.lastBody = body
		e.lastSend = time.Now()

		settings := e.settings.Load()
		if settings.HasCustomIP() {
			body += "&ip=" + url.QueryEscape(settings.CustomIP)
		}
		body += "&pps=" + strconv.Itoa(e.ratePPS())

		e.send(ctx, body)
	}
}

func (e *Engine) ratePPS() int {
	if e.rate == nil {
		return 0
	}
	return e.rate.CurrentPPS()
}

// generateCall builds the fixed-order form body of spec.md §4.6 step 1.
func (e *Engine) generateCall() string {
	settings := e.settings.Load()

	fields := []struct{ key, value string }{
		{"uuid", settings.AuthKey},
		{"players", strconv.Itoa(e.registry.Count())},
		{"maxplayers", strconv.Itoa(settings.MaxPlayers)},
		{"port", strconv.Itoa(settings.Port)},
		{"map", settings.MapPath},
		{"private", strconv.FormatBool(settings.Private)},
		{"version", serverVersion},
		{"clientversion", clientProtocolVersion},
		{"name", settings.ServerName},
		{"modlist", strings.Join(e.catalog.TrimmedList(), ",")},
		{"modstotalsize", strconv.FormatInt(e.catalog.MaxSize(), 10)},
		{"modstotal", strconv.Itoa(e.catalog.Count())},
		{"playerslist", e.playerList()},
		{"desc", settings.ServerDesc},
	}

	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.value))
	}
	return b.String()
}

// playerList builds "name1;name2;...;" from a registry snapshot. The
// snapshot holds only clients still registered, so every one is listed.
func (e *Engine) playerList() string {
	var b strings.Builder
	e.registry.ForEachClient(func(c *session.Client) bool {
		b.WriteString(c.Name)
		b.WriteByte(';')
		return true
	})
	return b.String()
}

// send tries each endpoint in order until one returns HTTP 200 with a
// parseable JSON object, then updates isAuth per spec.md §4.6 step 5.
func (e *Engine) send(ctx context.Context, body string) {
	for i, endpoint := range e.endpoints {
		rsp, status, err := e.post(endpoint, body)
		switch {
		case errors.Is(err, errMalformedResponse):
			e.logger.Error("heartbeat backend response missing required fields", zap.String("endpoint", endpoint))
		case err != nil:
			e.logger.Error("heartbeat request failed", zap.String("endpoint", endpoint), zap.Error(err))
		case status != http.StatusOK:
			e.logger.Error("heartbeat backend returned non-200", zap.String("endpoint", endpoint), zap.Int("status", status))
		default:
			e.applyResponse(rsp)
			return
		}

		if i < len(e.endpoints)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
		}
	}
}

// post sends a single heartbeat request. It deliberately uses a context
// derived from context.Background, not Run's cancellable context: an
// in-flight POST must be allowed to complete on shutdown rather than be
// aborted mid-flight (spec.md §5 / SPEC_FULL.md §6). requestTimeout is the
// only bound on how long it can run.
func (e *Engine) post(endpoint, body string) (*response, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+heartbeatPath, strings.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("heartbeat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("api-v", apiVersionHeader)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("heartbeat: post: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("heartbeat: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	rsp, err := parseResponse(data)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return rsp, resp.StatusCode, nil
}

// parseResponse requires all three of status, code and msg to be present
// and string-typed, matching the original's per-field HasMember+IsString
// check — a key missing entirely (as opposed to present but empty) counts
// as malformed and must not promote isAuth.
func parseResponse(data []byte) (*response, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("heartbeat: parse response: %w", err)
	}

	status, ok := stringField(raw, "status")
	if !ok {
		return nil, errMalformedResponse
	}
	code, ok := stringField(raw, "code")
	if !ok {
		return nil, errMalformedResponse
	}
	msg, ok := stringField(raw, "msg")
	if !ok {
		return nil, errMalformedResponse
	}

	return &response{Status: status, Code: code, Message: msg}, nil
}

func stringField(raw map[string]json.RawMessage, key string) (string, bool) {
	v, present := raw[key]
	if !present {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

func (e *Engine) applyResponse(rsp *response) {
	if e.isAuth {
		return
	}
	switch rsp.Status {
	case "2000":
		e.isAuth = true
		e.logger.Info("authenticated")
	case "200":
		e.isAuth = true
		e.logger.Info("resumed authenticated session")
	default:
		msg := rsp.Message
		if msg == "" {
			msg = "backend didn't provide a reason"
		}
		e.logger.Error("backend refused the auth key", zap.String("message", msg))
	}
}

// IsAuth reports whether the backend has authenticated this server.
func (e *Engine) IsAuth() bool { return e.isAuth }
