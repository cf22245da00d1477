// Package dispatch implements the opcode dispatcher and session-state
// engine described in spec.md §4: it decodes a framed application packet,
// routes it by opcode, invokes the script bridge's veto hooks, applies
// structured mutations to the owning Client Record, and fans the result
// out through the NetworkSink.
package dispatch

import (
	"bytes"
	"strconv"
	"weak"

	"go.uber.org/zap"

	"github.com/ambervale/relaycore/internal/config"
	"github.com/ambervale/relaycore/internal/session"
)

// Dispatcher is the pure function core of spec.md §4.1, bundled with its
// collaborators. The zero value is not usable — construct with New.
type Dispatcher struct {
	settings *config.Store
	network  NetworkSink
	rate     RateMonitor
	script   ScriptBridge
	chatLog  ChatLogger
	logger   *zap.Logger
}

// New builds a Dispatcher. logger is named "dispatch" for structured
// log filtering.
func New(settings *config.Store, network NetworkSink, rate RateMonitor, script ScriptBridge, chatLog ChatLogger, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		settings: settings,
		network:  network,
		rate:     rate,
		script:   script,
		chatLog:  chatLog,
		logger:   logger.Named("dispatch"),
	}
}

// Dispatch is the single entry point: clientRef is a weak handle to the
// sending Client, packet is the decoded (post length-prefix) application
// payload. Dispatch never returns an error — every failure mode in
// spec.md §7 is handled by logging and dropping, never by propagating.
// A panic inside a handler is recovered and logged here.
func (d *Dispatcher) Dispatch(clientRef weak.Pointer[session.Client], packet []byte) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("recovered from panic while dispatching packet", zap.Any("panic", r))
		}
	}()

	packet = d.preprocess(packet)
	if packet == nil {
		return
	}

	client := clientRef.Value()
	if client == nil {
		return
	}

	client.Lock()
	defer client.Unlock()

	code := packet[0]
	switch {
	case code >= 'V' && code <= 'Z':
		d.rate.IncrementInternalPPS()
		d.network.SendToAll(client, packet, false, false)
		return
	}

	switch code {
	case 'H':
		d.logger.Debug("handshake packet", zap.Uint32("client_id", client.ID))
		d.network.SyncClient(client)
	case 'p':
		if !d.network.Respond(client, []byte("p"), false) {
			if client.Status > -1 {
				client.Status = -1
			}
			return
		}
		d.network.UpdatePlayer(client)
	case 'O':
		d.dispatchVehicle(client, packet)
	case 'J':
		d.network.SendToAll(client, packet, false, true)
	case 'C':
		d.dispatchChat(client, packet)
	case 'E':
		d.dispatchEvent(client, packet)
	case 'N':
		d.network.SendToAll(client, packet, false, true)
	default:
		d.logger.Debug("unhandled opcode", zap.Uint8("opcode", code))
	}
}

// preprocess applies the "ABG:" decompression prefix and the empty-packet
// drop of spec.md §4.1 steps 1–2. It returns nil when the packet should be
// silently dropped.
func (d *Dispatcher) preprocess(packet []byte) []byte {
	if bytes.HasPrefix(packet, []byte(compressedPrefix)) {
		decoded, err := decomp(packet[len(compressedPrefix):])
		if err != nil {
			d.logger.Debug("failed to decompress packet", zap.Error(err))
			return nil
		}
		packet = decoded
	}
	if len(packet) == 0 {
		return nil
	}
	return packet
}

// parseDigits reports whether s is non-empty and contains only ASCII
// digits (spec.md §4.3's numeric parsing rule), returning the parsed
// value on success.
func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
