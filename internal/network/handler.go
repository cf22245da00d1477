package network

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/ambervale/relaycore/internal/dispatch"
	"github.com/ambervale/relaycore/internal/session"
)

// BanChecker is the moderation store's admission-gating surface, narrowed
// to what ConnectHandler needs so this package never imports
// internal/moderation directly.
type BanChecker interface {
	IsBanned(identifier string) (bool, string, error)
}

// ConnectHandler upgrades an incoming game client connection, registering
// a fresh Client Record before handing the socket off to the dispatcher.
// name and roles are the "opaque identity fields supplied after handshake"
// (spec.md §3) the client presents as query parameters on the initial
// connect — the relay trusts the backend's auth key exchange (heartbeat)
// to have already vetted the session by the time a client reaches here.
// bans is consulted before a Client Record is created; it may be nil to
// disable ban enforcement entirely.
func ConnectHandler(hub *Hub, registry *session.Registry, dispatcher *dispatch.Dispatcher, bans BanChecker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "unknown"
		}
		roles := r.URL.Query().Get("roles")

		if banned, identifier, reason, err := checkBanned(bans, name, r); err != nil {
			logger.Warn("network: ban check failed, admitting connection", zap.Error(err))
		} else if banned {
			logger.Info("rejected connection from banned identifier",
				zap.String("identifier", identifier), zap.String("reason", reason))
			http.Error(w, "banned: "+reason, http.StatusForbidden)
			return
		}

		ref, client := registry.Insert(name, roles)

		conn, err := Accept(hub, dispatcher, w, r, client, ref, logger)
		if err != nil {
			logger.Warn("network: upgrade failed", zap.Error(err), zap.Uint32("client_id", client.ID))
			registry.Remove(client.ID)
			return
		}

		logger.Info("client connected", zap.Uint32("client_id", client.ID), zap.String("name", name))
		conn.Run()
		registry.Remove(client.ID)
	}
}

// checkBanned consults bans for both the presented name and the remote
// host, since a ban's identifier (internal/moderation) may be either a
// player name or an IP address. bans may be nil, in which case no
// identifier is ever considered banned.
func checkBanned(bans BanChecker, name string, r *http.Request) (banned bool, identifier, reason string, err error) {
	if bans == nil {
		return false, "", "", nil
	}
	for _, id := range []string{name, remoteHost(r)} {
		if id == "" {
			continue
		}
		ok, why, err := bans.IsBanned(id)
		if err != nil {
			return false, "", "", err
		}
		if ok {
			return true, id, why, nil
		}
	}
	return false, "", "", nil
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
