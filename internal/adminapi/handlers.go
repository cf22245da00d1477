package adminapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ambervale/relaycore/internal/chatlog"
	"github.com/ambervale/relaycore/internal/moderation"
	"github.com/ambervale/relaycore/internal/session"
)

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type playerView struct {
	ID    uint32 `json:"id"`
	Name  string `json:"name"`
	Roles string `json:"roles"`
	Cars  int    `json:"cars"`
}

func playersHandler(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players := make([]playerView, 0, registry.Count())
		registry.ForEachClient(func(c *session.Client) bool {
			c.Lock()
			cars := c.CarCount()
			c.Unlock()

			players = append(players, playerView{
				ID:    c.ID,
				Name:  c.Name,
				Roles: c.Roles,
				Cars:  cars,
			})
			return true
		})
		ok(w, players)
	}
}

func chatlogHandler(buf *chatlog.Buffer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok(w, buf.Recent())
	}
}

type banRequest struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
	// ExpiresInSeconds is 0 for a permanent ban.
	ExpiresInSeconds int64 `json:"expires_in_seconds"`
}

func createBanHandler(store *moderation.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req banRequest
		r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errBadRequest(w, "invalid request body: "+err.Error())
			return
		}
		if req.Identifier == "" {
			errBadRequest(w, "identifier is required")
			return
		}

		var expiresAt time.Time
		if req.ExpiresInSeconds > 0 {
			expiresAt = time.Now().Add(time.Duration(req.ExpiresInSeconds) * time.Second)
		}

		if err := store.Ban(req.Identifier, req.Reason, expiresAt); err != nil {
			errInternal(w)
			return
		}
		ok(w, envelope{"identifier": req.Identifier})
	}
}

func deleteBanHandler(store *moderation.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identifier := chi.URLParam(r, "id")
		if err := store.Unban(identifier); err != nil {
			if err == moderation.ErrNotBanned {
				errNotFound(w)
				return
			}
			errInternal(w)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listBansHandler(store *moderation.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bans, err := store.List()
		if err != nil {
			errInternal(w)
			return
		}
		ok(w, bans)
	}
}
