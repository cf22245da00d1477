package adminapi

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Password string `json:"password"`
}

// loginHandler issues an operator bearer token in exchange for the
// admin password, compared against its bcrypt hash. There is exactly
// one credential, so this is a single comparison rather than a user
// lookup.
func loginHandler(jwtMgr *JWTManager, passwordHash []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errBadRequest(w, "invalid request body: "+err.Error())
			return
		}

		if bcrypt.CompareHashAndPassword(passwordHash, []byte(req.Password)) != nil {
			errUnauthorized(w)
			return
		}

		token, err := jwtMgr.GenerateToken()
		if err != nil {
			errInternal(w)
			return
		}
		ok(w, envelope{"token": token})
	}
}

// HashPassword bcrypt-hashes a plaintext admin password. cmd/relayserver
// calls it once at startup and hands the hash to the router.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}
