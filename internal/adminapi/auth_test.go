package adminapi

import "testing"

func TestGenerateThenValidateRoundTrips(t *testing.T) {
	mgr, err := NewJWTManager("test-secret", "relaycore")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	token, err := mgr.GenerateToken()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if _, err := mgr.ValidateToken(token); err != nil {
		t.Fatalf("expected token to validate, got %s", err)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	mgr, _ := NewJWTManager("correct-secret", "relaycore")
	token, _ := mgr.GenerateToken()

	other, _ := NewJWTManager("wrong-secret", "relaycore")
	if _, err := other.ValidateToken(token); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestValidateRejectsMalformedToken(t *testing.T) {
	mgr, _ := NewJWTManager("secret", "relaycore")
	if _, err := mgr.ValidateToken("not-a-jwt"); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestNewJWTManagerRejectsEmptySecret(t *testing.T) {
	if _, err := NewJWTManager("", "relaycore"); err == nil {
		t.Fatalf("expected an error for an empty secret")
	}
}
