package adminmodule

import "testing"

func TestHashAndVerifySecret(t *testing.T) {
	hash, err := HashSecret("a-reasonable-password", MinAdminPasswordLength)
	if err != nil {
		t.Fatalf("failed to hash secret: %v", err)
	}
	if !VerifySecret("a-reasonable-password", hash) {
		t.Error("expected correct secret to verify")
	}
	if VerifySecret("wrong-password", hash) {
		t.Error("expected incorrect secret to fail verification")
	}
}

func TestHashSecretEnforcesMinimumLength(t *testing.T) {
	if _, err := HashSecret("short", MinAdminPasswordLength); err != ErrPasswordTooShort {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestHashSecretRejectsOverlongInput(t *testing.T) {
	tooLong := make([]byte, MaxSecretLength+1)
	for i := range tooLong {
		tooLong[i] = 'a'
	}
	if _, err := HashSecret(string(tooLong), MinAdminPasswordLength); err != ErrPasswordTooLong {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestSecretHistoryRoundTrip(t *testing.T) {
	h, err := DecodeSecretHistory("")
	if err != nil {
		t.Fatalf("unexpected error decoding empty history: %v", err)
	}
	if len(h) != 0 {
		t.Errorf("expected empty history, got %d entries", len(h))
	}

	hash, _ := HashSecret("first-password1", MinAdminPasswordLength)
	h = h.Push(hash)

	encoded, err := h.Encode()
	if err != nil {
		t.Fatalf("failed to encode history: %v", err)
	}

	decoded, err := DecodeSecretHistory(encoded)
	if err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if !decoded.Contains("first-password1") {
		t.Error("expected decoded history to contain the pushed password")
	}
}

func TestSecretHistoryCapsAtFiveEntries(t *testing.T) {
	var h SecretHistory
	for i := 0; i < 8; i++ {
		hash, _ := HashSecret("password-number-rotate", MinAdminPasswordLength)
		h = h.Push(hash)
	}
	if len(h) != maxSecretHistory {
		t.Errorf("expected history capped at %d entries, got %d", maxSecretHistory, len(h))
	}
}

func TestGeneratePasswordMeetsPolicy(t *testing.T) {
	password, err := GeneratePassword()
	if err != nil {
		t.Fatalf("failed to generate password: %v", err)
	}
	if len(password) != generatedPasswordLength {
		t.Errorf("expected generated password of length %d, got %d", generatedPasswordLength, len(password))
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, c := range password {
		switch {
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= '0' && c <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit || !hasSymbol {
		t.Errorf("expected generated password to contain all character classes: %q", password)
	}
}
