package auth

import (
	"errors"
	"strings"
	"testing"
)

const testSecretID = "0190b3c4d5e67f8091a2b3c4d5e6f708"

func TestParseAPIKey(t *testing.T) {
	random := strings.Repeat("ab", 32)

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", FormatAPIKey(testSecretID, random), false},
		{"wrong prefix", "tk-v1-" + testSecretID + "-" + random, true},
		{"wrong version", "df-v2-" + testSecretID + "-" + random, true},
		{"short secret id", "df-v1-abc-" + random, true},
		{"short random", "df-v1-" + testSecretID + "-abcd", true},
		{"uppercase hex", "df-v1-" + strings.ToUpper(testSecretID) + "-" + random, true},
		{"extra segment", FormatAPIKey(testSecretID, random) + "-x", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secretID, randomData, err := ParseAPIKey(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKeyFormat) {
					t.Errorf("ParseAPIKey(%q) error = %v, want ErrInvalidKeyFormat", tt.key, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAPIKey(%q) error = %v", tt.key, err)
			}
			if secretID != testSecretID || randomData != random {
				t.Errorf("ParseAPIKey() = %q, %q", secretID, randomData)
			}
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey(testSecretID)
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}
	if len(key) != 102 {
		t.Errorf("len(key) = %d, want 102", len(key))
	}
	secretID, _, err := ParseAPIKey(key)
	if err != nil {
		t.Fatalf("ParseAPIKey(generated) error = %v", err)
	}
	if secretID != testSecretID {
		t.Errorf("secretID = %q, want %q", secretID, testSecretID)
	}

	other, _ := GenerateAPIKey(testSecretID)
	if other == key {
		t.Error("GenerateAPIKey() returned the same key twice")
	}

	if _, err := GenerateAPIKey("nothex"); !errors.Is(err, ErrInvalidKeyFormat) {
		t.Errorf("GenerateAPIKey(bad id) error = %v, want ErrInvalidKeyFormat", err)
	}
}

func TestHashAPIKey(t *testing.T) {
	secret := []byte(strings.Repeat("s", 32))
	key := FormatAPIKey(testSecretID, strings.Repeat("0", 64))

	h1 := HashAPIKey(secret, key)
	if len(h1) != 64 {
		t.Errorf("len(HashAPIKey()) = %d, want 64", len(h1))
	}
	if h1 != HashAPIKey(secret, key) {
		t.Error("HashAPIKey() is not deterministic")
	}
	if h1 == HashAPIKey([]byte(strings.Repeat("t", 32)), key) {
		t.Error("HashAPIKey() ignores the secret")
	}

	if !VerifyHMAC(ComputeHMAC(secret, key), ComputeHMAC(secret, key)) {
		t.Error("VerifyHMAC() = false for equal signatures")
	}
	if VerifyHMAC(ComputeHMAC(secret, key), ComputeHMAC(secret, key+"x")) {
		t.Error("VerifyHMAC() = true for different signatures")
	}
}
