package token

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tok, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("Generate() returned invalid base64: %v", err)
	}
	if len(decoded) != DefaultLength {
		t.Errorf("decoded length = %d, want %d", len(decoded), DefaultLength)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token after %d iterations", i)
		}
		seen[tok] = true
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	tok, err := GenerateWithPrefix("abc_", 16)
	if err != nil {
		t.Fatalf("GenerateWithPrefix() error = %v", err)
	}
	if !strings.HasPrefix(tok, "abc_") {
		t.Errorf("token %q missing prefix", tok)
	}
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(tok, "abc_"))
	if err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(decoded) != 16 {
		t.Errorf("decoded length = %d, want 16", len(decoded))
	}
}

func TestGenerateBytes(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr error
	}{
		{"one byte", 1, nil},
		{"sixteen", 16, nil},
		{"zero", 0, ErrInvalidLength},
		{"negative", -1, ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := GenerateBytes(tt.length)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GenerateBytes(%d) error = %v, want %v", tt.length, err, tt.wantErr)
			}
			if tt.wantErr == nil && len(b) != tt.length {
				t.Errorf("len = %d, want %d", len(b), tt.length)
			}
		})
	}
}
