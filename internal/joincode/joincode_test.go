package joincode

import (
	"strings"
	"testing"
)

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := Generate()
		if len(code) != Length {
			t.Fatalf("code %q has length %d, want %d", code, len(code), Length)
		}
		for _, c := range code {
			if !strings.ContainsRune(Alphabet, c) {
				t.Fatalf("code %q contains %q, outside the alphabet", code, c)
			}
		}
	}
}

func TestGenerate_NoAmbiguousCharacters(t *testing.T) {
	for _, c := range "IO01" {
		if strings.ContainsRune(Alphabet, c) {
			t.Errorf("alphabet contains ambiguous character %q", c)
		}
	}
	if len(Alphabet) != 32 {
		t.Errorf("alphabet has %d symbols, want 32", len(Alphabet))
	}
}

func TestGenerate_CoversAlphabet(t *testing.T) {
	// With 32 symbols and 2000*6 uniform samples, every symbol should
	// appear; a missing symbol indicates a broken generator.
	seen := make(map[rune]bool)
	for i := 0; i < 2000; i++ {
		for _, c := range Generate() {
			seen[c] = true
		}
	}
	for _, c := range Alphabet {
		if !seen[c] {
			t.Errorf("symbol %q never generated", c)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc234", "ABC234"},
		{"  XYZ789 ", "XYZ789"},
		{"AbC2d4", "ABC2D4"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
