package language

import (
	"testing"
)

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// 2-letter codes pass through
		{"en", "en"},
		{"EN", "en"},
		{"es", "es"},
		// 3-letter codes convert
		{"eng", "en"},
		{"spa", "es"},
		{"fre", "fr"},
		{"ger", "de"},
		{"chi", "zh"},
		{"dut", "nl"},
		{"ukr", "uk"},
		// Word forms
		{"english", "en"},
		{"French", "fr"},
		{"GERMAN", "de"},
		// Regional tags reduce to base
		{"pt-BR", "pt"},
		{"en_US", "en"},
		{"zh-Hant", "zh"},
		// Unknown 2-letter passes through
		{"xy", "xy"},
		// Unknown or undetermined returns empty
		{"xyz", ""},
		{"und", ""},
		// Empty
		{"", ""},
		{" ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ToISO2(tt.input)
			if result != tt.expected {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestHint(t *testing.T) {
	if code, ok := Hint(""); !ok || code != "" {
		t.Fatalf("empty hint should mean detect, got %q ok=%v", code, ok)
	}
	if code, ok := Hint("Spanish"); !ok || code != "es" {
		t.Fatalf("unexpected hint %q ok=%v", code, ok)
	}
	if _, ok := Hint("klingonese"); ok {
		t.Fatal("expected unknown hint to be rejected")
	}
}

func TestDetected(t *testing.T) {
	tests := []struct {
		reported, hint, want string
	}{
		{"en", "", "en"},
		{"eng", "fr", "en"},
		{"", "fr", "fr"},
		{"", "", Undetermined},
		{"???", "", Undetermined},
	}
	for _, tt := range tests {
		if got := Detected(tt.reported, tt.hint); got != tt.want {
			t.Errorf("Detected(%q, %q) = %q, want %q", tt.reported, tt.hint, got, tt.want)
		}
	}
}
