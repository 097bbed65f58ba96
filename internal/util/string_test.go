package util

import "testing"

func TestNormalize(t *testing.T) {
	if got := Normalize("  The HOBBIT "); got != "the hobbit" {
		t.Errorf("Normalize = %q", got)
	}
	if got := Normalize(""); got != "" {
		t.Errorf("Normalize(\"\") = %q", got)
	}
}

func TestCountWords(t *testing.T) {
	if got := CountWords("a quiet lovely book"); got != 4 {
		t.Errorf("CountWords = %d", got)
	}
	if got := CountWords("   "); got != 0 {
		t.Errorf("CountWords(blank) = %d", got)
	}
}

func TestContains(t *testing.T) {
	slice := []string{"joy", "hope"}
	if !Contains(slice, "joy") {
		t.Error("expected membership")
	}
	if Contains(slice, "grief") {
		t.Error("unexpected membership")
	}
}
