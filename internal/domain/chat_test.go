package domain

import (
	"strings"
	"testing"
)

func TestDeriveTitle_ShortMessageKeptWhole(t *testing.T) {
	if got := DeriveTitle("hello there"); got != "hello there" {
		t.Errorf("Expected %q, got %q", "hello there", got)
	}
}

func TestDeriveTitle_ExactLimitHasNoEllipsis(t *testing.T) {
	msg := strings.Repeat("x", 30)
	if got := DeriveTitle(msg); got != msg {
		t.Errorf("Expected %q, got %q", msg, got)
	}
}

func TestDeriveTitle_LongMessageTruncated(t *testing.T) {
	msg := strings.Repeat("x", 31)
	want := strings.Repeat("x", 30) + "..."
	if got := DeriveTitle(msg); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestDeriveTitle_CountsRunesNotBytes(t *testing.T) {
	msg := strings.Repeat("é", 31)
	want := strings.Repeat("é", 30) + "..."
	if got := DeriveTitle(msg); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
