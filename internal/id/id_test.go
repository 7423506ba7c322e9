package id

import (
	"strings"
	"testing"
)

func TestNewIDShape(t *testing.T) {
	got, err := NewID()
	if err != nil {
		t.Fatalf("NewID returned error: %v", err)
	}
	if len(got) != 26 {
		t.Fatalf("id length = %d, want 26", len(got))
	}
	if got != strings.ToLower(got) {
		t.Fatalf("id %q is not lowercase", got)
	}
	if strings.ContainsAny(got, "=/+") {
		t.Fatalf("id %q contains non URL-safe characters", got)
	}
}

func TestNewIDIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		got, err := NewID()
		if err != nil {
			t.Fatalf("NewID returned error: %v", err)
		}
		if _, dup := seen[got]; dup {
			t.Fatalf("duplicate id generated: %q", got)
		}
		seen[got] = struct{}{}
	}
}
