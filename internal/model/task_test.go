package model

import (
	"strings"
	"testing"
)

func TestPersistedIDRoundTrip(t *testing.T) {
	id := PersistedID(42)
	if id.IsTemp() {
		t.Fatalf("persisted id reported temp")
	}
	if id.String() != "42" {
		t.Fatalf("expected string 42, got %q", id.String())
	}
	parsed, err := ParseID("42")
	if err != nil {
		t.Fatalf("parse persisted id: %v", err)
	}
	if parsed != id {
		t.Fatalf("round trip mismatch: %v != %v", parsed, id)
	}
}

func TestTempIDRoundTrip(t *testing.T) {
	id := NewTempID()
	if !id.IsTemp() {
		t.Fatalf("temp id not reported temp")
	}
	if !strings.HasPrefix(id.String(), "tmp-") {
		t.Fatalf("temp id string missing prefix: %q", id.String())
	}
	parsed, err := ParseID(id.String())
	if err != nil {
		t.Fatalf("parse temp id: %v", err)
	}
	if parsed != id {
		t.Fatalf("round trip mismatch: %v != %v", parsed, id)
	}
}

func TestTempIDsDoNotCollide(t *testing.T) {
	a := NewTempID()
	b := NewTempID()
	if a.Key() == b.Key() {
		t.Fatalf("two temp ids produced the same key %q", a.Key())
	}
}

func TestParseIDRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "  ", "tmp-", "0", "-3", "abc", "12x"} {
		if _, err := ParseID(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestValidateContentBounds(t *testing.T) {
	if err := ValidateContent("write tests", ""); err != nil {
		t.Fatalf("valid content rejected: %v", err)
	}
	if err := ValidateContent("   ", ""); err != ErrEmptyTitle {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if err := ValidateContent(strings.Repeat("a", MaxTitleLen+1), ""); err != ErrTitleTooLong {
		t.Fatalf("expected ErrTitleTooLong, got %v", err)
	}
	if err := ValidateContent("ok", strings.Repeat("b", MaxDescriptionLen+1)); err != ErrDescTooLong {
		t.Fatalf("expected ErrDescTooLong, got %v", err)
	}
	if err := ValidateContent(strings.Repeat("a", MaxTitleLen), strings.Repeat("b", MaxDescriptionLen)); err != nil {
		t.Fatalf("boundary lengths rejected: %v", err)
	}
}

func TestTaskValidateRequiresID(t *testing.T) {
	task := Task{Title: "no id"}
	if err := task.Validate(); err != ErrInvalidTaskID {
		t.Fatalf("expected ErrInvalidTaskID, got %v", err)
	}
	task.ID = PersistedID(1)
	if err := task.Validate(); err != nil {
		t.Fatalf("valid task rejected: %v", err)
	}
}
