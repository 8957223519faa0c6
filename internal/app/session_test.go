package app

import (
	"path/filepath"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "axio", "session.yaml")

	// Missing file reads as signed out.
	s, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if s.SignedIn() {
		t.Fatal("missing session file must read as signed out")
	}

	want := Session{Token: "tok", UserID: "u1", Email: "a@b.co"}
	if err := SaveSession(path, want); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	got, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if got != want {
		t.Errorf("LoadSession() = %+v, want %+v", got, want)
	}

	if err := ClearSession(path); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}
	// Clearing twice is fine.
	if err := ClearSession(path); err != nil {
		t.Fatalf("second ClearSession() error = %v", err)
	}

	s, err = LoadSession(path)
	if err != nil || s.SignedIn() {
		t.Fatalf("after clear: session = %+v, err = %v", s, err)
	}
}
