package logging

import "testing"

func TestNew(t *testing.T) {
	t.Run("defaults to info json", func(t *testing.T) {
		logger, err := New(Config{})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if logger == nil {
			t.Fatal("New() returned nil logger")
		}
	})

	t.Run("console format", func(t *testing.T) {
		if _, err := New(Config{Level: "debug", Format: "console"}); err != nil {
			t.Fatalf("New() error = %v", err)
		}
	})

	t.Run("rejects bad level", func(t *testing.T) {
		if _, err := New(Config{Level: "shout"}); err == nil {
			t.Error("New() with invalid level, want error")
		}
	})

	t.Run("rejects bad format", func(t *testing.T) {
		if _, err := New(Config{Format: "xml"}); err == nil {
			t.Error("New() with invalid format, want error")
		}
	})
}
