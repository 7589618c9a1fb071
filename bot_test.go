package brobot

import (
	"testing"
)

// TestBotNewWrongFiles tests creation failing if config files are not found.
func TestBotNewWrongFiles(t *testing.T) {
	if _, err := New("config/file/path", "texts/file/path"); err == nil {
		t.Fatal("Bot creation should have failed.")
	}
}
