package utils

import (
	"sort"
	"testing"
)

func TestCleanString(t *testing.T) {
	if got := CleanString("  hello\nthere\r ", false); got != "hellothere" {
		t.Errorf("CleanString = %q", got)
	}
	if got := CleanString("a &amp; b", true); got != "a & b" {
		t.Errorf("CleanString with unescape = %q", got)
	}
}

func TestRemoveDuplicates(t *testing.T) {
	got := RemoveDuplicates([]string{"a", "b", "a", "c", "b"})
	sort.Strings(got)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("RemoveDuplicates = %v", got)
	}
}

func TestRemoveFromSlice(t *testing.T) {
	got := RemoveFromSlice([]string{"a", "b", "c"}, "b")
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("RemoveFromSlice = %v", got)
	}
}
