package gamestore

import "testing"

func TestNextIndexIncrementsAndPersists(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	first, err := s.NextIndex()
	if err != nil {
		t.Fatalf("NextIndex: %v", err)
	}
	if first != 0 {
		t.Errorf("first NextIndex() = %d, want 0", first)
	}

	second, err := s.NextIndex()
	if err != nil {
		t.Fatalf("NextIndex: %v", err)
	}
	if second != 1 {
		t.Errorf("second NextIndex() = %d, want 1", second)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening must resume from the persisted counter, not restart at 0.
	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	third, err := s2.NextIndex()
	if err != nil {
		t.Fatalf("NextIndex after reopen: %v", err)
	}
	if third != 2 {
		t.Errorf("NextIndex() after reopen = %d, want 2", third)
	}
}
