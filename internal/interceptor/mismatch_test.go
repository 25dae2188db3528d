package interceptor

import (
	"strconv"
	"testing"
	"time"
)

func TestMismatchStoreAdd(t *testing.T) {
	s := NewMismatchStore(10)

	s.Add(MismatchEntry{Timestamp: time.Now(), Method: "POST", Path: "/dctserver.aspx"})

	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	if s.Total() != 1 {
		t.Errorf("Total = %d, want 1", s.Total())
	}
}

func TestMismatchStoreNewestFirst(t *testing.T) {
	s := NewMismatchStore(10)

	for i := 0; i < 3; i++ {
		s.Add(MismatchEntry{Path: "/" + strconv.Itoa(i)})
	}

	entries := s.Entries()
	want := []string{"/2", "/1", "/0"}
	for i, w := range want {
		if entries[i].Path != w {
			t.Errorf("entries[%d].Path = %q, want %q", i, entries[i].Path, w)
		}
	}
}

func TestMismatchStoreRingEviction(t *testing.T) {
	s := NewMismatchStore(3)

	for i := 0; i < 5; i++ {
		s.Add(MismatchEntry{Path: "/" + strconv.Itoa(i)})
	}

	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	if s.Total() != 5 {
		t.Errorf("Total = %d, want 5", s.Total())
	}

	entries := s.Entries()
	want := []string{"/4", "/3", "/2"}
	for i, w := range want {
		if entries[i].Path != w {
			t.Errorf("entries[%d].Path = %q, want %q", i, entries[i].Path, w)
		}
	}
}

func TestMismatchStoreDefaultCapacity(t *testing.T) {
	s := NewMismatchStore(0)

	for i := 0; i < defaultMaxMismatches+10; i++ {
		s.Add(MismatchEntry{})
	}

	if s.Len() != defaultMaxMismatches {
		t.Errorf("Len = %d, want %d", s.Len(), defaultMaxMismatches)
	}
}

func TestMismatchStoreEmpty(t *testing.T) {
	s := NewMismatchStore(5)

	if got := s.Entries(); len(got) != 0 {
		t.Errorf("Entries on empty store = %v", got)
	}
}
