package headers

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalPreservesOrder(t *testing.T) {
	raw := `{"Host":"example.com","User-Agent":"curl/7.68.0","Accept":"*/*"}`

	var s Set
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []string{"Host", "User-Agent", "Accept"}
	got := s.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d headers, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestUnmarshalKeepsCaseVariantDuplicates(t *testing.T) {
	raw := `{"Host":"a","host":"b"}`

	var s Set
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 headers, got %d", s.Len())
	}
	if v, _ := s.Get("Host"); v != "a" {
		t.Errorf("Get(Host) = %q, want a", v)
	}
	if v, _ := s.Get("host"); v != "b" {
		t.Errorf("Get(host) = %q, want b", v)
	}
}

func TestUnmarshalRejectsNonObject(t *testing.T) {
	var s Set
	if err := json.Unmarshal([]byte(`["Host"]`), &s); err == nil {
		t.Error("expected error for JSON array")
	}
	if err := json.Unmarshal([]byte(`{"Host":{"nested":1}}`), &s); err == nil {
		t.Error("expected error for nested value")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s := FromPairs([]Pair{
		{"Host", "example.com"},
		{"user-agent", "Mozilla/5.0"},
	})

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Set
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Len() != 2 {
		t.Fatalf("expected 2 headers after round trip, got %d", back.Len())
	}
	if back.Names()[0] != "Host" || back.Names()[1] != "user-agent" {
		t.Errorf("order not preserved: %v", back.Names())
	}
}

func TestGetFold(t *testing.T) {
	s := FromPairs([]Pair{{"CoNtEnT-TyPe", "text/html"}})

	if _, ok := s.Get("Content-Type"); ok {
		t.Error("exact Get should miss on mutated casing")
	}
	v, ok := s.GetFold("Content-Type")
	if !ok || v != "text/html" {
		t.Errorf("GetFold = %q, %v; want text/html, true", v, ok)
	}
}

func TestEmptySet(t *testing.T) {
	var s Set
	if s.Len() != 0 {
		t.Errorf("zero set length = %d", s.Len())
	}
	if _, ok := s.Get("Host"); ok {
		t.Error("Get on empty set should miss")
	}
	if s.Index("Host") != -1 {
		t.Error("Index on empty set should be -1")
	}
}
