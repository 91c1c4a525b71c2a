package corpus

import (
	"strings"
	"testing"
	"time"
)

func TestNew_Valid(t *testing.T) {
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	e, err := New("entry-1", "visualization basics", "data-science", 85, &published, []string{"bsc", "core"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID() != "entry-1" {
		t.Errorf("ID() = %q", e.ID())
	}
	if e.Content() != "visualization basics" {
		t.Errorf("Content() = %q", e.Content())
	}
	if e.Domain() != "data-science" {
		t.Errorf("Domain() = %q", e.Domain())
	}
	if e.CredibilityScore() != 85 {
		t.Errorf("CredibilityScore() = %d", e.CredibilityScore())
	}
	if e.PublicationDate() == nil || !e.PublicationDate().Equal(published) {
		t.Errorf("PublicationDate() = %v", e.PublicationDate())
	}
	if e.IsFoundational() {
		t.Error("IsFoundational() should be false")
	}
	if e.Vector() != nil {
		t.Error("Vector() should be nil for new entry")
	}
}

func TestNew_ClonesTags(t *testing.T) {
	tags := []string{"a"}
	e, _ := New("entry-1", "content", "d", 50, nil, tags, false)

	tags[0] = "mutated"

	if e.Tags()[0] != "a" {
		t.Error("tags mutation leaked into entry")
	}
}

func TestNew_EmptyID(t *testing.T) {
	_, err := New("", "content", "d", 50, nil, nil, false)
	if err == nil {
		t.Fatal("expected error for empty ID")
	}
}

func TestNew_InvalidIDChars(t *testing.T) {
	for _, id := range []string{"has space", "entry.id", "entry/id"} {
		_, err := New(id, "content", "d", 50, nil, nil, false)
		if err == nil {
			t.Errorf("expected error for ID %q", id)
		}
	}
}

func TestNew_EmptyContent(t *testing.T) {
	_, err := New("entry-1", "", "d", 50, nil, nil, false)
	if err == nil {
		t.Fatal("expected error for empty content")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_ContentTooLarge(t *testing.T) {
	_, err := New("entry-1", strings.Repeat("x", MaxContentSize+1), "d", 50, nil, nil, false)
	if err == nil {
		t.Fatal("expected error for content too large")
	}
}

func TestNew_CredibilityBounds(t *testing.T) {
	for _, score := range []int{-1, 101} {
		_, err := New("entry-1", "content", "d", score, nil, nil, false)
		if err == nil {
			t.Errorf("expected error for credibility %d", score)
		}
	}
	for _, score := range []int{0, 100} {
		if _, err := New("entry-1", "content", "d", score, nil, nil, false); err != nil {
			t.Errorf("unexpected error for credibility %d: %v", score, err)
		}
	}
}

func TestWithVector(t *testing.T) {
	e, _ := New("entry-1", "content", "d", 50, nil, nil, true)
	vec := []float32{0.1, 0.2, 0.3}

	e2 := e.WithVector(vec)

	if e.Vector() != nil {
		t.Error("original entry should not have vector")
	}
	if len(e2.Vector()) != 3 {
		t.Errorf("WithVector entry has %d elements", len(e2.Vector()))
	}
	if e2.ID() != "entry-1" || !e2.IsFoundational() {
		t.Error("WithVector should preserve all metadata")
	}
}

func TestReconstruct_SkipsValidation(t *testing.T) {
	e := Reconstruct("", "", "", -5, nil, nil, false, []float32{1})
	if e.CredibilityScore() != -5 {
		t.Error("Reconstruct should skip validation")
	}
	if len(e.Vector()) != 1 {
		t.Errorf("Vector() len = %d", len(e.Vector()))
	}
}

func TestFilter_ZeroMatchesAll(t *testing.T) {
	e, _ := New("entry-1", "content", "business", 10, nil, nil, false)
	f := Filter{}
	if !f.Matches(&e) {
		t.Error("zero filter should match any entry")
	}
}

func TestFilter_DomainAllowList(t *testing.T) {
	e, _ := New("entry-1", "content", "business", 80, nil, nil, false)

	allow := Filter{Domains: []string{"data-science", "business"}}
	if !allow.Matches(&e) {
		t.Error("entry domain in allow-list should match")
	}

	deny := Filter{Domains: []string{"data-science"}}
	if deny.Matches(&e) {
		t.Error("entry domain outside allow-list should not match")
	}
}

func TestFilter_MinCredibility(t *testing.T) {
	e, _ := New("entry-1", "content", "d", 60, nil, nil, false)

	if ok := (&Filter{MinCredibility: 61}).Matches(&e); ok {
		t.Error("credibility below floor should not match")
	}
	if ok := (&Filter{MinCredibility: 60}).Matches(&e); !ok {
		t.Error("credibility at floor should match")
	}
}
