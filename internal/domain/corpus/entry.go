// Package corpus defines the embedded corpus entry aggregate.
package corpus

import (
	"fmt"
	"regexp"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxContentSize is the maximum entry content size in bytes.
const MaxContentSize = 163840 // 160KB

// Entry is one embedded corpus document chunk (immutable value object).
type Entry struct {
	id           string
	content      string
	vector       []float32
	domain       string
	credibility  int
	published    *time.Time
	tags         []string
	foundational bool
}

// New validates and creates an Entry without a vector.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Content: non-empty, max 160KB.
// Credibility: 0-100. The vector is attached later via WithVector.
func New(
	id, content, domain string, credibility int,
	published *time.Time, tags []string, foundational bool,
) (Entry, error) {
	if id == "" {
		return Entry{}, fmt.Errorf("entry ID is required")
	}
	if len(id) > 256 {
		return Entry{}, fmt.Errorf("entry ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Entry{}, fmt.Errorf("entry ID must be alphanumeric with underscores and hyphens")
	}
	if content == "" {
		return Entry{}, fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return Entry{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	if credibility < 0 || credibility > 100 {
		return Entry{}, fmt.Errorf("credibility score must be between 0 and 100")
	}

	return Entry{
		id:           id,
		content:      content,
		domain:       domain,
		credibility:  credibility,
		published:    published,
		tags:         cloneStrings(tags),
		foundational: foundational,
	}, nil
}

// Reconstruct creates an Entry without validation (storage hydration).
func Reconstruct(
	id, content, domain string, credibility int,
	published *time.Time, tags []string, foundational bool,
	vector []float32,
) Entry {
	return Entry{
		id: id, content: content, domain: domain, credibility: credibility,
		published: published, tags: tags, foundational: foundational, vector: vector,
	}
}

// ID returns the entry identifier.
func (e *Entry) ID() string { return e.id }

// Content returns the entry text content.
func (e *Entry) Content() string { return e.content }

// Vector returns the embedding vector.
func (e *Entry) Vector() []float32 { return e.vector }

// Domain returns the category tag.
func (e *Entry) Domain() string { return e.domain }

// CredibilityScore returns the source credibility in [0, 100].
func (e *Entry) CredibilityScore() int { return e.credibility }

// PublicationDate returns the publication date, nil when unknown.
func (e *Entry) PublicationDate() *time.Time { return e.published }

// Tags returns the entry tags.
func (e *Entry) Tags() []string { return e.tags }

// IsFoundational reports whether the entry is exempt from recency admission.
func (e *Entry) IsFoundational() bool { return e.foundational }

// WithVector returns a copy with the given vector set.
func (e *Entry) WithVector(v []float32) Entry {
	return Entry{
		id: e.id, content: e.content, domain: e.domain, credibility: e.credibility,
		published: e.published, tags: e.tags, foundational: e.foundational, vector: v,
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}
