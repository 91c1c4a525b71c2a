// Package retrieval defines the validated query options and ranked result
// types of the retrieval engine.
package retrieval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/curricula-cloud/currdex/internal/domain"
)

// Option defaults.
const (
	DefaultMinSimilarity = 0.75
	DefaultLimit         = 10
	MaxQueryLength       = 4096
)

// Params carries raw, possibly-absent search options. Nil pointer fields take
// their documented defaults; present values are validated strictly.
type Params struct {
	Domains        []string
	MinCredibility int
	MinSimilarity  *float64
	Limit          *int
	RecencyWeight  *float64
	ExcludeUndated bool
}

// Options is a validated, immutable set of search options.
type Options struct {
	domains        []string
	minCredibility int
	minSimilarity  float64
	limit          int
	recencyWeight  float64
	excludeUndated bool
}

// NewOptions validates and normalizes search options.
// Defaults: minSimilarity 0.75, limit 10, recencyWeight 0 (no reweighting).
// Violations surface as ErrInvalidQuery before any external call happens.
func NewOptions(p Params) (Options, error) {
	o := Options{
		domains:        cloneStrings(p.Domains),
		minCredibility: p.MinCredibility,
		minSimilarity:  DefaultMinSimilarity,
		limit:          DefaultLimit,
		excludeUndated: p.ExcludeUndated,
	}
	if p.MinCredibility < 0 || p.MinCredibility > 100 {
		return Options{}, fmt.Errorf("%w: min_credibility must be between 0 and 100", domain.ErrInvalidQuery)
	}
	if p.MinSimilarity != nil {
		if *p.MinSimilarity < 0 || *p.MinSimilarity > 1 {
			return Options{}, fmt.Errorf("%w: min_similarity must be between 0 and 1", domain.ErrInvalidQuery)
		}
		o.minSimilarity = *p.MinSimilarity
	}
	if p.Limit != nil {
		if *p.Limit <= 0 {
			return Options{}, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidQuery)
		}
		o.limit = *p.Limit
	}
	if p.RecencyWeight != nil {
		if *p.RecencyWeight < 0 || *p.RecencyWeight > 1 {
			return Options{}, fmt.Errorf("%w: recency_weight must be between 0 and 1", domain.ErrInvalidQuery)
		}
		o.recencyWeight = *p.RecencyWeight
	}
	return o, nil
}

// Domains returns the domain allow-list (empty = all domains).
func (o *Options) Domains() []string { return o.domains }

// MinCredibility returns the credibility floor.
func (o *Options) MinCredibility() int { return o.minCredibility }

// MinSimilarity returns the similarity floor.
func (o *Options) MinSimilarity() float64 { return o.minSimilarity }

// Limit returns the maximum number of results.
func (o *Options) Limit() int { return o.limit }

// RecencyWeight returns the recency blend factor (0 = raw similarity).
func (o *Options) RecencyWeight() float64 { return o.recencyWeight }

// ExcludeUndated reports whether entries without a publication date are
// dropped during recency admission instead of admitted.
func (o *Options) ExcludeUndated() bool { return o.excludeUndated }

// WithLimit returns a copy with the limit replaced. Non-positive values keep
// the current limit.
func (o Options) WithLimit(limit int) Options {
	if limit > 0 {
		o.limit = limit
	}
	return o
}

// Fingerprint returns a canonical textual form of the options, stable across
// runs, used for response cache keying.
func (o *Options) Fingerprint() string {
	var b strings.Builder
	b.WriteString("ms=")
	b.WriteString(strconv.FormatFloat(o.minSimilarity, 'g', -1, 64))
	b.WriteString(";lim=")
	b.WriteString(strconv.Itoa(o.limit))
	b.WriteString(";rw=")
	b.WriteString(strconv.FormatFloat(o.recencyWeight, 'g', -1, 64))
	b.WriteString(";mc=")
	b.WriteString(strconv.Itoa(o.minCredibility))
	b.WriteString(";xu=")
	b.WriteString(strconv.FormatBool(o.excludeUndated))
	b.WriteString(";dom=")
	b.WriteString(strings.Join(o.domains, ","))
	return b.String()
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}
