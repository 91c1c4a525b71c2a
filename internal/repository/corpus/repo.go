// Package corpus persists embedded corpus entries as Redis hashes.
// One hash per entry under currdex:corpus:<id>; listing is a key scan.
// The corpus is sized to be held and scored in memory, so reads fetch
// candidate sets rather than single pages.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/curricula-cloud/currdex/internal/db"
	"github.com/curricula-cloud/currdex/internal/domain"
	domcorpus "github.com/curricula-cloud/currdex/internal/domain/corpus"
)

// store is the consumer interface for the corpus (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the corpus reader and writer contracts of the usecases.
type Repo struct {
	store store
}

// New creates a corpus repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Insert stores entries in one pipelined write. Same-id entries overwrite.
func (r *Repo) Insert(ctx context.Context, entries []domcorpus.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(entries))
	for i := range entries {
		items[i] = db.HashSetItem{
			Key:    entryKey(entries[i].ID()),
			Fields: entryToFields(&entries[i]),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("insert %d entries: %w", len(entries), err)
	}
	return nil
}

// Get returns one entry by id.
func (r *Repo) Get(ctx context.Context, id string) (domcorpus.Entry, error) {
	key := entryKey(id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domcorpus.Entry{}, fmt.Errorf("%w: entry %s", domain.ErrNotFound, id)
		}
		return domcorpus.Entry{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return domcorpus.Entry{}, fmt.Errorf("%w: entry %s", domain.ErrNotFound, id)
	}

	entry, err := fieldsToEntry(id, fields)
	if err != nil {
		return domcorpus.Entry{}, fmt.Errorf("decode entry %s: %w", id, err)
	}
	return entry, nil
}

// Query returns all entries matching the filter.
func (r *Repo) Query(ctx context.Context, f domcorpus.Filter) ([]domcorpus.Entry, error) {
	keys, fieldSets, err := r.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]domcorpus.Entry, 0, len(keys))
	for i, fields := range fieldSets {
		if len(fields) == 0 {
			continue // deleted between scan and fetch
		}
		entry, err := fieldsToEntry(extractID(keys[i]), fields)
		if err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", extractID(keys[i]), err)
		}
		if f.Matches(&entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// DeleteByIDs removes entries by id, returning how many existed.
func (r *Repo) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	removed := 0
	for _, id := range ids {
		key := entryKey(id)
		exists, err := r.store.Exists(ctx, key)
		if err != nil {
			return removed, fmt.Errorf("check exists %s: %w", key, err)
		}
		if !exists {
			continue
		}
		if err := r.store.Del(ctx, key); err != nil {
			return removed, fmt.Errorf("del %s: %w", key, err)
		}
		removed++
	}
	return removed, nil
}

// DeleteByDomain removes every entry in a domain, returning the count.
func (r *Repo) DeleteByDomain(ctx context.Context, dom string) (int, error) {
	keys, fieldSets, err := r.fetchAll(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for i, fields := range fieldSets {
		if len(fields) == 0 || fields[fieldDomain] != dom {
			continue
		}
		if err := r.store.Del(ctx, keys[i]); err != nil {
			return removed, fmt.Errorf("del %s: %w", keys[i], err)
		}
		removed++
	}
	return removed, nil
}

// Count returns the number of stored entries.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, scanPattern())
	if err != nil {
		return 0, fmt.Errorf("scan corpus keys: %w", err)
	}
	return len(keys), nil
}

// Domains returns the distinct domain tags present in the corpus.
func (r *Repo) Domains(ctx context.Context) ([]string, error) {
	_, fieldSets, err := r.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var domains []string
	for _, fields := range fieldSets {
		if len(fields) == 0 {
			continue
		}
		d := fields[fieldDomain]
		if d == "" {
			continue
		}
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			domains = append(domains, d)
		}
	}
	return domains, nil
}

func (r *Repo) fetchAll(ctx context.Context) ([]string, []map[string]string, error) {
	keys, err := r.store.Scan(ctx, scanPattern())
	if err != nil {
		return nil, nil, fmt.Errorf("scan corpus keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil, nil
	}

	fieldSets, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("hgetall %d corpus keys: %w", len(keys), err)
	}
	return keys, fieldSets, nil
}

func entryKey(id string) string {
	return domain.KeyPrefix + "corpus:" + id
}

func scanPattern() string {
	return domain.KeyPrefix + "corpus:*"
}

func extractID(key string) string {
	return strings.TrimPrefix(key, domain.KeyPrefix+"corpus:")
}
