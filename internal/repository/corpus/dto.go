package corpus

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	domcorpus "github.com/curricula-cloud/currdex/internal/domain/corpus"
)

// Hash field names. The vector is binary float32 little-endian, the rest is
// plain text; tags ride as a JSON array.
const (
	fieldContent      = "content"
	fieldVector       = "vector"
	fieldDomain       = "domain"
	fieldCredibility  = "credibility"
	fieldPublished    = "published"
	fieldTags         = "tags"
	fieldFoundational = "foundational"
)

func entryToFields(e *domcorpus.Entry) map[string]string {
	fields := map[string]string{
		fieldContent:     e.Content(),
		fieldCredibility: strconv.Itoa(e.CredibilityScore()),
	}
	if v := e.Vector(); len(v) > 0 {
		fields[fieldVector] = string(vectorToBytes(v))
	}
	if d := e.Domain(); d != "" {
		fields[fieldDomain] = d
	}
	if p := e.PublicationDate(); p != nil {
		fields[fieldPublished] = p.UTC().Format(time.RFC3339)
	}
	if tags := e.Tags(); len(tags) > 0 {
		data, _ := json.Marshal(tags)
		fields[fieldTags] = string(data)
	}
	if e.IsFoundational() {
		fields[fieldFoundational] = "true"
	}
	return fields
}

func fieldsToEntry(id string, fields map[string]string) (domcorpus.Entry, error) {
	credibility := 0
	if raw, ok := fields[fieldCredibility]; ok && raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return domcorpus.Entry{}, fmt.Errorf("parse credibility %q: %w", raw, err)
		}
		credibility = parsed
	}

	var published *time.Time
	if raw := fields[fieldPublished]; raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domcorpus.Entry{}, fmt.Errorf("parse published %q: %w", raw, err)
		}
		published = &t
	}

	var tags []string
	if raw := fields[fieldTags]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return domcorpus.Entry{}, fmt.Errorf("parse tags: %w", err)
		}
	}

	foundational := false
	if raw := fields[fieldFoundational]; raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return domcorpus.Entry{}, fmt.Errorf("parse foundational %q: %w", raw, err)
		}
		foundational = parsed
	}

	var vector []float32
	if raw := fields[fieldVector]; raw != "" {
		v, err := bytesToVector([]byte(raw))
		if err != nil {
			return domcorpus.Entry{}, err
		}
		vector = v
	}

	return domcorpus.Reconstruct(
		id, fields[fieldContent], fields[fieldDomain], credibility,
		published, tags, foundational, vector,
	), nil
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
