package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"agenda/pkg/platform/sentinel"
)

// Entry is one cached reference list.
type Entry struct {
	Key      string
	Payload  []string
	StoredAt time.Time
	TTL      time.Duration
}

// Expired reports whether the entry is no longer usable at now.
// An entry is usable only while now - StoredAt < TTL.
func (e Entry) Expired(now time.Time) bool {
	return now.Sub(e.StoredAt) >= e.TTL
}

// persistedEntry is the JSON stored in the medium:
//
//	{"payload": [...], "storedAt": <epoch millis>, "total": <len(payload)>, "ttl": <millis>}
//
// Pointers distinguish a missing field from a zero value.
type persistedEntry struct {
	Payload  []string `json:"payload"`
	StoredAt *int64   `json:"storedAt"`
	Total    *int     `json:"total"`
	TTL      *int64   `json:"ttl,omitempty"`
}

func encodeEntry(e Entry) ([]byte, error) {
	storedAt := e.StoredAt.UnixMilli()
	total := len(e.Payload)
	// Round up so a sub-millisecond ttl never persists as 0.
	ttl := int64((e.TTL + time.Millisecond - 1) / time.Millisecond)
	payload := e.Payload
	if payload == nil {
		payload = []string{}
	}
	return json.Marshal(persistedEntry{
		Payload:  payload,
		StoredAt: &storedAt,
		Total:    &total,
		TTL:      &ttl,
	})
}

// decodeEntry parses raw and checks its structure. Entries written without a
// ttl take defaultTTL. Any structural problem wraps sentinel.ErrMalformed.
func decodeEntry(key string, raw []byte, defaultTTL time.Duration) (Entry, error) {
	var p persistedEntry
	if err := json.Unmarshal(raw, &p); err != nil {
		return Entry{}, fmt.Errorf("decode cache entry %q: %w: %v", key, sentinel.ErrMalformed, err)
	}
	switch {
	case p.Payload == nil:
		return Entry{}, fmt.Errorf("cache entry %q: %w: missing payload", key, sentinel.ErrMalformed)
	case p.StoredAt == nil:
		return Entry{}, fmt.Errorf("cache entry %q: %w: missing storedAt", key, sentinel.ErrMalformed)
	case p.Total == nil || *p.Total != len(p.Payload):
		return Entry{}, fmt.Errorf("cache entry %q: %w: total does not match payload", key, sentinel.ErrMalformed)
	case p.TTL != nil && *p.TTL <= 0:
		return Entry{}, fmt.Errorf("cache entry %q: %w: non-positive ttl", key, sentinel.ErrMalformed)
	}

	ttl := defaultTTL
	if p.TTL != nil {
		ttl = time.Duration(*p.TTL) * time.Millisecond
	}
	return Entry{
		Key:      key,
		Payload:  p.Payload,
		StoredAt: time.UnixMilli(*p.StoredAt),
		TTL:      ttl,
	}, nil
}
