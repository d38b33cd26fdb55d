package model

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"

	"github.com/kart-io/tripplanner/pkg/utils/json"
)

// ExecutionRecord is the outcome of one plan step. Exactly one of the
// result lists is set on success; Error is set on failure.
type ExecutionRecord struct {
	Step        int           `json:"step"`
	Tool        ToolName      `json:"tool"`
	Call        ToolCall      `json:"call"`
	Flights     []FlightOffer `json:"flights,omitempty"`
	Hotels      []HotelOffer  `json:"hotels,omitempty"`
	Attractions []Attraction  `json:"attractions,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Succeeded reports whether the step produced a result.
func (r ExecutionRecord) Succeeded() bool {
	return r.Error == ""
}

// ResultLen is the number of offers carried by the record.
func (r ExecutionRecord) ResultLen() int {
	return len(r.Flights) + len(r.Hotels) + len(r.Attractions)
}

// SearchResults maps grouping keys to execution records, preserving the
// order in which keys were first seen.
type SearchResults struct {
	keys   []string
	groups map[string][]ExecutionRecord
}

// NewSearchResults returns an empty grouping.
func NewSearchResults() *SearchResults {
	return &SearchResults{groups: make(map[string][]ExecutionRecord)}
}

// Add appends rec under key.
func (s *SearchResults) Add(key string, rec ExecutionRecord) {
	if _, ok := s.groups[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.groups[key] = append(s.groups[key], rec)
}

// Keys returns the grouping keys in first-seen order.
func (s *SearchResults) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// Get returns the records grouped under key.
func (s *SearchResults) Get(key string) []ExecutionRecord {
	if s == nil {
		return nil
	}
	return s.groups[key]
}

// Len is the number of keys.
func (s *SearchResults) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// MarshalJSON renders an object whose member order follows Keys.
func (s *SearchResults) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(s.groups[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores the grouping. Member order of the document is
// kept so tie-breaking stays reproducible after a cache round trip.
func (s *SearchResults) UnmarshalJSON(data []byte) error {
	keys, err := objectKeys(data)
	if err != nil {
		return err
	}
	groups := make(map[string][]ExecutionRecord, len(keys))
	if err := json.Unmarshal(data, &groups); err != nil {
		return err
	}
	*s = SearchResults{keys: keys, groups: groups}
	return nil
}

// objectKeys lists the top-level member names of a JSON object in document
// order, skipping duplicates.
func objectKeys(data []byte) ([]string, error) {
	dec := stdjson.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(stdjson.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("search results: expected object, got %v", tok)
	}

	var keys []string
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		var skip stdjson.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
