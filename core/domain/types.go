// Package domain holds the value types shared by the intake pipeline:
// buckets, classification results, task extractions and store handles.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Classification is the result of sorting free text into a PARA bucket.
// It is treated as immutable once received.
type Classification struct {
	Category Bucket   `json:"category"`
	Title    string   `json:"title"`
	Tags     []string `json:"tags"`
}

// Clone returns a copy whose tag slice is not shared with c.
func (c Classification) Clone() Classification {
	tags := make([]string, len(c.Tags))
	copy(tags, c.Tags)
	c.Tags = tags
	return c
}

// TaskExtraction is the structured form of an explicit task phrase.
type TaskExtraction struct {
	TaskName string     `json:"task_name"`
	DueDate  *time.Time `json:"due_date,omitempty"`
}

func (t TaskExtraction) HasName() bool {
	return strings.TrimSpace(t.TaskName) != ""
}

// Complexity is the verdict on whether a project is worth breaking down.
type Complexity int

const (
	ComplexitySimple Complexity = iota
	ComplexityComplex
)

func (c Complexity) String() string {
	if c == ComplexityComplex {
		return "complex"
	}
	return "simple"
}

// PropertyBag is a store-native property value carried through without
// interpretation, e.g. a page's title or tag property.
type PropertyBag map[string]json.RawMessage

func (p PropertyBag) Clone() PropertyBag {
	if p == nil {
		return nil
	}
	out := make(PropertyBag, len(p))
	for k, v := range p {
		raw := make(json.RawMessage, len(v))
		copy(raw, v)
		out[k] = raw
	}
	return out
}

// PageHandle identifies a page found by an exact-title lookup.
type PageHandle struct {
	ID            string
	URL           string
	Bucket        Bucket
	Title         string
	TitleProperty PropertyBag
	TagProperty   PropertyBag
}

// SearchHit is one full-text search result.
type SearchHit struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
