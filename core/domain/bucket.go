package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Bucket is a categorisation target in the knowledge store.
type Bucket int

const (
	BucketProjects Bucket = iota + 1
	BucketAreas
	BucketResources
	BucketArchive
	BucketTasks
)

var bucketNames = map[Bucket]string{
	BucketProjects:  "Projects",
	BucketAreas:     "Areas",
	BucketResources: "Resources",
	BucketArchive:   "Archive",
	BucketTasks:     "Tasks",
}

var nameToBucket = map[string]Bucket{
	"projects":  BucketProjects,
	"project":   BucketProjects,
	"areas":     BucketAreas,
	"area":      BucketAreas,
	"resources": BucketResources,
	"resource":  BucketResources,
	"archive":   BucketArchive,
	"archives":  BucketArchive,
	"tasks":     BucketTasks,
	"task":      BucketTasks,
}

func (b Bucket) String() string {
	if name, ok := bucketNames[b]; ok {
		return name
	}
	return fmt.Sprintf("bucket(%d)", b)
}

func (b Bucket) IsValid() bool {
	_, ok := bucketNames[b]
	return ok
}

// IsPARA reports whether b is one of the four classification categories.
// Tasks is a bucket but never a classification result.
func (b Bucket) IsPARA() bool {
	switch b {
	case BucketProjects, BucketAreas, BucketResources, BucketArchive:
		return true
	default:
		return false
	}
}

func ParseBucket(s string) (Bucket, bool) {
	b, ok := nameToBucket[strings.ToLower(strings.TrimSpace(s))]
	return b, ok
}

func PARABuckets() []Bucket {
	return []Bucket{
		BucketProjects,
		BucketAreas,
		BucketResources,
		BucketArchive,
	}
}

func AllBuckets() []Bucket {
	return []Bucket{
		BucketProjects,
		BucketAreas,
		BucketResources,
		BucketArchive,
		BucketTasks,
	}
}

// ArchiveLookupOrder is the fixed order exact-title lookups walk. The first
// bucket holding a match wins, so a title present in two buckets only ever
// resolves to the earlier one.
func ArchiveLookupOrder() []Bucket {
	return []Bucket{
		BucketProjects,
		BucketAreas,
		BucketResources,
	}
}

func (b Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Bucket) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, ok := ParseBucket(s)
	if !ok {
		return fmt.Errorf("invalid bucket: %s", s)
	}

	*b = parsed
	return nil
}
