// Package knowledge defines the categorized document store the assistant
// writes into, and a Notion-backed implementation of it.
package knowledge

import (
	"context"
	"time"

	"github.com/Rishi-choudhary/PARA-AI/core/domain"
)

// Store is the categorized page store. Writes are at-least-once: calling
// CreatePage twice with the same page creates two pages.
type Store interface {
	// CreatePage creates a page and returns its URL.
	CreatePage(ctx context.Context, page NewPage) (string, error)

	// QueryExactTitle returns the first page in bucket whose title equals
	// title, or nil when there is none.
	QueryExactTitle(ctx context.Context, bucket domain.Bucket, title string) (*domain.PageHandle, error)

	// Patch updates fields on an existing page.
	Patch(ctx context.Context, pageID string, patch Patch) error

	// QueryCreatedSince counts pages created in bucket at or after since.
	QueryCreatedSince(ctx context.Context, bucket domain.Bucket, since time.Time) (int, error)

	// Search runs a full-text search across the store, best match first.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
}

// NewPage describes a page to create.
type NewPage struct {
	Bucket domain.Bucket
	Title  string
	Tags   []string
	Blocks []Block

	// Status and DueDate are only meaningful for the Tasks bucket.
	Status  string
	DueDate *time.Time

	// TitleProperties and TagProperties carry store-native property values
	// copied from another page. When set they take precedence over Title and
	// Tags.
	TitleProperties domain.PropertyBag
	TagProperties   domain.PropertyBag
}

// BlockType is the kind of content block embedded in a page body.
type BlockType string

const (
	BlockToDo     BlockType = "to_do"
	BlockBookmark BlockType = "bookmark"
	BlockEmbed    BlockType = "embed"
)

// Block is a piece of page body content.
type Block struct {
	Type    BlockType
	Text    string
	URL     string
	Checked bool
}

// ToDo returns an unchecked checklist entry.
func ToDo(text string) Block {
	return Block{Type: BlockToDo, Text: text}
}

// Bookmark returns a link preview block.
func Bookmark(url string) Block {
	return Block{Type: BlockBookmark, URL: url}
}

// Embed returns an embedded media block.
func Embed(url string) Block {
	return Block{Type: BlockEmbed, URL: url}
}

// Checklist converts task titles into to-do blocks, preserving order.
func Checklist(tasks []string) []Block {
	blocks := make([]Block, 0, len(tasks))
	for _, task := range tasks {
		blocks = append(blocks, ToDo(task))
	}
	return blocks
}

// Patch lists the fields to change on a page.
type Patch struct {
	// Archived marks the page inactive in its original bucket.
	Archived bool
}

// MarkArchived is the patch that retires a page from its bucket. Applying
// it to an already archived page is a no-op.
func MarkArchived() Patch {
	return Patch{Archived: true}
}
