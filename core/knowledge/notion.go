package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Rishi-choudhary/PARA-AI/core/domain"
	paraerrors "github.com/Rishi-choudhary/PARA-AI/core/errors"
)

const (
	// DefaultNotionBaseURL is the Notion REST API root.
	DefaultNotionBaseURL = "https://api.notion.com/v1"

	// DefaultNotionVersion is the API version every request is pinned to.
	DefaultNotionVersion = "2022-06-28"

	queryPageSize = 100
)

// NotionConfig configures the Notion client.
type NotionConfig struct {
	APIKey  string
	BaseURL string
	Version string

	// Databases maps each bucket to the Notion database that backs it.
	Databases map[domain.Bucket]string

	TitleProperty   string
	TagProperty     string
	StatusProperty  string
	DueDateProperty string

	// StatusType is "status" or "select", depending on how the Tasks
	// database defines its status column.
	StatusType string

	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// DefaultNotionConfig returns the property names used by the stock PARA
// template.
func DefaultNotionConfig() NotionConfig {
	return NotionConfig{
		BaseURL:         DefaultNotionBaseURL,
		Version:         DefaultNotionVersion,
		Databases:       make(map[domain.Bucket]string),
		TitleProperty:   "Name",
		TagProperty:     "Tags",
		StatusProperty:  "Status",
		DueDateProperty: "Due Date",
		StatusType:      "status",
		Timeout:         30 * time.Second,
	}
}

// Notion is a Store backed by one Notion database per bucket.
type Notion struct {
	cfg    NotionConfig
	client *http.Client
	logger *slog.Logger
}

var _ Store = (*Notion)(nil)

// NewNotion creates a Notion store client. Unset fields fall back to
// DefaultNotionConfig.
func NewNotion(cfg NotionConfig) *Notion {
	defaults := DefaultNotionConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.TitleProperty == "" {
		cfg.TitleProperty = defaults.TitleProperty
	}
	if cfg.TagProperty == "" {
		cfg.TagProperty = defaults.TagProperty
	}
	if cfg.StatusProperty == "" {
		cfg.StatusProperty = defaults.StatusProperty
	}
	if cfg.DueDateProperty == "" {
		cfg.DueDateProperty = defaults.DueDateProperty
	}
	if cfg.StatusType == "" {
		cfg.StatusType = defaults.StatusType
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Databases == nil {
		cfg.Databases = defaults.Databases
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Notion{cfg: cfg, client: client, logger: logger}
}

// =============================================================================
// Store operations
// =============================================================================

// CreatePage implements Store.
func (n *Notion) CreatePage(ctx context.Context, page NewPage) (string, error) {
	dbID, err := n.database(page.Bucket, paraerrors.KindStoreWrite)
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"parent":     map[string]string{"database_id": dbID},
		"properties": n.pageProperties(page),
	}
	if len(page.Blocks) > 0 {
		body["children"] = renderBlocks(page.Blocks)
	}

	resp, err := n.do(ctx, http.MethodPost, "/pages", body)
	if err != nil {
		return "", storeFailure(paraerrors.KindStoreWrite, "create page", page.Bucket, err)
	}

	url := gjson.GetBytes(resp, "url").String()
	n.logger.Info("notion page created",
		"bucket", page.Bucket.String(),
		"title", page.Title,
		"url", url)
	return url, nil
}

// QueryExactTitle implements Store.
func (n *Notion) QueryExactTitle(ctx context.Context, bucket domain.Bucket, title string) (*domain.PageHandle, error) {
	dbID, err := n.database(bucket, paraerrors.KindStoreQuery)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"filter": map[string]any{
			"property": n.cfg.TitleProperty,
			"title":    map[string]string{"equals": title},
		},
		"page_size": 1,
	}

	resp, err := n.do(ctx, http.MethodPost, "/databases/"+dbID+"/query", body)
	if err != nil {
		return nil, storeFailure(paraerrors.KindStoreQuery, "query by title", bucket, err)
	}

	first := gjson.GetBytes(resp, "results.0")
	if !first.Exists() {
		return nil, nil
	}
	return n.handleFromPage(first, bucket), nil
}

// Patch implements Store.
func (n *Notion) Patch(ctx context.Context, pageID string, patch Patch) error {
	body := map[string]any{"archived": patch.Archived}
	if _, err := n.do(ctx, http.MethodPatch, "/pages/"+pageID, body); err != nil {
		return paraerrors.New(paraerrors.KindStoreWrite, "patch page "+pageID, err)
	}
	return nil
}

// QueryCreatedSince implements Store. It walks every result page.
func (n *Notion) QueryCreatedSince(ctx context.Context, bucket domain.Bucket, since time.Time) (int, error) {
	dbID, err := n.database(bucket, paraerrors.KindStoreQuery)
	if err != nil {
		return 0, err
	}

	count := 0
	cursor := ""
	for {
		body := map[string]any{
			"filter": map[string]any{
				"timestamp":    "created_time",
				"created_time": map[string]string{"on_or_after": since.Format(time.RFC3339)},
			},
			"page_size": queryPageSize,
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		resp, err := n.do(ctx, http.MethodPost, "/databases/"+dbID+"/query", body)
		if err != nil {
			return 0, storeFailure(paraerrors.KindStoreQuery, "count created pages", bucket, err)
		}

		parsed := gjson.ParseBytes(resp)
		count += len(parsed.Get("results").Array())
		if !parsed.Get("has_more").Bool() {
			return count, nil
		}
		cursor = parsed.Get("next_cursor").String()
		if cursor == "" {
			return count, nil
		}
	}
}

// Search implements Store.
func (n *Notion) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	if limit <= 0 || limit > queryPageSize {
		limit = queryPageSize
	}
	body := map[string]any{
		"query":     query,
		"filter":    map[string]string{"property": "object", "value": "page"},
		"page_size": limit,
	}

	resp, err := n.do(ctx, http.MethodPost, "/search", body)
	if err != nil {
		return nil, paraerrors.New(paraerrors.KindStoreQuery, "search", err)
	}

	hits := make([]domain.SearchHit, 0, limit)
	gjson.GetBytes(resp, "results").ForEach(func(_, page gjson.Result) bool {
		title, _ := titleOf(page)
		if title == "" {
			title = "Untitled"
		}
		hits = append(hits, domain.SearchHit{Title: title, URL: page.Get("url").String()})
		return len(hits) < limit
	})
	return hits, nil
}

// =============================================================================
// Payload construction
// =============================================================================

func (n *Notion) pageProperties(page NewPage) map[string]json.RawMessage {
	props := make(map[string]json.RawMessage)

	if len(page.TitleProperties) > 0 {
		for k, v := range page.TitleProperties {
			props[k] = v
		}
	} else {
		props[n.cfg.TitleProperty] = titleValue(page.Title)
	}

	if len(page.TagProperties) > 0 {
		for k, v := range page.TagProperties {
			props[k] = v
		}
	} else if page.Bucket != domain.BucketTasks {
		props[n.cfg.TagProperty] = tagsValue(page.Tags)
	}

	if page.Status != "" {
		props[n.cfg.StatusProperty] = mustJSON(map[string]any{
			n.cfg.StatusType: map[string]string{"name": page.Status},
		})
	}
	if page.DueDate != nil {
		props[n.cfg.DueDateProperty] = mustJSON(map[string]any{
			"date": map[string]string{"start": page.DueDate.Format("2006-01-02")},
		})
	}
	return props
}

func renderBlocks(blocks []Block) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		var content map[string]any
		switch b.Type {
		case BlockToDo:
			content = map[string]any{
				"rich_text": []any{richText(b.Text)},
				"checked":   b.Checked,
			}
		case BlockBookmark, BlockEmbed:
			content = map[string]any{"url": b.URL}
		default:
			continue
		}
		out = append(out, map[string]any{
			"object":       "block",
			"type":         string(b.Type),
			string(b.Type): content,
		})
	}
	return out
}

func richText(s string) map[string]any {
	return map[string]any{"type": "text", "text": map[string]string{"content": s}}
}

func titleValue(title string) json.RawMessage {
	return mustJSON(map[string]any{"title": []any{richText(title)}})
}

func tagsValue(tags []string) json.RawMessage {
	names := make([]map[string]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, map[string]string{"name": tag})
	}
	return mustJSON(map[string]any{"multi_select": names})
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("knowledge: marshal %T: %v", v, err))
	}
	return raw
}

// =============================================================================
// Response parsing
// =============================================================================

// handleFromPage rebuilds the page's title and tag properties in writable
// form. Notion returns read-only fields (ids, annotations, colors) that a
// create request rejects, so only plain text and option names are kept.
func (n *Notion) handleFromPage(page gjson.Result, bucket domain.Bucket) *domain.PageHandle {
	handle := &domain.PageHandle{
		ID:     page.Get("id").String(),
		URL:    page.Get("url").String(),
		Bucket: bucket,
	}

	title, titleKey := titleOf(page)
	handle.Title = title
	if titleKey != "" {
		handle.TitleProperty = domain.PropertyBag{titleKey: titleValue(title)}
	}

	tags := page.Get("properties").Get(gjson.Escape(n.cfg.TagProperty))
	if tags.Get("type").String() == "multi_select" {
		var names []string
		tags.Get("multi_select").ForEach(func(_, opt gjson.Result) bool {
			names = append(names, opt.Get("name").String())
			return true
		})
		handle.TagProperty = domain.PropertyBag{n.cfg.TagProperty: tagsValue(names)}
	}
	return handle
}

// titleOf returns the plain-text title of a page and the name of the
// property holding it.
func titleOf(page gjson.Result) (string, string) {
	var title, key string
	page.Get("properties").ForEach(func(k, prop gjson.Result) bool {
		if prop.Get("type").String() != "title" {
			return true
		}
		key = k.String()
		var sb strings.Builder
		for _, part := range prop.Get("title.#.plain_text").Array() {
			sb.WriteString(part.String())
		}
		title = sb.String()
		return false
	})
	return title, key
}

// =============================================================================
// Transport
// =============================================================================

// APIError is a non-2xx answer from the Notion API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion: HTTP %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("notion: HTTP %d: %s", e.Status, e.Message)
}

func (n *Notion) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, n.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
	req.Header.Set("Notion-Version", n.cfg.Version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		if gjson.ValidBytes(respBody) {
			parsed := gjson.ParseBytes(respBody)
			apiErr.Code = parsed.Get("code").String()
			if msg := parsed.Get("message").String(); msg != "" {
				apiErr.Message = msg
			}
		}
		n.logger.Warn("notion request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"code", apiErr.Code)
		return nil, apiErr
	}

	if !gjson.ValidBytes(respBody) {
		return nil, fmt.Errorf("invalid JSON in response to %s %s", method, path)
	}
	return respBody, nil
}

func (n *Notion) database(bucket domain.Bucket, kind paraerrors.Kind) (string, error) {
	id := n.cfg.Databases[bucket]
	if id == "" {
		return "", paraerrors.New(kind, "no database configured", nil).WithBucket(bucket.String())
	}
	return id, nil
}

func storeFailure(kind paraerrors.Kind, op string, bucket domain.Bucket, err error) error {
	return paraerrors.New(kind, op, err).WithBucket(bucket.String())
}
