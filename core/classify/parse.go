package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Rishi-choudhary/PARA-AI/core/domain"
)

// stripFences removes markdown code fences models like to wrap JSON in,
// and any prose before the first brace.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '{'); i > 0 {
		s = s[i:]
	}
	if i := strings.LastIndexByte(s, '}'); i >= 0 && i < len(s)-1 {
		s = s[:i+1]
	}
	return s
}

func parseObject(raw string) (gjson.Result, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return gjson.Result{}, fmt.Errorf("empty model output")
	}
	if !gjson.Valid(cleaned) {
		return gjson.Result{}, fmt.Errorf("model output is not valid JSON: %q", truncate(cleaned, 120))
	}
	doc := gjson.Parse(cleaned)
	if !doc.IsObject() {
		return gjson.Result{}, fmt.Errorf("model output is not a JSON object")
	}
	return doc, nil
}

func requireString(doc gjson.Result, key string) (string, error) {
	v := doc.Get(key)
	if !v.Exists() {
		return "", fmt.Errorf("missing key %q", key)
	}
	if v.Type != gjson.String {
		return "", fmt.Errorf("key %q is %s, want string", key, v.Type)
	}
	return strings.TrimSpace(v.String()), nil
}

func stringArray(doc gjson.Result, key string) ([]string, error) {
	v := doc.Get(key)
	if !v.Exists() {
		return nil, fmt.Errorf("missing key %q", key)
	}
	if !v.IsArray() {
		return nil, fmt.Errorf("key %q is not a list", key)
	}
	out := make([]string, 0, len(v.Array()))
	for i, item := range v.Array() {
		if item.Type != gjson.String {
			return nil, fmt.Errorf("%s[%d] is %s, want string", key, i, item.Type)
		}
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// parseClassification reads {"category", "title", "tags"}. The category
// must name one of the four PARA buckets.
func parseClassification(raw string) (domain.Classification, error) {
	doc, err := parseObject(raw)
	if err != nil {
		return domain.Classification{}, err
	}

	category, err := requireString(doc, "category")
	if err != nil {
		return domain.Classification{}, err
	}
	bucket, ok := domain.ParseBucket(category)
	if !ok || !bucket.IsPARA() {
		return domain.Classification{}, fmt.Errorf("unknown category %q", category)
	}

	title, err := requireString(doc, "title")
	if err != nil {
		return domain.Classification{}, err
	}
	if title == "" {
		return domain.Classification{}, fmt.Errorf("empty title")
	}

	tags, err := stringArray(doc, "tags")
	if err != nil {
		return domain.Classification{}, err
	}

	return domain.Classification{Category: bucket, Title: title, Tags: tags}, nil
}

// parseComplexity reads {"complexity": "simple"|"complex"}.
func parseComplexity(raw string) (domain.Complexity, error) {
	doc, err := parseObject(raw)
	if err != nil {
		return domain.ComplexityComplex, err
	}
	verdict, err := requireString(doc, "complexity")
	if err != nil {
		return domain.ComplexityComplex, err
	}
	switch strings.ToLower(verdict) {
	case "simple":
		return domain.ComplexitySimple, nil
	case "complex":
		return domain.ComplexityComplex, nil
	default:
		return domain.ComplexityComplex, fmt.Errorf("unknown complexity %q", verdict)
	}
}

// maxTasks matches the upper bound the breakdown prompt asks for.
const maxTasks = 8

// parseTasks reads {"tasks": [...]}, keeping model order, dropping blank
// entries and keeping at most maxTasks. An empty list is not an error; the
// caller treats it as no breakdown.
func parseTasks(raw string) ([]string, error) {
	doc, err := parseObject(raw)
	if err != nil {
		return nil, err
	}
	tasks, err := stringArray(doc, "tasks")
	if err != nil {
		return nil, err
	}
	if len(tasks) > maxTasks {
		tasks = tasks[:maxTasks]
	}
	return tasks, nil
}

// parseTaskExtraction reads {"task_name": string|null, "due_date":
// "YYYY-MM-DD"|null}. Dates are interpreted in loc.
func parseTaskExtraction(raw string, loc *time.Location) (domain.TaskExtraction, error) {
	doc, err := parseObject(raw)
	if err != nil {
		return domain.TaskExtraction{}, err
	}

	var out domain.TaskExtraction

	name := doc.Get("task_name")
	switch {
	case !name.Exists():
		return out, fmt.Errorf("missing key %q", "task_name")
	case name.Type == gjson.Null:
	case name.Type == gjson.String:
		out.TaskName = strings.TrimSpace(name.String())
	default:
		return out, fmt.Errorf("key %q is %s, want string", "task_name", name.Type)
	}

	due := doc.Get("due_date")
	switch {
	case !due.Exists(), due.Type == gjson.Null:
	case due.Type == gjson.String:
		s := strings.TrimSpace(due.String())
		if s == "" {
			break
		}
		t, err := parseDate(s, loc)
		if err != nil {
			return out, err
		}
		out.DueDate = &t
	default:
		return out, fmt.Errorf("key %q is %s, want string", "due_date", due.Type)
	}

	return out, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("unparseable due date %q", s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
