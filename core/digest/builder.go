// Package digest builds and delivers the daily capture summary: how many
// pages landed in each bucket since local midnight.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Rishi-choudhary/PARA-AI/core/domain"
)

// Counter counts pages created in a bucket since a point in time.
type Counter interface {
	QueryCreatedSince(ctx context.Context, bucket domain.Bucket, since time.Time) (int, error)
}

// Summary is one day's capture counts. Buckets whose query failed are
// listed in Missing and absent from Counts.
type Summary struct {
	Since   time.Time
	Counts  map[domain.Bucket]int
	Missing []domain.Bucket
}

// Total sums the counts that were retrieved.
func (s Summary) Total() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}

// Builder queries the store for a Summary.
type Builder struct {
	store    Counter
	location *time.Location
	logger   *slog.Logger
}

func NewBuilder(store Counter, location *time.Location, logger *slog.Logger) *Builder {
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, location: location, logger: logger}
}

// Build counts every bucket since the local midnight before now. A failing
// bucket is logged and skipped; Build fails only if every bucket does.
func (b *Builder) Build(ctx context.Context, now time.Time) (Summary, error) {
	since := midnight(now.In(b.location))
	s := Summary{Since: since, Counts: make(map[domain.Bucket]int)}

	var errs []error
	for _, bucket := range domain.AllBuckets() {
		n, err := b.store.QueryCreatedSince(ctx, bucket, since)
		if err != nil {
			b.logger.Warn("digest count failed", "bucket", bucket.String(), "err", err)
			s.Missing = append(s.Missing, bucket)
			errs = append(errs, fmt.Errorf("%s: %w", bucket, err))
			continue
		}
		s.Counts[bucket] = n
	}

	if len(s.Counts) == 0 {
		return s, errors.Join(errs...)
	}
	return s, nil
}

// Summarize builds and formats today's summary.
func (b *Builder) Summarize(ctx context.Context, now time.Time) (string, error) {
	s, err := b.Build(ctx, now)
	if err != nil {
		return "", err
	}
	return Format(s), nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Format renders s as a Telegram HTML message.
func Format(s Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>Today's captures</b> (%s)\n", s.Since.Format("Mon, 2 Jan"))

	if s.Total() == 0 && len(s.Missing) == 0 {
		sb.WriteString("\nNothing captured today.")
		return sb.String()
	}

	sb.WriteString("\n")
	for _, bucket := range domain.AllBuckets() {
		n, ok := s.Counts[bucket]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "• %s: %d\n", bucket, n)
	}
	fmt.Fprintf(&sb, "\nTotal: <b>%d</b>", s.Total())

	if len(s.Missing) > 0 {
		names := make([]string, len(s.Missing))
		for i, bucket := range s.Missing {
			names[i] = bucket.String()
		}
		fmt.Fprintf(&sb, "\n\n⚠️ Couldn't count %s.", strings.Join(names, ", "))
	}
	return sb.String()
}
