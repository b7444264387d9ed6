package ingest

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/yanqian/suncare/internal/domain/sensor"
)

// Stats counts what a bridge run did.
type Stats struct {
	Lines     int
	Published int
	Skipped   int
}

// Bridge reads sensor lines and publishes each valid one.
type Bridge struct {
	publisher sensor.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewBridge wires a bridge to a publisher.
func NewBridge(publisher sensor.Publisher, logger *slog.Logger) *Bridge {
	return &Bridge{
		publisher: publisher,
		logger:    logger.With("component", "ingest.bridge"),
		now:       time.Now,
	}
}

// Run consumes r until EOF or ctx is cancelled. Malformed lines are logged and skipped;
// a publish failure stops the run.
func (b *Bridge) Run(ctx context.Context, r io.Reader) (Stats, error) {
	var stats Stats
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, nil
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		stats.Lines++
		reading, err := ParseLine(line, b.now())
		if err != nil {
			stats.Skipped++
			b.logger.Warn("skipping sensor line", "line", line, "error", err)
			continue
		}
		if err := b.publisher.Publish(ctx, reading); err != nil {
			if errors.Is(err, context.Canceled) {
				return stats, nil
			}
			return stats, err
		}
		stats.Published++
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}
