package datagov

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/yanqian/suncare/internal/domain/sensor"
)

const (
	// SourceName labels readings published by the poller.
	SourceName = "datagov"

	defaultScale    = 15.0
	defaultInterval = 15 * time.Minute
)

// Fetcher is satisfied by Client.
type Fetcher interface {
	Fetch(ctx context.Context, date string) (Series, error)
}

// PollerConfig controls how often the public index is read and how it maps to intensity.
type PollerConfig struct {
	Interval time.Duration
	// Scale converts the 0..11+ UV index into the sensor's raw intensity range.
	Scale float64
}

// Poller publishes the public UV index as sensor readings when no hardware sensor is attached.
type Poller struct {
	cfg       PollerConfig
	fetcher   Fetcher
	publisher sensor.Publisher
	latest    sensor.LatestReader
	logger    *slog.Logger

	lastHour time.Time
}

// NewPoller wires a poller. latest may be nil; when set, the applied flag of
// the current record is carried over so polling never clears it.
func NewPoller(cfg PollerConfig, fetcher Fetcher, publisher sensor.Publisher, latest sensor.LatestReader, logger *slog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Scale <= 0 {
		cfg.Scale = defaultScale
	}
	return &Poller{
		cfg:       cfg,
		fetcher:   fetcher,
		publisher: publisher,
		latest:    latest,
		logger:    logger.With("component", "datagov.poller"),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.logger.Info("uv poller started", "interval", p.cfg.Interval, "scale", p.cfg.Scale)
	for {
		if _, err := p.PollOnce(ctx); err != nil {
			p.logger.Warn("uv poll failed", "error", err)
		}
		select {
		case <-ctx.Done():
			p.logger.Info("uv poller stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// PollOnce fetches today's series and publishes the newest sample if it has not been published yet.
func (p *Poller) PollOnce(ctx context.Context) (bool, error) {
	series, err := p.fetcher.Fetch(ctx, "")
	if err != nil {
		return false, err
	}
	sample, ok := series.Latest()
	if !ok || !sample.Hour.After(p.lastHour) {
		return false, nil
	}

	reading := sensor.Reading{
		UVIntensity: sensor.Intensity(ToIntensity(sample.Value, p.cfg.Scale)),
		Source:      SourceName,
	}
	if p.latest != nil {
		if current, found, err := p.latest.Latest(ctx); err != nil {
			p.logger.Warn("failed to read current sensor record", "error", err)
		} else if found {
			reading.Applied = current.Applied
			reading.AppliedAt = current.AppliedAt
		}
	}
	if err := p.publisher.Publish(ctx, reading); err != nil {
		return false, err
	}
	p.lastHour = sample.Hour
	p.logger.Debug("uv index published", "index", sample.Value, "intensity", *reading.UVIntensity, "hour", sample.Hour)
	return true, nil
}

// ToIntensity maps a UV index to raw intensity; negative inputs clamp to 0.
func ToIntensity(index, scale float64) int {
	if index <= 0 || math.IsNaN(index) {
		return 0
	}
	return int(math.Round(index * scale))
}
