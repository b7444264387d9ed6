// Package ingest turns the sensor board's serial output into feed readings.
package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/suncare/internal/domain/sensor"
)

// SourceName labels readings produced by the serial bridge.
const SourceName = "serial"

// ErrMalformedLine is wrapped by every ParseLine failure.
var ErrMalformedLine = errors.New("malformed sensor line")

// ParseLine parses "uv_raw,uv_index,is_pressed". The raw value is the intensity;
// when it is empty the rounded uv_index is used instead.
func ParseLine(line string, now time.Time) (sensor.Reading, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 3 {
		return sensor.Reading{}, fmt.Errorf("%w: want 3 fields, got %d", ErrMalformedLine, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	intensity, err := parseIntensity(parts[0], parts[1])
	if err != nil {
		return sensor.Reading{}, err
	}
	pressed, err := parsePressed(parts[2])
	if err != nil {
		return sensor.Reading{}, err
	}

	now = now.UTC()
	reading := sensor.Reading{
		UVIntensity: intensity,
		Applied:     pressed,
		ReceivedAt:  now,
		Source:      SourceName,
	}
	if pressed {
		reading.AppliedAt = &now
	}
	return reading, nil
}

func parseIntensity(raw, index string) (*int, error) {
	if raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: uv_raw %q", ErrMalformedLine, raw)
		}
		return sensor.Intensity(v), nil
	}
	if index == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(index, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: uv_index %q", ErrMalformedLine, index)
	}
	return sensor.Intensity(int(math.Round(f))), nil
}

func parsePressed(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "1", "true":
		return true, nil
	case "0", "false", "":
		return false, nil
	default:
		return false, fmt.Errorf("%w: is_pressed %q", ErrMalformedLine, value)
	}
}
