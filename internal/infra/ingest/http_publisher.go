package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/suncare/internal/domain/sensor"
)

// DeviceKeyHeader authenticates sensor uploads.
const DeviceKeyHeader = "X-Device-Key"

// HTTPPublisher posts readings to the API's sensor endpoint.
type HTTPPublisher struct {
	endpoint   string
	deviceKey  string
	httpClient *http.Client
}

// NewHTTPPublisher targets baseURL + /api/v1/sensor/readings.
func NewHTTPPublisher(baseURL, deviceKey string) *HTTPPublisher {
	return &HTTPPublisher{
		endpoint:  strings.TrimRight(baseURL, "/") + "/api/v1/sensor/readings",
		deviceKey: deviceKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Publish implements sensor.Publisher.
func (p *HTTPPublisher) Publish(ctx context.Context, reading sensor.Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.deviceKey != "" {
		req.Header.Set(DeviceKeyHeader, p.deviceKey)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post sensor reading: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("post sensor reading: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

var _ sensor.Publisher = (*HTTPPublisher)(nil)
