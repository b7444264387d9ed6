package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/suncare/internal/domain/sensor"
)

var fixedNow = time.Date(2024, 7, 1, 4, 0, 0, 0, time.UTC)

func TestParseLine(t *testing.T) {
	reading, err := ParseLine("512,5.12,1", fixedNow)
	require.NoError(t, err)
	uv, ok := reading.UV()
	require.True(t, ok)
	require.Equal(t, 512, uv)
	require.True(t, reading.Applied)
	require.Equal(t, fixedNow, *reading.AppliedAt)
	require.Equal(t, SourceName, reading.Source)

	reading, err = ParseLine(" , 7.6 , false ", fixedNow)
	require.NoError(t, err)
	uv, _ = reading.UV()
	require.Equal(t, 8, uv)
	require.False(t, reading.Applied)
	require.Nil(t, reading.AppliedAt)

	reading, err = ParseLine(",,0", fixedNow)
	require.NoError(t, err)
	_, ok = reading.UV()
	require.False(t, ok)

	reading, err = ParseLine("-4,0,TRUE", fixedNow)
	require.NoError(t, err)
	uv, _ = reading.UV()
	require.Equal(t, 0, uv)
	require.True(t, reading.Applied)
}

func TestParseLineMalformed(t *testing.T) {
	for _, line := range []string{"512,5.12", "abc,1,0", "1,2,maybe", ",NaN,0", "1,2,3,4"} {
		_, err := ParseLine(line, fixedNow)
		require.ErrorIs(t, err, ErrMalformedLine, line)
	}
}

type stubPublisher struct {
	readings []sensor.Reading
	err      error
}

func (s *stubPublisher) Publish(_ context.Context, reading sensor.Reading) error {
	if s.err != nil {
		return s.err
	}
	s.readings = append(s.readings, reading)
	return nil
}

func TestBridgeRun(t *testing.T) {
	pub := &stubPublisher{}
	bridge := NewBridge(pub, slog.New(slog.NewTextHandler(io.Discard, nil)))
	bridge.now = func() time.Time { return fixedNow }

	input := "100,1.0,0\n\ngarbage\n130,1.3,1\n"
	stats, err := bridge.Run(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, Stats{Lines: 3, Published: 2, Skipped: 1}, stats)
	require.Len(t, pub.readings, 2)
	require.True(t, pub.readings[1].Applied)
}

func TestBridgePublishError(t *testing.T) {
	pub := &stubPublisher{err: errors.New("valkey down")}
	bridge := NewBridge(pub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := bridge.Run(context.Background(), strings.NewReader("1,1,0\n"))
	require.Error(t, err)
}

func TestHTTPPublisher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/sensor/readings", r.URL.Path)
		if r.Header.Get(DeviceKeyHeader) != "dev-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	reading := sensor.Reading{UVIntensity: sensor.Intensity(50)}
	require.NoError(t, NewHTTPPublisher(server.URL+"/", "dev-key").Publish(context.Background(), reading))
	require.Error(t, NewHTTPPublisher(server.URL, "wrong").Publish(context.Background(), reading))
}
