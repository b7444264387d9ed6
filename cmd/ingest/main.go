// Command ingest bridges a serial UV sensor into the shared feed.
//
// The device writes one "uv_raw,uv_index,is_pressed" line per sample. Lines are
// read from -device (a tty or file) or stdin and published either straight to
// Valkey or to the API's sensor endpoint.
//
// Usage:
//
//	go run ./cmd/ingest -device /dev/ttyUSB0 -target valkey
//	cat samples.csv | go run ./cmd/ingest -target http -api http://localhost:8080
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/suncare/internal/domain/sensor"
	"github.com/yanqian/suncare/internal/infra/config"
	"github.com/yanqian/suncare/internal/infra/ingest"
	"github.com/yanqian/suncare/internal/infra/sensorfeed"
	"github.com/yanqian/suncare/pkg/logger"
)

func main() {
	device := flag.String("device", "", "device or file to read; stdin when empty")
	target := flag.String("target", "http", "where to publish: http or valkey")
	apiURL := flag.String("api", "http://localhost:8080", "API base URL for the http target")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logs := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var input io.Reader = os.Stdin
	if *device != "" {
		f, err := os.Open(*device)
		if err != nil {
			log.Fatalf("failed to open device: %v", err)
		}
		defer f.Close()
		input = f
	}

	var publisher sensor.Publisher
	switch *target {
	case "http":
		publisher = ingest.NewHTTPPublisher(*apiURL, cfg.Ingest.DeviceKey)
	case "valkey":
		client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}})
		if err != nil {
			log.Fatalf("failed to connect to valkey: %v", err)
		}
		defer client.Close()
		local := sensorfeed.NewBroadcaster(logs)
		defer local.Close()
		publisher = sensorfeed.NewValkeyFeed(client, cfg.Sensor.Prefix, local, logs)
	default:
		log.Fatalf("unknown target %q", *target)
	}

	start := time.Now()
	stats, err := ingest.NewBridge(publisher, logs).Run(ctx, input)
	logs.Info("ingest finished",
		"lines", stats.Lines,
		"published", stats.Published,
		"skipped", stats.Skipped,
		"elapsed", time.Since(start).String(),
	)
	if err != nil {
		log.Fatalf("ingest stopped with error: %v", err)
	}
}
