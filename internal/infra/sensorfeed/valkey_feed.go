package sensorfeed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/suncare/internal/domain/sensor"
)

// ValkeyFeed shares the latest reading through Valkey so several processes
// (ingest bridges, API replicas) see one record. Subscribers are served by a
// local Broadcaster fed from the pub/sub channel.
type ValkeyFeed struct {
	client  valkey.Client
	key     string
	channel string
	local   *Broadcaster
	logger  *slog.Logger
}

// NewValkeyFeed constructs the feed. Call Run to start relaying channel messages.
func NewValkeyFeed(client valkey.Client, prefix string, local *Broadcaster, logger *slog.Logger) *ValkeyFeed {
	if prefix == "" {
		prefix = "suncare:sensor"
	}
	return &ValkeyFeed{
		client:  client,
		key:     prefix + ":latest",
		channel: prefix + ":readings",
		local:   local,
		logger:  logger.With("component", "sensorfeed.valkey"),
	}
}

// Publish stores the reading under the latest key and announces it on the channel.
func (f *ValkeyFeed) Publish(ctx context.Context, reading sensor.Reading) error {
	if reading.ReceivedAt.IsZero() {
		reading.ReceivedAt = f.local.now().UTC()
	}
	payload, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	for _, resp := range f.client.DoMulti(ctx,
		f.client.B().Set().Key(f.key).Value(string(payload)).Build(),
		f.client.B().Publish().Channel(f.channel).Message(string(payload)).Build(),
	) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

// Latest reads the shared record.
func (f *ValkeyFeed) Latest(ctx context.Context) (sensor.Reading, bool, error) {
	payload, err := f.client.Do(ctx, f.client.B().Get().Key(f.key).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return sensor.Reading{}, false, nil
		}
		return sensor.Reading{}, false, err
	}
	var reading sensor.Reading
	if err := json.Unmarshal([]byte(payload), &reading); err != nil {
		return sensor.Reading{}, false, err
	}
	return reading, true, nil
}

// Subscribe attaches to the local relay.
func (f *ValkeyFeed) Subscribe(handler sensor.Handler) (sensor.Subscription, error) {
	return f.local.Subscribe(handler)
}

// Unsubscribe detaches from the local relay.
func (f *ValkeyFeed) Unsubscribe(sub sensor.Subscription) {
	f.local.Unsubscribe(sub)
}

// Run seeds the relay with the stored reading and then relays channel
// messages until ctx is cancelled.
func (f *ValkeyFeed) Run(ctx context.Context) error {
	if reading, ok, err := f.Latest(ctx); err != nil {
		f.logger.Warn("failed to load latest sensor reading", "error", err)
	} else if ok {
		_ = f.local.Publish(ctx, reading)
	}

	f.logger.Info("sensor relay subscribed", "channel", f.channel)
	err := f.client.Receive(ctx, f.client.B().Subscribe().Channel(f.channel).Build(), func(msg valkey.PubSubMessage) {
		var reading sensor.Reading
		if err := json.Unmarshal([]byte(msg.Message), &reading); err != nil {
			f.logger.Warn("discarding malformed sensor message", "error", err)
			return
		}
		if err := f.local.Publish(ctx, reading); err != nil {
			f.logger.Warn("relay publish failed", "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
