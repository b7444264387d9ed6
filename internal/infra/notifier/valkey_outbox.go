package notifier

import (
	"context"
	"encoding/json"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/suncare/internal/domain/notify"
)

const defaultOutboxLength = 1000

// ValkeyOutbox pushes notifications onto a capped list for push relays to drain.
type ValkeyOutbox struct {
	client    valkey.Client
	key       string
	maxLength int64
}

// NewValkeyOutbox constructs an outbox writing to key.
func NewValkeyOutbox(client valkey.Client, key string, maxLength int64) *ValkeyOutbox {
	if key == "" {
		key = "suncare:notifications"
	}
	if maxLength <= 0 {
		maxLength = defaultOutboxLength
	}
	return &ValkeyOutbox{client: client, key: key, maxLength: maxLength}
}

// Notify implements notify.Notifier.
func (o *ValkeyOutbox) Notify(ctx context.Context, note notify.Notification) error {
	payload, err := json.Marshal(note)
	if err != nil {
		return err
	}
	for _, resp := range o.client.DoMulti(ctx,
		o.client.B().Lpush().Key(o.key).Element(string(payload)).Build(),
		o.client.B().Ltrim().Key(o.key).Start(0).Stop(o.maxLength-1).Build(),
	) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

var _ notify.Notifier = (*ValkeyOutbox)(nil)
