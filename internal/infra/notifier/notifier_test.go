package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/suncare/internal/domain/notify"
)

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, notify.Notification) error {
	c.calls++
	return c.err
}

func TestMultiDeliversToAllTargets(t *testing.T) {
	failing := &countingNotifier{err: errors.New("offline")}
	ok := &countingNotifier{}
	multi := Multi{failing, nil, ok, NewLogNotifier(newTestLogger())}

	err := multi.Notify(context.Background(), notify.Notification{ID: "n1"})
	require.Error(t, err)
	require.Equal(t, 1, failing.calls)
	require.Equal(t, 1, ok.calls)

	require.NoError(t, Multi{ok}.Notify(context.Background(), notify.Notification{}))
}

func TestClientNotifyAfterClose(t *testing.T) {
	client := &Client{send: make(chan []byte, 1)}
	require.NoError(t, client.Notify(context.Background(), notify.Notification{ID: "a"}))
	require.ErrorIs(t, client.Notify(context.Background(), notify.Notification{ID: "b"}), ErrSlowClient)

	client.closeSend()
	client.closeSend()
	require.ErrorIs(t, client.Notify(context.Background(), notify.Notification{ID: "c"}), ErrSlowClient)
}
