// Package notifier delivers gate notifications to logs, Valkey and websocket clients.
package notifier

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yanqian/suncare/internal/domain/notify"
)

// LogNotifier writes every notification to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a log-backed notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier.log")}
}

// Notify implements notify.Notifier.
func (n *LogNotifier) Notify(_ context.Context, note notify.Notification) error {
	n.logger.Info("notification fired", "id", note.ID, "kind", note.Kind, "title", note.Title, "body", note.Body)
	return nil
}

// Multi delivers to every target and joins their errors.
type Multi []notify.Notifier

// Notify implements notify.Notifier.
func (m Multi) Notify(ctx context.Context, note notify.Notification) error {
	var errs []error
	for _, target := range m {
		if target == nil {
			continue
		}
		if err := target.Notify(ctx, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ notify.Notifier = (*LogNotifier)(nil)
	_ notify.Notifier = Multi(nil)
)
