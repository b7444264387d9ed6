// Package sensorfeed carries the shared sensor reading to subscribers, either in
// process or across replicas through Valkey pub/sub.
package sensorfeed

import "github.com/yanqian/suncare/internal/domain/sensor"

// Shared is a feed that also accepts and serves the latest reading.
type Shared interface {
	sensor.Feed
	sensor.Publisher
	sensor.LatestReader
}

var (
	_ Shared = (*Broadcaster)(nil)
	_ Shared = (*ValkeyFeed)(nil)
)
