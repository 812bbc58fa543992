package ports

import (
	"context"

	"github.com/mikey-austin/simplert/pkg/rtproto"
)

// Broker publishes commands and reads retained presence.
type Broker interface {
	ReplyTopic() string
	PublishCommand(ctx context.Context, nodeID string, cmd rtproto.CommandEnvelope) (rtproto.ReplyEnvelope, error)
	ListPresence(ctx context.Context) ([]rtproto.Presence, error)
}

// Clock returns the current unix time in seconds.
type Clock interface {
	NowUnix() int64
}

// IDGen returns unique correlation IDs.
type IDGen interface {
	NewID() string
}
