package mirror

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Collection names, matching the table each mirror shadows.
const (
	CollectionProducts  = "products"
	CollectionCustomers = "customers"
	CollectionOrders    = "daily_orders"
)

// Notifier carries change notifications between writers and the mirrors.
// Every mutation publishes the name of the collection it touched on the
// owner's channel; each open mirror set subscribes to its owner's channel
// and reloads the named collection when a message arrives.
type Notifier interface {
	Publish(ctx context.Context, ownerID int64, collection string) error
	// Subscribe returns a channel of collection names plus a stop function
	// that tears the subscription down and closes the channel.
	Subscribe(ctx context.Context, ownerID int64) (<-chan string, func(), error)
}

type redisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier returns a Notifier backed by Redis pub/sub.
func NewRedisNotifier(client *redis.Client) Notifier {
	return &redisNotifier{client: client}
}

func channelFor(ownerID int64) string {
	return fmt.Sprintf("sync:%d", ownerID)
}

func (n *redisNotifier) Publish(ctx context.Context, ownerID int64, collection string) error {
	return n.client.Publish(ctx, channelFor(ownerID), collection).Err()
}

func (n *redisNotifier) Subscribe(ctx context.Context, ownerID int64) (<-chan string, func(), error) {
	pubsub := n.client.Subscribe(ctx, channelFor(ownerID))

	// Force the subscription to be established before we return, so no
	// notification published after Subscribe can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			out <- msg.Payload
		}
	}()

	stop := func() { _ = pubsub.Close() }
	return out, stop, nil
}
