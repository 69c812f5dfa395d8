package notifications

import (
	"context"
	"log"
	"runtime/debug"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes blog events into Redis channels. A nil Redis client
// turns every publish into a no-op so the API keeps working without Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishPostEvent sends a comment lifecycle event to a post's channel.
func (n *Notifier) PublishPostEvent(ctx context.Context, postID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, PostChannel(postID), payload).Err()
}

// PublishTyping sends a typing indicator to a post's typing channel.
func (n *Notifier) PublishTyping(ctx context.Context, postID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, TypingChannel(postID), payload).Err()
}

// StartBlogSubscriber subscribes to blog:post:* and typing:post:* and calls
// onMessage for each incoming message.
func (n *Notifier) StartBlogSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "blog:post:*", "typing:post:*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in BlogSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// PostChannel derives the Redis channel name for a post's comment events.
func PostChannel(postID uint) string {
	return "blog:post:" + strconv.FormatUint(uint64(postID), 10)
}

// TypingChannel derives the Redis channel name for a post's typing events.
func TypingChannel(postID uint) string {
	return "typing:post:" + strconv.FormatUint(uint64(postID), 10)
}
