package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T) *Notifier {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewNotifier(rdb)
}

func TestChannelNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "blog:post:42", PostChannel(42))
	assert.Equal(t, "typing:post:42", TypingChannel(42))
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := NewNotifier(nil)

	assert.NoError(t, n.PublishPostEvent(ctx, 1, `{}`))
	assert.NoError(t, n.PublishTyping(ctx, 1, `{}`))
	assert.NoError(t, n.StartBlogSubscriber(ctx, func(string, string) {
		t.Fatal("no messages expected without redis")
	}))
}

func TestNotifier_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := newTestNotifier(t)

	type received struct{ channel, payload string }
	got := make(chan received, 16)
	require.NoError(t, n.StartBlogSubscriber(ctx, func(channel, payload string) {
		got <- received{channel, payload}
	}))

	// PSubscribe is asynchronous; keep publishing until the subscriber is
	// wired up and the message comes through.
	waitFor := func(wantChannel, wantPayload string, publish func() error) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			require.NoError(t, publish())
			select {
			case msg := <-got:
				if msg.channel != wantChannel {
					continue
				}
				assert.Equal(t, wantPayload, msg.payload)
				return
			case <-time.After(50 * time.Millisecond):
			case <-deadline:
				t.Fatalf("no message arrived on %s", wantChannel)
			}
		}
	}

	waitFor("blog:post:7", `{"type":"new_comment"}`, func() error {
		return n.PublishPostEvent(ctx, 7, `{"type":"new_comment"}`)
	})
	waitFor("typing:post:7", `{"type":"user_typing"}`, func() error {
		return n.PublishTyping(ctx, 7, `{"type":"user_typing"}`)
	})
}

func TestHubSubscriberDeliversToRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := newTestNotifier(t)
	hub := NewBlogHub()
	require.NoError(t, hub.StartWiring(ctx, n))

	watcher := mustRegister(t, hub, 1)
	bystander := mustRegister(t, hub, 2)
	hub.JoinBlog(watcher, 7)
	hub.JoinBlog(bystander, 8)

	deadline := time.After(5 * time.Second)
	for {
		require.NoError(t, n.PublishPostEvent(ctx, 7, `{"type":"new_comment","payload":{"id":1}}`))
		select {
		case msg := <-watcher.Send:
			assert.JSONEq(t, `{"type":"new_comment","payload":{"id":1}}`, string(msg))
			assert.Empty(t, drain(bystander))
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("event never reached the room")
		}
	}
}
