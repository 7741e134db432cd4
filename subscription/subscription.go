package subscription

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Publisher sends notices to every instance listening on the channel.
type Publisher struct {
	rc      *redis.Client
	channel string
}

func NewPublisher(rc *redis.Client, channel string) *Publisher {
	return &Publisher{rc: rc, channel: channel}
}

func (p *Publisher) Publish(ctx context.Context, n Notice) error {
	data, err := sonic.Marshal(n)
	if err != nil {
		return err
	}
	return p.rc.Publish(ctx, p.channel, data).Err()
}

// SubscribeUpdates listens for workspace notices and hands them to broadcast.
// It resubscribes when the channel closes and returns once ctx is done.
func SubscribeUpdates(
	ctx context.Context,
	logger echo.Logger,
	rc *redis.Client,
	channel string,
	broadcast func(Notice),
) {
	for {
		sub := rc.Subscribe(ctx, channel)
		receive(ctx, logger, sub.Channel(), broadcast)
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Error("pubsub channel closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func receive(ctx context.Context, logger echo.Logger, ch <-chan *redis.Message, broadcast func(Notice)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var n Notice
			if err := sonic.UnmarshalString(msg.Payload, &n); err != nil {
				logger.Errorf("unable to parse notice: %v", err)
				continue
			}
			if n.UserID == "" {
				logger.Warnf("notice without user on %s - ignoring it", msg.Channel)
				continue
			}
			broadcast(n)
		}
	}
}
