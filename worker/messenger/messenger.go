package messenger

import (
	"context"
	"errors"
	"sync"

	"termpool/core"
	"termpool/worker"

	"github.com/fox-one/pkg/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Messenger drains the notification queue and posts each message to
// the notifier webhook. At most one in-flight message per user per
// round keeps deliveries for the same user in order.
type Messenger struct {
	worker.TickWorker
	messageStore core.IMessageStore
	messagez     core.IMessageService
	cfg          Config
}

type Config struct {
	Batch    int   `json:"batch" valid:"required"`
	Capacity int64 `json:"capacity" valid:"required"`
}

// New new messenger worker
func New(messages core.IMessageStore, messagez core.IMessageService, cfg Config) *Messenger {
	if cfg.Batch <= 0 {
		cfg.Batch = 70
	}

	if cfg.Capacity <= 0 {
		cfg.Capacity = 5
	}

	messenger := Messenger{
		messageStore: messages,
		messagez:     messagez,
		cfg:          cfg,
	}

	return &messenger
}

// Run run worker
func (w *Messenger) Run(ctx context.Context) error {
	return w.StartTick(ctx, func(ctx context.Context) error {
		return w.onWork(ctx)
	})
}

func (w *Messenger) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "messenger")
	const limit = 300

	messages, err := w.messageStore.List(ctx, limit)
	if err != nil {
		log.WithError(err).Error("messages.List")
		return err
	}

	if len(messages) == 0 {
		return errors.New("list messages: EOF")
	}

	filter := make(map[string]bool)
	var idx int

	for _, msg := range messages {
		if filter[msg.UserID] {
			continue
		}

		messages[idx] = msg
		filter[msg.UserID] = true
		idx++

		if idx >= w.cfg.Batch {
			break
		}
	}

	messages = messages[:idx]

	var (
		mux       sync.Mutex
		delivered = make([]*core.Message, 0, len(messages))
	)

	sem := semaphore.NewWeighted(w.cfg.Capacity)
	g := errgroup.Group{}

	for idx := range messages {
		msg := messages[idx]

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		g.Go(func() error {
			defer sem.Release(1)

			if err := w.messagez.Send(ctx, msg); err != nil {
				return err
			}

			mux.Lock()
			delivered = append(delivered, msg)
			mux.Unlock()
			return nil
		})
	}

	err = g.Wait()

	if len(delivered) > 0 {
		if derr := w.messageStore.Delete(ctx, delivered); derr != nil {
			log.WithError(derr).Error("messages.Delete")
			return derr
		}
	}

	if err != nil {
		log.WithError(err).Error("messagez.Send")
	}

	return err
}
