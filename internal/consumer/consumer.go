// Package consumer implements the application log consumer: a resumable
// reader over the event store's append log that drives a callback for
// every entry and, unless told otherwise, persists its own progress so a
// restart resumes where it left off.
package consumer

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/makkalot/eskit/internal/eventstoreclient"
	apperrors "github.com/makkalot/eskit/internal/pkg/errors"
	"github.com/makkalot/eskit/internal/pkg/logger"
	"github.com/makkalot/eskit/internal/pkg/worker"
)

// Offset selects where a consumer with no prior progress starts reading.
type Offset int

const (
	// FromBeginning starts at the first entry in the log.
	FromBeginning Offset = iota
	// FromSaved resumes from the consumer's last saved offset, falling
	// back to FromBeginning if none was ever saved.
	FromSaved
)

// Callback processes a single log entry. An error stops the consume loop.
type Callback func(ctx context.Context, entry eventstoreclient.LogEntry) error

// EventLog is the streaming source the consumer reads from.
type EventLog interface {
	LogsPoll(ctx context.Context, fromID, selector string) (<-chan eventstoreclient.LogEntry, <-chan error)
}

// OffsetStore persists and retrieves a consumer's last processed log id.
type OffsetStore interface {
	SaveOffset(ctx context.Context, consumerID, offset string) error
	GetOffset(ctx context.Context, consumerID string) (string, error)
}

// excludes lists entity-type prefixes the consumer silently skips, so a
// consumer can't be driven by its own progress-tracking writes.
var excludes = map[string]bool{"LogConsumer": true}

// ApplicationLogConsumer drives cb for every non-excluded entry in the
// append log, optionally persisting progress after each one.
type ApplicationLogConsumer struct {
	eventLog     EventLog
	offsetStore  OffsetStore
	consumerName string
	cb           Callback
	offset       Offset
	selector     string
	saveProgress bool
}

// Option configures an ApplicationLogConsumer.
type Option func(*ApplicationLogConsumer)

// WithOffset sets the starting offset strategy. Default is FromBeginning.
func WithOffset(o Offset) Option {
	return func(c *ApplicationLogConsumer) { c.offset = o }
}

// WithSelector sets the log selector. Default is "*" (everything).
func WithSelector(selector string) Option {
	return func(c *ApplicationLogConsumer) { c.selector = selector }
}

// WithSaveProgress toggles whether progress is persisted after each
// processed entry. Default is true.
func WithSaveProgress(save bool) Option {
	return func(c *ApplicationLogConsumer) { c.saveProgress = save }
}

// New builds an ApplicationLogConsumer named consumerName, calling cb for
// every entry it reads.
func New(eventLog EventLog, offsetStore OffsetStore, consumerName string, cb Callback, opts ...Option) *ApplicationLogConsumer {
	c := &ApplicationLogConsumer{
		eventLog:     eventLog,
		offsetStore:  offsetStore,
		consumerName: consumerName,
		cb:           cb,
		offset:       FromBeginning,
		selector:     "*",
		saveProgress: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consume runs the read loop until ctx is cancelled or the stream ends.
// It is at-least-once: cb may be invoked again for an entry whose offset
// was processed but not yet saved before a crash.
func (c *ApplicationLogConsumer) Consume(ctx context.Context) error {
	startID, err := c.findConsumerOffset(ctx)
	if err != nil {
		return err
	}

	entries, errs := c.eventLog.LogsPoll(ctx, startID, c.selector)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if ok && err != nil {
				return err
			}
		case entry, ok := <-entries:
			if !ok {
				return nil
			}

			entityType := strings.SplitN(entry.Event.EventType, ".", 2)[0]
			if excludes[entityType] {
				continue
			}

			if err := c.cb(ctx, entry); err != nil {
				logger.Error("consumer callback failed",
					zap.String("consumer", c.consumerName),
					zap.String("entry_id", entry.Id),
					zap.Error(err),
				)
				return err
			}

			if !c.saveProgress {
				continue
			}
			if err := c.offsetStore.SaveOffset(ctx, c.consumerName, entry.Id); err != nil {
				return apperrors.Wrap(err, apperrors.KindInternal, "save consumer progress")
			}
		}
	}
}

// ConsumeAsync runs Consume on a dedicated single-worker pool and returns
// immediately, mirroring the original's ThreadPoolExecutor(max_workers=1).
// The caller is responsible for releasing the returned pool once the
// returned error channel is drained.
func (c *ApplicationLogConsumer) ConsumeAsync(ctx context.Context) (*worker.Pool, <-chan error, error) {
	pool, err := worker.NewSingle(c.consumerName)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.KindInternal, "create consumer pool")
	}

	done := make(chan error, 1)
	if err := pool.Submit(ctx, func(ctx context.Context) {
		done <- c.Consume(ctx)
	}); err != nil {
		pool.Release()
		return nil, nil, apperrors.Wrap(err, apperrors.KindInternal, "submit consumer task")
	}

	return pool, done, nil
}

func (c *ApplicationLogConsumer) findConsumerOffset(ctx context.Context) (string, error) {
	if c.offset == FromBeginning {
		return "1", nil
	}

	saved, err := c.offsetStore.GetOffset(ctx, c.consumerName)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return "1", nil
		}
		return "", err
	}

	n, err := strconv.Atoi(saved)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindInvalidArgument, "saved offset is not numeric")
	}
	return strconv.Itoa(n + 1), nil
}
