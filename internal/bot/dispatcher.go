package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Handler processes one update.
type Handler interface {
	HandleUpdate(ctx context.Context, upd tgbotapi.Update)
}

// Dispatcher fans updates out to a fixed pool of workers. Updates are
// sharded by user id, so one user's updates are handled in arrival order
// while different users proceed in parallel.
type Dispatcher struct {
	handler Handler
	limiter *Limiter
	workers int
	queue   int
	log     zerolog.Logger

	// onLimited is called for updates dropped by the limiter.
	onLimited func(ctx context.Context, upd tgbotapi.Update)
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithWorkers sets the number of workers. Values < 1 are ignored.
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithQueueSize sets each worker's buffered queue length.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.queue = n
		}
	}
}

// WithLimiter drops updates from users exceeding their rate.
func WithLimiter(l *Limiter) DispatcherOption {
	return func(d *Dispatcher) { d.limiter = l }
}

// WithLogger sets the base logger attached to every update's context.
func WithLogger(l zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

const (
	slowDownText    = "⏳ Slow down a little."
	slowDownMessage = "⏳ Slow down a little. That message was not processed, please send it again."
)

// slowDownEvery is the minimum gap between two slow-down messages to one user.
var slowDownEvery = 10 * time.Second

// NewDispatcher returns a Dispatcher with 8 workers and 64-deep queues.
// When h is a *Bot, rate-limited callback presses are acknowledged so the
// client stops spinning, and a dropped message earns one slow-down reply per
// slowDownEvery so the user knows to resend it.
func NewDispatcher(h Handler, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{handler: h, workers: 8, queue: 64, log: zerolog.Nop()}
	for _, o := range opts {
		o(d)
	}
	if b, ok := h.(*Bot); ok {
		// Only Run's loop calls onLimited, so warned needs no lock.
		warned := map[int64]time.Time{}
		d.onLimited = func(ctx context.Context, upd tgbotapi.Update) {
			switch {
			case upd.CallbackQuery != nil:
				b.answer(ctx, upd.CallbackQuery.ID, slowDownText, false)
			case upd.Message != nil && upd.Message.Chat != nil:
				uid, now := userOf(upd), time.Now()
				if last, ok := warned[uid]; ok && now.Sub(last) < slowDownEvery {
					return
				}
				if len(warned) >= 4096 {
					for id, at := range warned {
						if now.Sub(at) >= slowDownEvery {
							delete(warned, id)
						}
					}
				}
				warned[uid] = now
				b.send(ctx, upd.Message.Chat.ID, slowDownMessage, nil)
			}
		}
	}
	return d
}

// Run consumes updates until ctx is cancelled or updates is closed, then
// waits for queued updates to finish. It returns ctx.Err() on cancellation.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	shards := make([]chan tgbotapi.Update, d.workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan tgbotapi.Update, d.queue)
		wg.Add(1)
		go func(in <-chan tgbotapi.Update) {
			defer wg.Done()
			for upd := range in {
				d.handle(ctx, upd)
			}
		}(shards[i])
	}
	stop := func() {
		for _, s := range shards {
			close(s)
		}
		wg.Wait()
	}

	for {
		select {
		case <-ctx.Done():
			stop()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				stop()
				return nil
			}
			uid := userOf(upd)
			if !d.limiter.Allow(uid) {
				rateLimited.Inc()
				if d.onLimited != nil {
					d.onLimited(d.log.WithContext(ctx), upd)
				}
				continue
			}
			select {
			case shards[shardOf(uid, len(shards))] <- upd:
			case <-ctx.Done():
				stop()
				return ctx.Err()
			}
		}
	}
}

// handle runs the handler with a per-update logger and span, and recovers
// panics so one bad update cannot take a worker down.
func (d *Dispatcher) handle(ctx context.Context, upd tgbotapi.Update) {
	kind := kindOf(upd)
	uid := userOf(upd)

	l := d.log.With().
		Int("update_id", upd.UpdateID).
		Int64("user_id", uid).
		Str("kind", kind).
		Logger()
	ctx = l.WithContext(ctx)

	ctx, span := otel.Tracer("bot/Dispatcher").Start(ctx, "HandleUpdate",
		trace.WithAttributes(
			attribute.Int("update.id", upd.UpdateID),
			attribute.Int64("user.id", uid),
			attribute.String("update.kind", kind),
		))
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			handlerPanics.Inc()
			span.SetStatus(codes.Error, "panic")
			span.RecordError(fmt.Errorf("panic: %v", r))
			l.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("update handler panicked")
		}
		updatesTotal.WithLabelValues(kind).Inc()
		updateDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	d.handler.HandleUpdate(ctx, upd)
	l.Debug().Dur("elapsed", time.Since(start)).Msg("update handled")
}

func userOf(upd tgbotapi.Update) int64 {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		return upd.CallbackQuery.From.ID
	case upd.Message != nil && upd.Message.From != nil:
		return upd.Message.From.ID
	}
	return 0
}

func kindOf(upd tgbotapi.Update) string {
	switch {
	case upd.CallbackQuery != nil:
		return "callback"
	case upd.Message != nil && upd.Message.IsCommand():
		return "command"
	case upd.Message != nil:
		return "message"
	}
	return "other"
}

func shardOf(uid int64, n int) int {
	if uid < 0 {
		uid = -uid
	}
	return int(uid % int64(n))
}
