package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nstonic/Fish-bot/core/logger"
	"github.com/nstonic/Fish-bot/core/serial"
	"github.com/nstonic/Fish-bot/shop/storage"
)

// DispatcherOptions sizes the per-chat executor.
type DispatcherOptions struct {
	Workers   int
	QueueSize int
}

// Dispatcher serializes events per chat, loads and persists sessions and
// applies the failure policy around Machine.Step.
type Dispatcher struct {
	machine *Machine
	store   storage.Store
	msg     Messenger
	alerter Alerter
	exec    *serial.Executor
}

// NewDispatcher starts the executor. alerter may be nil.
func NewDispatcher(machine *Machine, store storage.Store, msg Messenger, alerter Alerter, opts DispatcherOptions) *Dispatcher {
	return &Dispatcher{
		machine: machine,
		store:   store,
		msg:     msg,
		alerter: alerter,
		exec:    serial.New(serial.Options{Shards: opts.Workers, QueueSize: opts.QueueSize}),
	}
}

// Dispatch queues ev behind earlier events of the same chat. It returns once
// the event is queued, not handled.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	return d.exec.Submit(ctx, ev.ChatID, func(ctx context.Context) {
		_ = d.Handle(ctx, ev)
	})
}

// Close waits for queued events and stops the workers.
func (d *Dispatcher) Close() {
	d.exec.Close()
}

// Handle runs one event to completion on the calling goroutine. The session
// is written only when the transition succeeded.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	start := time.Now()
	sess, found, err := d.store.GetSession(ctx, ev.ChatID)
	if err != nil {
		err = fmt.Errorf("load session: %w", err)
		d.fail(ctx, ev, storage.Session{}, err)
		return err
	}
	if !found {
		sess = storage.Session{State: storage.StateStart}
	}

	next, err := d.machine.Step(ctx, sess, ev)
	if err != nil {
		d.fail(ctx, ev, sess, err)
		return err
	}

	if err := d.store.SetSession(ctx, ev.ChatID, next); err != nil {
		err = fmt.Errorf("save session: %w", err)
		logger.Error(ctx, logger.CompDispatch, "session.save",
			slog.String("state", sess.State.String()),
			slog.String("next_state", next.State.String()),
			slog.Any("err", err),
		)
		d.alert(ctx, ev, err)
		return err
	}

	logger.Info(ctx, logger.CompDispatch, "transition.done",
		slog.String("state", sess.State.String()),
		slog.String("next_state", next.State.String()),
		slog.String("action", Route(sess.State, ev).Kind.String()),
		slog.String("status", "ok"),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// fail tells the user something went wrong and reports err. The session is
// left untouched.
func (d *Dispatcher) fail(ctx context.Context, ev Event, sess storage.Session, err error) {
	level := slog.LevelError
	if !IsRemoteFailure(err) {
		level = slog.LevelWarn
	}
	logger.Event(ctx, logger.CompDispatch, level, "transition.failed",
		slog.String("state", sess.State.String()),
		slog.String("kind", ev.Kind.String()),
		slog.String("status", "fail"),
		slog.String("err_code", ErrorCode(err)),
		slog.Any("err", err),
	)

	if ev.Kind == EventCallback && ev.CallbackID != "" {
		if aerr := d.msg.AnswerCallback(ctx, ev.CallbackID, ""); aerr != nil {
			logger.Warn(ctx, logger.CompDispatch, "notice.answer", slog.Any("err", aerr))
		}
	}
	if _, nerr := d.msg.SendMessage(ctx, ev.ChatID, TextFailure, nil); nerr != nil {
		logger.Warn(ctx, logger.CompDispatch, "notice.send", slog.Any("err", nerr))
	}
	d.alert(ctx, ev, err)
}

func (d *Dispatcher) alert(ctx context.Context, ev Event, err error) {
	if d.alerter == nil {
		return
	}
	d.alerter.Alert(ctx, fmt.Sprintf("chat %d user %d, %s %q: %v",
		ev.ChatID, ev.UserID, ev.Kind, logger.SanitizeLimit(ev.Payload, 64), err))
}
