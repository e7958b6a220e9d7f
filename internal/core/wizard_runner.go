package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var ErrRunnerStopped = errors.New("wizard runner stopped")

// Event is something a visitor asks the wizard to do.
type Event interface {
	event()
}

type EventStart struct {
	Coords *Coordinates
}

type EventSelect struct {
	Label string
	ID    string
}

type EventText struct {
	Text string
}

type EventReset struct{}

func (EventStart) event()  {}
func (EventSelect) event() {}
func (EventText) event()   {}
func (EventReset) event()  {}

type submission struct {
	ctx    context.Context
	event  Event
	result chan error
}

// WizardRunner owns a Wizard and applies events to it one at a time from a
// single goroutine.
type WizardRunner struct {
	wizard     *Wizard
	events     chan submission
	done       chan struct{}
	stopOnce   sync.Once
	busy       atomic.Bool
	lastActive atomic.Int64
}

func NewWizardRunner(w *Wizard) *WizardRunner {
	r := &WizardRunner{
		wizard: w,
		events: make(chan submission),
		done:   make(chan struct{}),
	}
	r.touch()
	go r.loop()
	return r
}

func (r *WizardRunner) Wizard() *Wizard {
	return r.wizard
}

// Submit applies ev and waits for it to finish. A second submission while
// one is in flight fails with ErrWizardBusy.
func (r *WizardRunner) Submit(ctx context.Context, ev Event) error {
	if !r.busy.CompareAndSwap(false, true) {
		return ErrWizardBusy
	}
	r.touch()

	sub := submission{ctx: ctx, event: ev, result: make(chan error, 1)}
	select {
	case r.events <- sub:
	case <-r.done:
		r.busy.Store(false)
		return ErrRunnerStopped
	case <-ctx.Done():
		r.busy.Store(false)
		return ctx.Err()
	}

	select {
	case err := <-sub.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *WizardRunner) loop() {
	for {
		select {
		case sub := <-r.events:
			err := r.dispatch(sub.ctx, sub.event)
			r.touch()
			r.busy.Store(false)
			sub.result <- err
		case <-r.done:
			return
		}
	}
}

func (r *WizardRunner) dispatch(ctx context.Context, ev Event) error {
	switch ev := ev.(type) {
	case EventStart:
		return r.handleStart(ctx, ev)
	case EventSelect:
		return r.handleSelect(ctx, ev)
	case EventText:
		return r.handleText(ctx, ev)
	case EventReset:
		return r.handleReset(ev)
	default:
		return errors.New("unknown wizard event")
	}
}

func (r *WizardRunner) handleStart(ctx context.Context, ev EventStart) error {
	return r.wizard.Start(ctx, ev.Coords)
}

func (r *WizardRunner) handleSelect(ctx context.Context, ev EventSelect) error {
	return r.wizard.Select(ctx, ev.Label, ev.ID)
}

func (r *WizardRunner) handleText(ctx context.Context, ev EventText) error {
	return r.wizard.Text(ctx, ev.Text)
}

func (r *WizardRunner) handleReset(EventReset) error {
	return r.wizard.Reset()
}

func (r *WizardRunner) Busy() bool {
	return r.busy.Load()
}

func (r *WizardRunner) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

func (r *WizardRunner) touch() {
	r.lastActive.Store(time.Now().UnixNano())
}

// Stop ends the loop. It is safe to call more than once.
func (r *WizardRunner) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
}
