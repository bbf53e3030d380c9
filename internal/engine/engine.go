// Package engine wires the rendering core together: it owns the Show
// behind a mutex, drains the command channel, drives the per-frame
// resolver, and feeds resolved multiverse snapshots to the sACN
// transmitter.
package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lumenstage/lumen/internal/command"
	"github.com/lumenstage/lumen/internal/dmx"
	"github.com/lumenstage/lumen/internal/pubsub"
	"github.com/lumenstage/lumen/internal/resolver"
	"github.com/lumenstage/lumen/internal/sacn"
	"github.com/lumenstage/lumen/internal/show"
)

// ErrClosed is returned by Execute once the engine has shut down.
var ErrClosed = errors.New("engine: closed")

// ioStatusEvery is how many frames pass between IoStatus events.
const ioStatusEvery = 100

// Options configures a new Engine.
type Options struct {
	// FrameInterval is the resolver cadence. Zero means 40 ms (25 Hz).
	FrameInterval time.Duration
	// CommandQueueLen bounds the command channel. Zero means 256.
	CommandQueueLen int
	// Sources lists the sACN sources to transmit on. Empty disables
	// transmission (the resolver still runs).
	Sources []sacn.SourceConfig
	// CID is the persisted source component identifier shared by all
	// sources.
	CID sacn.CID
}

type envelope struct {
	cmd   command.Command
	reply chan error
}

// Engine is the running rendering core.
type Engine struct {
	frameInterval time.Duration

	mu  sync.Mutex // guards shw
	shw *show.Show

	commands chan envelope
	events   *pubsub.Broker

	outMu         sync.Mutex
	out           *dmx.Multiverse
	lastDmxOutput time.Time

	transmitter *sacn.Transmitter
}

// New builds an Engine over s. Events observers subscribe through
// events; commands enter through Execute.
func New(s *show.Show, events *pubsub.Broker, opts Options) (*Engine, error) {
	interval := opts.FrameInterval
	if interval <= 0 {
		interval = sacn.FrameInterval
	}
	queueLen := opts.CommandQueueLen
	if queueLen <= 0 {
		queueLen = 256
	}

	e := &Engine{
		frameInterval: interval,
		shw:           s,
		commands:      make(chan envelope, queueLen),
		events:        events,
		out:           dmx.NewMultiverse(),
	}

	if len(opts.Sources) > 0 {
		transmitter, err := sacn.NewTransmitter(opts.Sources, opts.CID, e.Snapshot)
		if err != nil {
			return nil, err
		}
		e.transmitter = transmitter
	}
	return e, nil
}

// Execute applies cmd on the engine's command goroutine and returns its
// result. Commands from one caller apply in submission order.
func (e *Engine) Execute(ctx context.Context, cmd command.Command) error {
	env := envelope{cmd: cmd, reply: make(chan error, 1)}
	select {
	case e.commands <- env:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-env.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a clone of the most recently resolved multiverse,
// owned by the caller.
func (e *Engine) Snapshot() *dmx.Multiverse {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	return e.out.Clone()
}

// Events returns the engine's event broker.
func (e *Engine) Events() *pubsub.Broker {
	return e.events
}

// Run starts the resolver, command, and transmitter goroutines, blocking
// until ctx is cancelled. In-flight commands are drained on shutdown.
func (e *Engine) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return e.resolverLoop(ctx) })
	group.Go(func() error { return e.commandLoop(ctx) })
	if e.transmitter != nil {
		group.Go(func() error { return e.transmitter.Run(ctx) })
	}
	log.Printf("🎭 Engine running: %v frame interval", e.frameInterval)
	return group.Wait()
}

// resolverLoop ticks at the frame interval and resolves the show into
// the shared snapshot slot. A tick that cannot take the show mutex
// immediately (a command burst holds it) is skipped rather than letting
// frames queue up behind the lock.
func (e *Engine) resolverLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.frameInterval)
	defer ticker.Stop()

	var frames uint64
	var skipped uint64

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if !e.mu.TryLock() {
			skipped++
			log.Printf("🎭 resolver: frame skipped, show busy (%d skipped total)", skipped)
			continue
		}
		now := time.Now()
		multiverse := resolver.Tick(e.shw, now)
		e.mu.Unlock()

		e.outMu.Lock()
		e.out = multiverse
		e.lastDmxOutput = now
		e.outMu.Unlock()

		frames++
		if frames%ioStatusEvery == 0 {
			e.events.Publish(pubsub.Event{Kind: pubsub.EventIoStatus, LastDmxOutput: now})
		}
	}
}

// commandLoop serializes all show mutations: one command at a time, each
// holding the show mutex only while it applies.
func (e *Engine) commandLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			e.drain()
			return nil
		case env := <-e.commands:
			env.reply <- e.apply(env.cmd)
		}
	}
}

func (e *Engine) apply(cmd command.Command) error {
	e.mu.Lock()
	events, err := cmd.Apply(e.shw)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	for _, event := range events {
		e.events.Publish(event)
	}
	return nil
}

// drain flushes commands still queued at shutdown so no submitter hangs
// on a reply.
func (e *Engine) drain() {
	for {
		select {
		case env := <-e.commands:
			env.reply <- ErrClosed
		default:
			return
		}
	}
}
