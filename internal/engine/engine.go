// Package engine applies social commands to the store. Each command runs in
// its own storage transaction: it either commits fully or leaves no trace.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"gator-social/internal/events"
	"gator-social/internal/logging"
	"gator-social/internal/models"
	"gator-social/internal/scoring"
	"gator-social/internal/storage"
	"gator-social/internal/utils"

	"go.uber.org/zap"
)

// Params are the chain-level limits and scoring weights.
type Params struct {
	HandleMinLen   int
	HandleMaxLen   int
	ContentHashLen int
	// StrictCID additionally requires content hashes to parse as a CID.
	StrictCID      bool
	UsernameMinLen int
	UsernameMaxLen int
	Weights        scoring.Weights
}

func DefaultParams() Params {
	return Params{
		HandleMinLen:   5,
		HandleMaxLen:   50,
		ContentHashLen: 46,
		UsernameMinLen: 3,
		UsernameMaxLen: 50,
		Weights:        scoring.DefaultWeights(),
	}
}

type Options struct {
	Params  Params
	Sink    events.Sink
	Logger  *zap.Logger
	Metrics *utils.MetricsCollector
	Clock   func() time.Time
}

type Engine struct {
	mu      sync.RWMutex
	backend storage.Backend
	params  Params
	sink    events.Sink
	logger  *zap.Logger
	metrics *utils.MetricsCollector
	clock   func() time.Time
}

func New(backend storage.Backend, opts Options) *Engine {
	if opts.Sink == nil {
		opts.Sink = events.Discard{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = utils.NewMetricsCollector()
	}
	return &Engine{
		backend: backend,
		params:  opts.Params,
		sink:    opts.Sink,
		logger:  logging.OrNop(opts.Logger).Named("engine"),
		metrics: opts.Metrics,
		clock:   opts.Clock,
	}
}

func (e *Engine) Params() Params {
	return e.params
}

// exec runs one command. Commands never interleave; events are published
// only after the transaction commits.
func (e *Engine) exec(ctx context.Context, name string, actor models.Actor, fn func(o *op) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	tx := storage.NewTx(ctx, e.backend)
	o, err := e.begin(tx, actor)
	if err == nil {
		err = fn(o)
	}
	if err == nil {
		err = o.flush()
	}
	if err == nil {
		err = tx.Commit()
	}
	e.metrics.AddOperationLatency(name, time.Since(start))

	if err != nil {
		tx.Discard()
		appErr := asAppError(err)
		e.metrics.RecordCommand(name, appErr.Code)
		level := zap.InfoLevel
		if appErr.Code == utils.ErrStorage || appErr.Code == utils.ErrInvariantViolation {
			level = zap.ErrorLevel
		}
		e.logger.Log(level, "Command rejected",
			zap.String("op", name),
			zap.Stringer("account", actor.Account),
			zap.String("code", appErr.Code),
			zap.Error(err))
		return appErr
	}

	e.metrics.RecordCommand(name, "ok")
	e.logger.Debug("Command committed",
		zap.String("op", name),
		zap.Uint64("block", o.change.Block),
		zap.Int("events", len(o.events)))
	for _, ev := range o.events {
		e.sink.Publish(ev)
	}
	return nil
}

// read runs a query against a throwaway transaction.
func (e *Engine) read(ctx context.Context, fn func(tx *storage.Tx) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	tx := storage.NewTx(ctx, e.backend)
	defer tx.Discard()
	if err := fn(tx); err != nil {
		return asAppError(err)
	}
	return nil
}

func asAppError(err error) *utils.AppError {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return utils.NewAppError(utils.ErrStorage, "store failure", err)
}
