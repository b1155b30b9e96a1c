package persist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/go-playground/validator/v10"
)

const defaultWriteTimeout = 5 * time.Second

// SyncerParams wires a Syncer to its gateway and observability.
type SyncerParams struct {
	Gateway       Gateway
	Key           string
	Logger        *logger.Logger
	Metrics       *metrics.PersistenceMetrics
	WriteTimeout  time.Duration
	CoalesceDelay time.Duration
}

// Syncer persists JSON array snapshots of T under one key.
//
// Schedule never blocks: it replaces the pending snapshot and wakes a single
// writer goroutine, so a burst of mutations collapses into one trailing
// write of the newest state. Write failures are logged and counted, never
// returned to the caller of Schedule.
type Syncer[T any] struct {
	gateway       Gateway
	key           string
	logg          *logger.Logger
	metrics       *metrics.PersistenceMetrics
	validate      *validator.Validate
	writeTimeout  time.Duration
	coalesceDelay time.Duration

	mu         sync.Mutex
	pending    []T
	hasPending bool
	scheduled  uint64
	written    uint64
	lastErr    error
	progress   chan struct{}
	closed     bool

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSyncer validates params and starts the writer goroutine. Call Close to stop it.
func NewSyncer[T any](params SyncerParams) (*Syncer[T], error) {
	if params.Gateway == nil {
		return nil, errors.New("gateway required")
	}
	if params.Key == "" {
		return nil, errors.New("snapshot key required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	timeout := params.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	s := &Syncer[T]{
		gateway:       params.Gateway,
		key:           params.Key,
		logg:          logg,
		metrics:       params.Metrics,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		writeTimeout:  timeout,
		coalesceDelay: params.CoalesceDelay,
		progress:      make(chan struct{}),
		wake:          make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Key returns the gateway key this syncer owns.
func (s *Syncer[T]) Key() string {
	return s.key
}

// Load reads and decodes the persisted snapshot. A missing key yields an empty
// slice and no error. Entries that fail to decode or fail their `validate`
// tags are dropped; a value that is not a JSON array is an error.
func (s *Syncer[T]) Load(ctx context.Context) ([]T, error) {
	ctx = s.logg.WithField(ctx, "snapshot_key", s.key)

	raw, err := s.gateway.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		s.metrics.ObserveHydration(s.key, metrics.HydrationEmpty)
		return nil, nil
	}
	if err != nil {
		s.metrics.ObserveHydration(s.key, metrics.HydrationFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "read snapshot")
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.metrics.ObserveHydration(s.key, metrics.HydrationFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "snapshot is not a json array")
	}

	items := make([]T, 0, len(entries))
	dropped := 0
	for i, entry := range entries {
		var item T
		if err := json.Unmarshal(entry, &item); err != nil {
			dropped++
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"index": i, "reason": err.Error()}), "dropping undecodable snapshot entry")
			continue
		}
		if err := s.validateEntry(item); err != nil {
			dropped++
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"index": i, "reason": err.Error()}), "dropping invalid snapshot entry")
			continue
		}
		items = append(items, item)
	}
	s.metrics.AddDropped(s.key, dropped)

	if len(items) == 0 {
		s.metrics.ObserveHydration(s.key, metrics.HydrationEmpty)
	} else {
		s.metrics.ObserveHydration(s.key, metrics.HydrationLoaded)
	}
	return items, nil
}

func (s *Syncer[T]) validateEntry(item T) error {
	err := s.validate.Struct(item)
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// T is not a struct; nothing to check.
		return nil
	}
	return err
}

// Schedule queues items as the next snapshot. The slice is owned by the
// syncer afterwards and must not be modified by the caller.
func (s *Syncer[T]) Schedule(items []T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logg.Warn(s.logg.WithField(context.Background(), "snapshot_key", s.key), "snapshot scheduled after close; dropping")
		return
	}
	s.pending = items
	s.hasPending = true
	s.scheduled++
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every snapshot scheduled before the call has been
// attempted, and returns the error of the most recent attempt.
func (s *Syncer[T]) Flush(ctx context.Context) error {
	s.mu.Lock()
	target := s.scheduled
	for s.written < target {
		progress := s.progress
		s.mu.Unlock()
		select {
		case <-progress:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
	}
	err := s.lastErr
	s.mu.Unlock()
	return err
}

// Close writes any pending snapshot and stops the writer goroutine.
func (s *Syncer[T]) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stop)
	})

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Syncer[T]) run() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.coalesce()
			s.writePending()
		case <-s.stop:
			s.writePending()
			return
		}
	}
}

func (s *Syncer[T]) coalesce() {
	if s.coalesceDelay <= 0 {
		return
	}
	timer := time.NewTimer(s.coalesceDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.stop:
	}
}

func (s *Syncer[T]) writePending() {
	s.mu.Lock()
	if !s.hasPending {
		s.mu.Unlock()
		return
	}
	items := s.pending
	generation := s.scheduled
	s.pending = nil
	s.hasPending = false
	s.mu.Unlock()

	err := s.write(items)

	s.mu.Lock()
	s.written = generation
	s.lastErr = err
	close(s.progress)
	s.progress = make(chan struct{})
	s.mu.Unlock()
}

func (s *Syncer[T]) write(items []T) error {
	if items == nil {
		items = []T{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	ctx = s.logg.WithFields(ctx, map[string]any{"snapshot_key": s.key, "items": len(items)})

	start := time.Now()
	payload, err := json.Marshal(items)
	if err == nil {
		err = s.gateway.Set(ctx, s.key, string(payload))
	}
	s.metrics.ObserveWrite(s.key, time.Since(start), err)

	if err != nil {
		err = pkgerrors.Wrap(pkgerrors.CodePersistence, err, "write snapshot")
		s.logg.Error(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "snapshot write failed", err)
		return err
	}
	s.logg.Debug(ctx, "snapshot written")
	return nil
}
