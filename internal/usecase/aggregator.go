// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/oferdebug/projectzen/internal/domain"
	"github.com/oferdebug/projectzen/internal/gateway"
)

// ErrClosed is returned by Compute after Close.
var ErrClosed = errors.New("aggregator is closed")

// Status is the lifecycle state of an Aggregator.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is a point-in-time copy of the aggregator's observable fields.
type State struct {
	Status Status
	// RepositoryID is the repository Metrics were computed for.
	RepositoryID string
	// RequestedID is the repository of the latest issued Compute.
	RequestedID string
	Metrics     *domain.ProjectMetrics // nil until the first successful Compute
	IsLoading   bool
	Err         error
}

// Aggregator is the use case for computing repository health metrics.
// It orchestrates the fetch and the calculators, and owns the current
// metrics together with their loading and error state.
type Aggregator struct {
	fetcher   gateway.Fetcher
	logger    *log.Logger
	now       func() time.Time
	calculate func(domain.RepositoryData, time.Time) domain.ProjectMetrics

	mu          sync.Mutex
	seq         uint64 // last issued request token
	status      Status
	requestedID string
	repoID      string // owner of metrics
	metrics     *domain.ProjectMetrics
	err         error
	closed      bool
	inFlight    int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock sets the clock the activity calculator measures against.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithCalculator replaces the function that turns repository data into metrics.
func WithCalculator(calculate func(domain.RepositoryData, time.Time) domain.ProjectMetrics) Option {
	return func(a *Aggregator) {
		a.calculate = calculate
	}
}

// NewAggregator creates a new Aggregator instance in the Idle state.
func NewAggregator(fetcher gateway.Fetcher, logger *log.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher:   fetcher,
		logger:    logger,
		now:       time.Now,
		calculate: domain.Calculate,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compute fetches the repository and recomputes every metrics group.
//
// Only the most recently issued Compute may commit its outcome; a call that
// was superseded while in flight still returns its own result to its caller
// but leaves the state untouched. On failure the previous metrics are kept.
func (a *Aggregator) Compute(ctx context.Context, repositoryID string) (*domain.ProjectMetrics, error) {
	token, err := a.begin(repositoryID)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Usecase: Starting metrics computation...", "repo", repositoryID, "request", token)

	metrics, err := a.run(ctx, repositoryID)

	if !a.commit(token, repositoryID, metrics, err) {
		a.logger.Debug("Usecase: Discarding superseded result.", "repo", repositoryID, "request", token)
	}
	if err != nil {
		a.logger.Error("Failed to calculate metrics", "repo", repositoryID, "err", err)
		return nil, err
	}
	a.logger.Info("Usecase: Metrics computation complete.", "repo", repositoryID)
	return copyMetrics(metrics), nil
}

func (a *Aggregator) begin(repositoryID string) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return 0, ErrClosed
	}
	a.seq++
	a.inFlight++
	a.status = StatusLoading
	a.requestedID = repositoryID
	a.err = nil
	return a.seq, nil
}

// run performs the fetch and the four calculators. Fetch errors are returned
// unmodified.
func (a *Aggregator) run(ctx context.Context, repositoryID string) (metrics *domain.ProjectMetrics, err error) {
	data, err := a.fetcher.FetchRepository(ctx, repositoryID)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			metrics, err = nil, fmt.Errorf("metrics calculation panicked: %v", r)
		}
	}()
	m := a.calculate(*data, a.now())
	return &m, nil
}

// commit stores the outcome when token is still the latest request.
func (a *Aggregator) commit(token uint64, repositoryID string, metrics *domain.ProjectMetrics, err error) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.inFlight--
	if a.closed || token != a.seq {
		return false
	}
	if err != nil {
		a.status = StatusFailed
		a.err = err
		return true
	}
	a.status = StatusReady
	a.repoID = repositoryID
	a.metrics = metrics
	return true
}

// Refresh replaces each metrics group present in partial. It does nothing
// when no metrics have been computed yet and never changes status or error.
func (a *Aggregator) Refresh(partial domain.PartialMetrics) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.metrics == nil {
		return
	}
	merged := a.metrics.Merge(partial)
	a.metrics = &merged
}

// Snapshot returns a copy of the current state.
func (a *Aggregator) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	return State{
		Status:       a.status,
		RepositoryID: a.repoID,
		RequestedID:  a.requestedID,
		Metrics:      copyMetrics(a.metrics),
		IsLoading:    a.status == StatusLoading,
		Err:          a.err,
	}
}

// Close drops the metrics and rejects further computations. Calls still in
// flight finish but do not commit.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	a.closed = true
	a.metrics = nil
	a.repoID = ""
	a.requestedID = ""
	a.err = nil
	a.status = StatusIdle
	a.logger.Debug("Usecase: Aggregator closed.", "in_flight", a.inFlight)
}

func copyMetrics(m *domain.ProjectMetrics) *domain.ProjectMetrics {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}
