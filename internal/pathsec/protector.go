package pathsec

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/yaniv-golan/ostruct-go/core"
)

// Protector is the admission-control wrapper around symlink resolution. It
// bounds how many resolutions run at once, and how much filesystem work and
// wall-clock time any single resolution may consume.
//
// Admission is hard: excess requests are rejected immediately, never queued.
type Protector struct {
	limits core.Limits
	sem    *semaphore.Weighted
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]*Request
}

// NewProtector creates a Protector with the given limits.
func NewProtector(limits core.Limits, logger *slog.Logger) *Protector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limits = limits.Normalize()
	return &Protector{
		limits:   limits,
		sem:      semaphore.NewWeighted(int64(limits.MaxConcurrent)),
		logger:   logger,
		inflight: make(map[string]*Request),
	}
}

// Acquire registers a new resolution request. It fails with a concurrency
// error if in-flight requests already equal the configured ceiling.
// The caller must Release the request on every exit path.
func (p *Protector) Acquire(path string) (*Request, error) {
	if !p.sem.TryAcquire(1) {
		p.logger.Debug("resolution rejected: concurrency ceiling", "path", path)
		return nil, core.NewSecurityError(core.ReasonConcurrencyLimitExceeded, path)
	}
	req := &Request{
		id:      uuid.NewString(),
		path:    path,
		started: time.Now(),
		p:       p,
	}
	p.mu.Lock()
	p.inflight[req.id] = req
	p.mu.Unlock()
	p.logger.Debug("resolution admitted", "id", req.id, "path", path)
	return req, nil
}

// InFlight returns the number of currently admitted requests.
func (p *Protector) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

// Request is the per-resolution record: start time, filesystem-operation
// count, and concurrency-slot ownership. It is owned by a single call and is
// not safe for concurrent use.
type Request struct {
	id      string
	path    string
	started time.Time
	ops     int
	p       *Protector

	once sync.Once
}

// ID returns the request's correlation id.
func (r *Request) ID() string { return r.id }

// Ops returns the number of filesystem operations charged so far.
func (r *Request) Ops() int { return r.ops }

// ChargeOp charges one filesystem operation (readlink, stat, lstat) against
// the request. It fails once the op quota or the wall-clock budget is
// exhausted; the caller must abort the resolution.
func (r *Request) ChargeOp() error {
	r.ops++
	if r.ops > r.p.limits.OpQuota {
		r.p.logger.Debug("resolution rejected: op quota", "id", r.id, "ops", r.ops)
		return core.NewSecurityError(core.ReasonOpQuotaExceeded, r.path)
	}
	if time.Since(r.started) > r.p.limits.TimeBudget {
		r.p.logger.Debug("resolution rejected: time budget", "id", r.id)
		return core.NewSecurityError(core.ReasonTimeBudgetExceeded, r.path)
	}
	return nil
}

// Release returns the concurrency slot. It always runs its cleanup exactly
// once, and sleeps out any remainder of the minimum response time so success
// and failure paths are not distinguishable by timing.
func (r *Request) Release() {
	r.once.Do(func() {
		r.p.mu.Lock()
		delete(r.p.inflight, r.id)
		r.p.mu.Unlock()
		r.p.sem.Release(1)

		if remain := r.p.limits.MinResponseTime - time.Since(r.started); remain > 0 {
			time.Sleep(remain)
		}
		r.p.logger.Debug("resolution released", "id", r.id, "ops", r.ops)
	})
}
