// Package health aggregates readiness checks of the service's dependencies.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Checker reports whether a dependency is available
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// Pinger is satisfied by the storage backends
type Pinger interface {
	Ping(ctx context.Context) error
}

// FromPinger wraps a Ping method as a Checker
func FromPinger(p Pinger) Checker {
	return CheckerFunc(p.Ping)
}

// Status is the outcome of one check
type Status struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Error    string `json:"error,omitempty"`
	Optional bool   `json:"optional,omitempty"`
	Took     string `json:"took"`
}

type registration struct {
	checker  Checker
	optional bool
}

// Registry manages named checkers
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]registration
	timeout  time.Duration
}

// NewRegistry creates a registry whose checks each run with timeout
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Registry{
		checkers: make(map[string]registration),
		timeout:  timeout,
	}
}

// Register adds a required checker
func (r *Registry) Register(name string, c Checker) {
	r.register(name, c, false)
}

// RegisterOptional adds a checker whose failure does not make the service unready
func (r *Registry) RegisterOptional(name string, c Checker) {
	r.register(name, c, true)
}

func (r *Registry) register(name string, c Checker, optional bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = registration{checker: c, optional: optional}
}

// Unregister removes a checker
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkers, name)
}

// List returns the registered names in order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckAll runs every checker concurrently. ready is false when any
// required checker failed.
func (r *Registry) CheckAll(ctx context.Context) (statuses []Status, ready bool) {
	r.mu.RLock()
	names := make([]string, 0, len(r.checkers))
	regs := make([]registration, 0, len(r.checkers))
	for name, reg := range r.checkers {
		names = append(names, name)
		regs = append(regs, reg)
	}
	r.mu.RUnlock()

	statuses = make([]Status, len(names))

	var eg errgroup.Group
	for i := range names {
		i := i
		eg.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			start := time.Now()
			err := regs[i].checker.HealthCheck(cctx)
			st := Status{
				Name:     names[i],
				Healthy:  err == nil,
				Optional: regs[i].optional,
				Took:     time.Since(start).Round(time.Millisecond).String(),
			}
			if err != nil {
				st.Error = err.Error()
			}
			statuses[i] = st
			return nil
		})
	}
	_ = eg.Wait()

	sort.Slice(statuses, func(a, b int) bool { return statuses[a].Name < statuses[b].Name })

	ready = true
	for _, st := range statuses {
		if !st.Healthy && !st.Optional {
			ready = false
		}
	}
	return statuses, ready
}
