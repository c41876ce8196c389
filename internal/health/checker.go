// Package health probes the external services the bot depends on so that
// /healthz can report them before a call fails mid-event.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Statuses reported for a target.
const (
	StatusUnknown  = "unknown"
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Config holds probe configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Target is one external endpoint to probe.
type Target struct {
	Name string
	URL  string
}

// TargetStatus is the last known state of a target.
type TargetStatus struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	Failures  int       `json:"consecutive_failures"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
}

// MetricsRecordFunc is an optional callback invoked after each failed probe.
type MetricsRecordFunc func(target string)

// Checker runs periodic probes against a fixed set of targets.
type Checker struct {
	httpClient *http.Client
	cfg        Config
	onFailure  MetricsRecordFunc
	logger     *zap.Logger

	mu     sync.RWMutex
	status map[string]*TargetStatus
}

// New creates a Checker for targets. Targets with an empty URL are skipped.
func New(targets []Target, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}

	status := make(map[string]*TargetStatus, len(targets))
	for _, t := range targets {
		if t.URL == "" {
			continue
		}
		status[t.Name] = &TargetStatus{Name: t.Name, URL: t.URL, Status: StatusUnknown}
	}
	return &Checker{
		httpClient: &http.Client{Timeout: cfg.ProbeTimeout},
		cfg:        cfg,
		logger:     logger,
		status:     status,
	}
}

// SetFailureRecorder configures the failed-probe callback.
func (c *Checker) SetFailureRecorder(fn MetricsRecordFunc) {
	c.onFailure = fn
}

// Start probes every CheckInterval until ctx is done.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)
	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.CheckAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckAll probes every target concurrently and waits for the results.
func (c *Checker) CheckAll(ctx context.Context) {
	c.mu.RLock()
	targets := make([]Target, 0, len(c.status))
	for _, s := range c.status {
		targets = append(targets, Target{Name: s.Name, URL: s.URL})
	}
	c.mu.RUnlock()

	var wg sync.WaitGroup
	for _, t := range targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			c.record(t, c.probe(ctx, t.URL))
		}(t)
	}
	wg.Wait()
}

func (c *Checker) record(t Target, ok bool) {
	if !ok && c.onFailure != nil {
		c.onFailure(t.Name)
	}

	c.mu.Lock()
	s := c.status[t.Name]
	prev := s.Status
	if ok {
		s.Failures = 0
		s.Status = StatusHealthy
	} else {
		s.Failures++
		if s.Failures >= c.cfg.FailThreshold {
			s.Status = StatusDegraded
		}
	}
	s.CheckedAt = time.Now().UTC()
	next, failures := s.Status, s.Failures
	c.mu.Unlock()

	switch {
	case prev == StatusDegraded && next == StatusHealthy:
		c.logger.Info("health: recovered", zap.String("target", t.Name))
	case prev != StatusDegraded && next == StatusDegraded:
		c.logger.Warn("health: degraded", zap.String("target", t.Name), zap.Int("fail_count", failures))
	}
}

// probe reports whether the server answered at all. POST-only endpoints
// answer GET with 4xx, so only transport errors and 5xx count as failures.
func (c *Checker) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// Status returns the state of every target sorted by name.
func (c *Checker) Status() []TargetStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]TargetStatus, 0, len(c.status))
	for _, s := range c.status {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Healthy reports whether no target is degraded.
func (c *Checker) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.status {
		if s.Status == StatusDegraded {
			return false
		}
	}
	return true
}
