package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/petal-labs/toolgate/catalog"
)

// DefaultCronExpr checks every five minutes.
const DefaultCronExpr = "*/5 * * * *"

var standardCronParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow,
)

func parseCronExpressionUTC(expr string) (cron.Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, errors.New("cron expression is required")
	}

	upper := strings.ToUpper(clean)
	if strings.Contains(upper, "CRON_TZ=") || strings.Contains(upper, "TZ=") {
		return nil, errors.New("cron expression must be UTC-only (timezone prefixes are not allowed)")
	}

	schedule, err := standardCronParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// SchedulerConfig controls background health scheduling behavior.
type SchedulerConfig struct {
	Registry *catalog.Registry
	Factory  ClientFactory
	CronExpr string
	Logger   *slog.Logger
	Now      func() time.Time
	OnReport func(Report)
}

// Scheduler periodically evaluates every enabled server in a registry on a
// cron schedule.
type Scheduler struct {
	registry *catalog.Registry
	factory  ClientFactory
	schedule cron.Schedule
	logger   *slog.Logger
	now      func() time.Time
	onReport func(Report)

	mu         sync.Mutex
	cancel     context.CancelFunc
	done       chan struct{}
	lastStates map[string]State
}

// NewScheduler creates a health scheduler.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Registry == nil {
		return nil, errors.New("health: scheduler registry is nil")
	}
	if cfg.Factory == nil {
		return nil, errors.New("health: scheduler client factory is nil")
	}
	if strings.TrimSpace(cfg.CronExpr) == "" {
		cfg.CronExpr = DefaultCronExpr
	}
	schedule, err := parseCronExpressionUTC(cfg.CronExpr)
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.OnReport == nil {
		cfg.OnReport = func(Report) {}
	}

	return &Scheduler{
		registry:   cfg.Registry,
		factory:    cfg.Factory,
		schedule:   schedule,
		logger:     cfg.Logger,
		now:        cfg.Now,
		onReport:   cfg.OnReport,
		lastStates: make(map[string]State),
	}, nil
}

// Start begins scheduler execution. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil {
		return errors.New("health: scheduler is nil")
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		for {
			next := s.schedule.Next(s.now().UTC())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-loopCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.RunOnce(loopCtx)
			}
		}
	}()

	return nil
}

// Stop terminates scheduler execution, waiting for an in-flight sweep to
// finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce evaluates every enabled server immediately and returns the
// reports in registry order.
func (s *Scheduler) RunOnce(ctx context.Context) []Report {
	defs := s.registry.ListEnabledServers()
	reports := make([]Report, 0, len(defs))
	for _, def := range defs {
		if ctx.Err() != nil {
			return reports
		}
		report := Evaluate(ctx, def, s.factory)
		s.recordTransition(report)
		s.onReport(report)
		reports = append(reports, report)
	}
	return reports
}

func (s *Scheduler) recordTransition(report Report) {
	s.mu.Lock()
	previous, seen := s.lastStates[report.Server]
	s.lastStates[report.Server] = report.State
	s.mu.Unlock()

	if seen && previous == report.State {
		return
	}
	attrs := []any{
		slog.String("server", report.Server),
		slog.String("state", string(report.State)),
		slog.Int64("latency_ms", report.LatencyMS),
	}
	if seen {
		attrs = append(attrs, slog.String("previous", string(previous)))
	}
	if report.ErrorMessage != "" {
		attrs = append(attrs, slog.String("error", report.ErrorMessage))
	}
	s.logger.Info("server health state changed", attrs...)
}
