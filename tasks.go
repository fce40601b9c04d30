package pichecker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Severity string

const (
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Runner is the single entry point through which probes get executed
type Runner struct {
	Severity Severity
}

func (this *Runner) GetResult(ctx context.Context, probe *Probe) {
	probe.Run(ctx)
}

type TickReport struct {
	ID       string
	Severity Severity
	Started  time.Time
	Finished time.Time
	Entries  []StatusEntry
}

// TaskHost runs every check on a fixed interval.
// Ticks never overlap; probes within a tick run concurrently
type TaskHost struct {
	Checks   []Check
	Executor Executor
	Runner   Runner
	Interval time.Duration
	// Bounds a whole tick when positive
	Timeout time.Duration
	// Runs the first tick right away instead of waiting for the interval
	Autorun bool
	Writers []StatusWriter
	Metrics *Metrics

	running atomic.Bool
	mtx     sync.RWMutex
	latest  *TickReport
}

const DefaultInterval = time.Minute

func (this *TaskHost) Run(ctx context.Context) error {

	if !this.running.CompareAndSwap(false, true) {
		return errors.New("task host already running")
	}

	defer this.running.Store(false)

	interval := this.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	if this.Autorun {
		this.invokeTick(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			this.invokeTick(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (this *TaskHost) invokeTick(ctx context.Context) {

	if _, err := this.Tick(ctx); err != nil {
		slog.Error("Tick failed",
			slog.String("err", err.Error()))
	}
}

// Tick runs a fresh probe for every check, waits for all of them,
// then hands the outcomes to writers and metrics
func (this *TaskHost) Tick(ctx context.Context) (report *TickReport, err error) {

	defer func() {
		if rec := recover(); rec != nil {
			report = nil
			err = fmt.Errorf("tick panic: %v", rec)
		}
	}()

	tickID := uuid.NewString()
	started := time.Now()

	slog.Debug("Tick started",
		slog.String("tick", tickID),
		slog.Time("started", started),
		slog.Int("probes", len(this.Checks)))

	tickCtx := ctx
	if this.Timeout > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithTimeout(ctx, this.Timeout)
		defer cancel()
	}

	probes := make([]*Probe, len(this.Checks))
	for idx, check := range this.Checks {
		probes[idx] = &Probe{Check: check, Executor: this.Executor}
	}

	group, groupCtx := errgroup.WithContext(tickCtx)

	for _, probe := range probes {
		group.Go(func() (err error) {

			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("probe '%s' panic: %v", probe.Label(), rec)
				}
			}()

			this.Runner.GetResult(groupCtx, probe)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("tick abandoned: %v", err)
	}

	report = &TickReport{
		ID:       tickID,
		Severity: this.Runner.Severity,
		Started:  started,
		Finished: time.Now(),
		Entries:  make([]StatusEntry, len(probes)),
	}

	for idx, probe := range probes {

		entry := probe.Entry(tickID)
		report.Entries[idx] = entry

		this.Metrics.RecordProbe(ctx, entry.Label, entry.Up, entry.Failure, entry.Elapsed)

		for _, writer := range this.Writers {
			if err := writer.WriteStatus(ctx, entry); err != nil {
				slog.Error("Failed to write probe status",
					slog.String("writer", writer.Type()),
					slog.String("probe", entry.Label),
					slog.String("err", err.Error()))
			}
		}
	}

	this.mtx.Lock()
	this.latest = report
	this.mtx.Unlock()

	slog.Info("Tick completed",
		slog.String("tick", tickID),
		slog.Time("started", started),
		slog.Time("finished", report.Finished),
		slog.Duration("elapsed", report.Finished.Sub(started)))

	return report, nil
}

// Latest returns the last completed tick or nil
func (this *TaskHost) Latest() *TickReport {
	this.mtx.RLock()
	defer this.mtx.RUnlock()
	return this.latest
}
