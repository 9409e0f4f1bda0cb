// Package broadcast fans an admin message out to every active user under a
// fixed outbound rate, counting deliveries and permanent failures.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/renamerbot/internal/logger"
	"github.com/edgard/renamerbot/internal/registry"
	"github.com/edgard/renamerbot/internal/transport"
)

var (
	// ErrEmptyPayload is returned for a job with nothing to send.
	ErrEmptyPayload = errors.New("broadcast payload is empty")
	// ErrBusy is returned by Start while another job is running.
	ErrBusy = errors.New("a broadcast is already running")
)

// Audience is the registry view the dispatcher needs.
type Audience interface {
	ActiveUserIDs(ctx context.Context) (registry.Snapshot, error)
	MarkUnreachable(ctx context.Context, userID int64) error
}

// Job is one fan-out of Payload.
type Job struct {
	ID        string
	Payload   transport.Content
	CreatedBy int64
	CreatedAt time.Time
}

// NewJob creates a job with a fresh id.
func NewJob(payload transport.Content, createdBy int64) Job {
	return Job{
		ID:        uuid.NewString(),
		Payload:   payload,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
}

// Summary counts a run's outcomes. Attempted always equals Delivered plus
// Unreachable.
type Summary struct {
	JobID       string    `json:"job_id"`
	Total       int       `json:"total"`
	Attempted   int       `json:"attempted"`
	Delivered   int       `json:"delivered"`
	Unreachable int       `json:"unreachable"`
	Cancelled   bool      `json:"cancelled"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
}

// Format fills a message template. Known placeholders are {job}, {total},
// {attempted}, {delivered}, {unreachable} and {cancelled}.
func (s Summary) Format(tmpl string) string {
	cancelled := ""
	if s.Cancelled {
		cancelled = " (cancelled)"
	}
	return strings.NewReplacer(
		"{job}", shortID(s.JobID),
		"{total}", strconv.Itoa(s.Total),
		"{attempted}", strconv.Itoa(s.Attempted),
		"{delivered}", strconv.Itoa(s.Delivered),
		"{unreachable}", strconv.Itoa(s.Unreachable),
		"{cancelled}", cancelled,
	).Replace(tmpl)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Config parameterizes the dispatcher.
type Config struct {
	// MinInterval is the fixed minimum delay between the end of one send and
	// the start of the next.
	MinInterval time.Duration
	// AdminID receives the summary of jobs started with Start.
	AdminID int64
	// SummaryTemplate formats that summary; see Summary.Format.
	SummaryTemplate string
}

// Dispatcher runs broadcast jobs. Run may be called directly; Start runs a
// job in the background and allows one job at a time.
type Dispatcher struct {
	cfg      Config
	audience Audience
	sender   transport.Sender
	notifier transport.Notifier
	clock    clockwork.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	current Summary
	last    *Summary
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the clock used for send pacing.
func WithClock(clock clockwork.Clock) Option {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// New creates a Dispatcher. notifier may be nil.
func New(cfg Config, audience Audience, sender transport.Sender, notifier transport.Notifier, log *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		audience: audience,
		sender:   sender,
		notifier: notifier,
		clock:    clockwork.NewRealClock(),
		logger:   logger.OrDiscard(log).With("component", "broadcast"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run sends job to a snapshot of the active users, one at a time. Individual
// delivery failures are counted, never returned. Cancelling ctx stops the run
// between sends and returns the partial summary with Cancelled set. A send cut
// short by that cancellation counts as unreachable without marking the user.
func (d *Dispatcher) Run(ctx context.Context, job Job) (Summary, error) {
	if job.Payload.Empty() {
		return Summary{}, ErrEmptyPayload
	}

	snap, err := d.audience.ActiveUserIDs(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("broadcast %s: %w", job.ID, err)
	}

	sum := Summary{JobID: job.ID, Total: snap.Len(), StartedAt: time.Now()}
	d.progress(sum)
	log := d.logger.With("job_id", job.ID)
	log.InfoContext(ctx, "Broadcast started", "recipients", sum.Total, "payload", job.Payload.Summary())

	var last time.Time
	for userID := range snap.IDs() {
		if err := d.pace(ctx, last); err != nil {
			sum.Cancelled = true
			break
		}

		err := d.sender.Send(ctx, userID, job.Payload)
		last = d.clock.Now()
		sum.Attempted++
		switch {
		case err == nil:
			sum.Delivered++
		case ctx.Err() != nil:
			sum.Unreachable++
			sum.Cancelled = true
		case transport.IsUnreachable(err):
			sum.Unreachable++
			if markErr := d.audience.MarkUnreachable(ctx, userID); markErr != nil {
				log.WarnContext(ctx, "Failed to mark recipient unreachable", "user_id", userID, "error", markErr)
			}
		default:
			sum.Unreachable++
			log.DebugContext(ctx, "Broadcast delivery failed", "user_id", userID, "error", err)
		}
		d.progress(sum)
		if sum.Cancelled {
			break
		}
	}
	sum.FinishedAt = time.Now()

	log.InfoContext(ctx, "Broadcast finished",
		"attempted", sum.Attempted, "delivered", sum.Delivered,
		"unreachable", sum.Unreachable, "cancelled", sum.Cancelled)
	return sum, nil
}

// pace blocks until MinInterval has passed since last, the end of the
// previous send. A zero last means nothing has been sent yet.
func (d *Dispatcher) pace(ctx context.Context, last time.Time) error {
	if last.IsZero() {
		return ctx.Err()
	}
	wait := d.cfg.MinInterval - d.clock.Since(last)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := d.clock.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

func (d *Dispatcher) progress(sum Summary) {
	d.mu.Lock()
	d.current = sum
	d.mu.Unlock()
}

// Start runs job in the background. ctx bounds the job's lifetime. When the
// job ends its summary is sent to the admin.
func (d *Dispatcher) Start(ctx context.Context, job Job) error {
	if job.Payload.Empty() {
		return ErrEmptyPayload
	}

	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrBusy
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.running = true
	d.cancel = cancel
	d.done = done
	d.current = Summary{JobID: job.ID, StartedAt: time.Now()}
	d.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		sum, err := d.Run(runCtx, job)
		if err != nil {
			d.logger.ErrorContext(ctx, "Broadcast failed", "job_id", job.ID, "error", err)
			sum = Summary{JobID: job.ID, FinishedAt: time.Now()}
		}

		d.mu.Lock()
		d.running = false
		d.cancel = nil
		d.last = &sum
		d.mu.Unlock()

		d.report(context.WithoutCancel(ctx), sum)
	}()
	return nil
}

func (d *Dispatcher) report(ctx context.Context, sum Summary) {
	if d.notifier == nil || d.cfg.AdminID == 0 || d.cfg.SummaryTemplate == "" {
		return
	}
	if err := d.notifier.Notify(ctx, d.cfg.AdminID, sum.Format(d.cfg.SummaryTemplate)); err != nil {
		d.logger.WarnContext(ctx, "Broadcast summary not delivered", "job_id", sum.JobID, "error", err)
	}
}

// Cancel stops the running job. It reports false when nothing is running.
func (d *Dispatcher) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running || d.cancel == nil {
		return false
	}
	d.cancel()
	return true
}

// Wait blocks until the running job, if any, has finished and reported.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Status describes the running job, or the last finished one.
type Status struct {
	Running bool     `json:"running"`
	Current *Summary `json:"current,omitempty"`
	Last    *Summary `json:"last,omitempty"`
}

// Status returns a copy of the dispatcher's progress.
func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := Status{Running: d.running}
	if d.running {
		cur := d.current
		st.Current = &cur
	}
	if d.last != nil {
		last := *d.last
		st.Last = &last
	}
	return st
}
