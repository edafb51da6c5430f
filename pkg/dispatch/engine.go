package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/courier/pkg/contact"
	"github.com/dmitrymomot/courier/pkg/mailer"
	"github.com/dmitrymomot/courier/pkg/netprobe"
)

// BodyRenderer produces the HTML body for one record.
type BodyRenderer interface {
	Render(path, salutation, signature string) (string, error)
}

// CheckpointStore persists the index of the next unprocessed record.
type CheckpointStore interface {
	Load(ctx context.Context) (int, error)
	Save(ctx context.Context, next int) error
}

// FailureSink receives the failures of a run once, at the end.
type FailureSink interface {
	WriteFailures(ctx context.Context, entries []FailureEntry) error
}

// Engine sends one message per contact record, strictly one at a time.
type Engine struct {
	transport mailer.Transport
	probe     netprobe.Prober
	store     CheckpointStore
	renderer  BodyRenderer
	sink      FailureSink
	observer  Observer
	control   *Control
	logger    *slog.Logger

	pollInterval   time.Duration
	probeInterval  time.Duration
	attemptTimeout time.Duration
}

// New creates an engine delivering through transport, classifying failures
// with probe and resuming from store.
func New(transport mailer.Transport, probe netprobe.Prober, store CheckpointStore, opts ...Option) (*Engine, error) {
	if transport == nil {
		return nil, ErrTransportRequired
	}
	if probe == nil {
		return nil, ErrProbeRequired
	}
	if store == nil {
		return nil, ErrCheckpointRequired
	}

	e := &Engine{
		transport:      transport,
		probe:          probe,
		store:          store,
		pollInterval:   defaultPollInterval,
		probeInterval:  defaultProbeInterval,
		attemptTimeout: defaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.renderer == nil {
		e.renderer = mailer.NewOSRenderer("")
	}
	if e.control == nil {
		e.control = NewControl()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	return e, nil
}

// Control returns the token used to pause, resume and cancel the run.
func (e *Engine) Control() *Control {
	return e.control
}

// outcome of one record.
type outcome int

const (
	outcomeSent outcome = iota
	outcomeFailed
	outcomeInterrupted // cancelled before the record was finalized
)

// Run loads the contacts and sends to each one in order, starting at the
// persisted checkpoint, waiting delay between sends. It never fails: errors
// are reported as events and in the returned Summary. Cancelling ctx is
// equivalent to Control().Cancel().
func (e *Engine) Run(ctx context.Context, source contact.Source, delay time.Duration) Summary {
	em := newEmitter(e.observer)
	e.control.listen(func(s Signal) {
		switch s {
		case SignalPause:
			em.logf("Process paused by user.")
		case SignalResume:
			em.logf("Process resumed by user.")
		case SignalCancel:
			em.logf("Process cancelled by user.")
		}
	})

	summary := e.run(ctx, source, max(delay, 0), em)

	e.control.listen(nil)
	em.emit(Event{Kind: EventFinished})
	em.close()
	return summary
}

func (e *Engine) run(ctx context.Context, source contact.Source, delay time.Duration, em *emitter) Summary {
	records, err := source.Load(ctx)
	if err == nil {
		err = contact.Validate(records)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "contact source rejected", slog.Any("error", err))
		em.logf("Error reading contacts: %v", err)
		return Summary{Fatal: err}
	}

	st := &State{Total: len(records)}
	em.emit(Event{Kind: EventTotal, Value: st.Total})

	st.Cursor = e.loadCursor(ctx, st.Total, em)
	if st.Cursor > 0 {
		em.logf("Resuming from row %d", st.Cursor)
		em.emit(Event{Kind: EventProgress, Value: percent(st.Cursor, st.Total)})
	}

	e.logger.InfoContext(ctx, "dispatch started",
		slog.Int("total", st.Total),
		slog.Int("cursor", st.Cursor),
		slog.Duration("delay", delay),
	)

	cancelled := false
	for _, rec := range records {
		if rec.Index < st.Cursor {
			continue
		}
		if !e.waitWhilePaused(ctx) {
			cancelled = true
			break
		}

		if e.process(ctx, rec, st, em) == outcomeInterrupted {
			cancelled = true
			break
		}

		st.Cursor = rec.Index + 1
		e.saveCursor(ctx, st.Cursor, em)
		em.emit(Event{Kind: EventProgress, Value: percent(st.Cursor, st.Total)})

		if st.Cursor < st.Total && delay > 0 {
			em.logf("Waiting for %s before next email...", delay)
			if !e.sleep(ctx, delay) {
				cancelled = true
				break
			}
		}
	}

	if cancelled {
		e.logger.InfoContext(ctx, "dispatch cancelled", slog.Int("cursor", st.Cursor))
		em.logf("Sending cancelled at row %d.", st.Cursor)
	}

	e.flushFailures(ctx, st.Failures, em)

	e.logger.InfoContext(ctx, "dispatch finished",
		slog.Int("total", st.Total),
		slog.Int("sent", st.Sent),
		slog.Int("failed", len(st.Failures)),
		slog.Int("cursor", st.Cursor),
	)
	em.logf("Finished sending emails.")

	return Summary{State: *st, Cancelled: cancelled}
}

// process renders, composes and delivers one record.
func (e *Engine) process(ctx context.Context, rec contact.Record, st *State, em *emitter) outcome {
	body, err := e.renderer.Render(rec.BodyTemplatePath, rec.Salutation, rec.DisplayName)
	if err != nil {
		e.fail(ctx, rec, err, st, em)
		return outcomeFailed
	}

	email := &mailer.Email{
		FromName:    rec.DisplayName,
		FromAddress: rec.SenderEmail,
		To:          rec.RecipientEmail,
		Subject:     rec.Subject,
		HTML:        body,
	}
	auth := mailer.Credentials{Username: rec.SenderEmail, Password: rec.SenderPassword}

	em.logf("Sending email to %s from %s (row %d)...", rec.RecipientEmail, rec.DisplayName, rec.Index)
	return e.deliver(ctx, rec, auth, email, st, em)
}

// deliver retries the same record for as long as the network is down and
// gives up on the first failure that happens while the network is up.
func (e *Engine) deliver(ctx context.Context, rec contact.Record, auth mailer.Credentials, email *mailer.Email, st *State, em *emitter) outcome {
	for {
		if !e.waitWhilePaused(ctx) {
			return outcomeInterrupted
		}

		err := e.attempt(ctx, auth, email)
		if err == nil {
			st.Sent++
			e.logger.InfoContext(ctx, "email sent", slog.Any("record", rec))
			em.logf("Email sent successfully!")
			em.emit(Event{Kind: EventSent, Value: st.Sent})
			return outcomeSent
		}

		if e.reachable(ctx) {
			e.fail(ctx, rec, err, st, em)
			return outcomeFailed
		}

		e.logger.WarnContext(ctx, "network unreachable, holding record",
			slog.Any("record", rec),
			slog.Any("error", err),
		)
		em.logf("Network disconnected. Pausing email sending process. Waiting for network to be restored...")
		if !e.waitForNetwork(ctx) {
			return outcomeInterrupted
		}
		e.logger.InfoContext(ctx, "network restored", slog.Int("row", rec.Index))
		if e.control.Paused() {
			em.logf("Network restored. Sending remains paused.")
		} else {
			em.logf("Network restored. Resuming email sending process.")
		}
	}
}

// attempt runs one transport call. It is bounded by the attempt timeout but
// not by cancellation: an attempt in flight is allowed to finish.
func (e *Engine) attempt(ctx context.Context, auth mailer.Credentials, email *mailer.Email) error {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.attemptTimeout)
	defer cancel()
	return e.transport.Send(actx, auth, email)
}

// reachable classifies a failed attempt. Like the attempt itself it ignores
// cancellation, so a run cancelled mid-attempt still records the failure.
func (e *Engine) reachable(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.attemptTimeout)
	defer cancel()
	return e.probe.Reachable(pctx)
}

func (e *Engine) fail(ctx context.Context, rec contact.Record, err error, st *State, em *emitter) {
	st.Failures = append(st.Failures, FailureEntry{
		Index:          rec.Index,
		SenderEmail:    rec.SenderEmail,
		RecipientEmail: rec.RecipientEmail,
		Subject:        rec.Subject,
		Error:          err.Error(),
	})
	e.logger.WarnContext(ctx, "email failed", slog.Any("record", rec), slog.Any("error", err))
	em.logf("Failed to send email to %s: %v", rec.RecipientEmail, err)
}

func (e *Engine) loadCursor(ctx context.Context, total int, em *emitter) int {
	cursor, err := e.store.Load(context.WithoutCancel(ctx))
	if err != nil {
		e.logger.WarnContext(ctx, "checkpoint unreadable, starting from the first row", slog.Any("error", err))
		em.logf("Checkpoint unreadable (%v), starting from row 0", err)
		return 0
	}
	switch {
	case cursor < 0:
		return 0
	case cursor > total:
		e.logger.WarnContext(ctx, "checkpoint beyond end of contacts",
			slog.Int("checkpoint", cursor),
			slog.Int("total", total),
		)
		return total
	}
	return cursor
}

func (e *Engine) saveCursor(ctx context.Context, next int, em *emitter) {
	if err := e.store.Save(context.WithoutCancel(ctx), next); err != nil {
		e.logger.ErrorContext(ctx, "checkpoint not saved", slog.Int("checkpoint", next), slog.Any("error", err))
		em.logf("Error saving checkpoint %d: %v", next, err)
	}
}

func (e *Engine) flushFailures(ctx context.Context, failures []FailureEntry, em *emitter) {
	if len(failures) == 0 {
		return
	}
	if e.sink == nil {
		e.logger.WarnContext(ctx, "no failure sink configured", slog.Int("failed", len(failures)))
		em.logf("%d emails failed; no failure report configured.", len(failures))
		return
	}

	if err := e.sink.WriteFailures(context.WithoutCancel(ctx), failures); err != nil {
		e.logger.ErrorContext(ctx, "failure report not saved", slog.Any("error", err))
		em.logf("Error saving failure report: %v", err)
		return
	}

	if s, ok := e.sink.(fmt.Stringer); ok {
		em.logf("Failure report saved to %s", s)
	} else {
		em.logf("Failure report saved.")
	}
}

// stopped reports whether the run was cancelled by the control or ctx.
func (e *Engine) stopped(ctx context.Context) bool {
	return e.control.Cancelled() || ctx.Err() != nil
}

// waitWhilePaused blocks while the control is paused. It returns false if
// the run is cancelled, true once sending may continue.
func (e *Engine) waitWhilePaused(ctx context.Context) bool {
	for {
		if e.stopped(ctx) {
			return false
		}
		resumed := e.control.resumeSignal()
		if !e.control.Paused() {
			return true
		}

		timer := time.NewTimer(e.pollInterval)
		select {
		case <-resumed:
		case <-e.control.Done():
		case <-ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
	}
}

// waitForNetwork re-probes every probe interval until the network is back.
// It returns false if the run is cancelled first.
func (e *Engine) waitForNetwork(ctx context.Context) bool {
	for {
		if !e.sleep(ctx, e.probeInterval) {
			return false
		}
		if e.probe.Reachable(ctx) {
			return true
		}
	}
}

// sleep waits for d. It returns false if the run is cancelled first.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	if e.stopped(ctx) {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return !e.stopped(ctx)
	case <-e.control.Done():
		return false
	case <-ctx.Done():
		return false
	}
}
