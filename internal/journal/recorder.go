package journal

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/formstate/internal/subscription"
)

// Recorder writes every notification it receives to a session. Use
// Record as the callback of an Everything subscription.
//
// Subscription callbacks cannot fail, so the first write error is kept
// and later notifications are dropped. Check Err when done.
type Recorder struct {
	j       *Journal
	ctx     context.Context
	session string
	logger  *slog.Logger

	mu    sync.Mutex
	err   error
	count int
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the logger write failures are reported to.
func WithLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = l
	}
}

// NewRecorder starts session for form and returns its recorder.
func (j *Journal) NewRecorder(ctx context.Context, session, form string, opts ...RecorderOption) (*Recorder, error) {
	if err := j.StartSession(ctx, session, form); err != nil {
		return nil, err
	}
	r := &Recorder{j: j, ctx: ctx, session: session, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Record writes n.
func (r *Recorder) Record(n subscription.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}

	e, err := NewEntry(n)
	if err == nil {
		err = r.j.Write(r.ctx, r.session, e)
	}
	if err != nil {
		r.err = err
		r.logger.Error("journal write failed", "session", r.session, "seq", n.Seq, "error", err)
		return
	}
	r.count++
}

// Err returns the first write error.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Count returns how many commits were written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Session returns the session ID.
func (r *Recorder) Session() string {
	return r.session
}
