package journal

import (
	"context"
	"encoding/json"
	"fmt"
)

// StartSession registers a recording session for the named form.
// Starting an existing session is a no-op.
func (j *Journal) StartSession(ctx context.Context, id, form string) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, form) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, form)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

// Write appends e to session. Writing the same seq twice keeps the first
// row, so a replayed recording is idempotent.
func (j *Journal) Write(ctx context.Context, session string, e Entry) error {
	paths, err := json.Marshal(e.Paths)
	if err != nil {
		return fmt.Errorf("write commit: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO commits
		(session_id, seq, kind, paths, values_changed, state, state_digest, form_values, values_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		session,
		e.Seq,
		e.Kind,
		string(paths),
		e.ValuesChanged,
		e.State,
		e.StateDigest,
		e.Values,
		e.ValuesDigest,
	)
	if err != nil {
		return fmt.Errorf("write commit: %w", err)
	}
	return nil
}
