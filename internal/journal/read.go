package journal

import (
	"context"
	"encoding/json"
	"fmt"
)

// Session is one recording.
type Session struct {
	ID      string `json:"id"`
	Form    string `json:"form"`
	Commits int    `json:"commits"`
}

// Sessions lists sessions in the order they were started. A non-empty
// form filters by form name.
func (j *Journal) Sessions(ctx context.Context, form string) ([]Session, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.form, COUNT(c.seq)
		FROM sessions s
		LEFT JOIN commits c ON c.session_id = s.id
		WHERE ? = '' OR s.form = ?
		GROUP BY s.rowid, s.id, s.form
		ORDER BY s.rowid ASC
	`, form, form)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Form, &s.Commits); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Read returns the commits of session ordered by seq.
func (j *Journal) Read(ctx context.Context, session string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, kind, paths, values_changed, state, state_digest, form_values, values_digest
		FROM commits
		WHERE session_id = ?
		ORDER BY seq ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e     Entry
			paths string
		)
		if err := rows.Scan(&e.Seq, &e.Kind, &paths, &e.ValuesChanged, &e.State, &e.StateDigest, &e.Values, &e.ValuesDigest); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		if err := json.Unmarshal([]byte(paths), &e.Paths); err != nil {
			return nil, fmt.Errorf("decode paths at seq %d: %w", e.Seq, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}
	return entries, nil
}
