package validation

import (
	"strconv"
	"strings"
	"time"

	"github.com/roach88/formstate/pkg/value"
)

// Coerce converts raw UI input according to the rules' value-as flags.
// ValueAsNumber parses an integer; blank or unparsable input becomes Null.
// ValueAsDate normalises an ISO-8601 date (or RFC 3339 timestamp) to
// value.DateLayout; unparsable input becomes Null. Without either flag the
// input is stored as a String.
func (r Rules) Coerce(raw string) value.Value {
	switch {
	case r.ValueAsNumber:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return value.Null{}
		}
		return value.Int(n)
	case r.ValueAsDate:
		s := strings.TrimSpace(raw)
		if t, err := time.Parse(value.DateLayout, s); err == nil {
			return value.String(t.Format(value.DateLayout))
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return value.String(t.UTC().Format(value.DateLayout))
		}
		return value.Null{}
	}
	return value.String(raw)
}
