package journal

import (
	"fmt"

	"github.com/roach88/formstate/internal/registry"
	"github.com/roach88/formstate/internal/subscription"
	"github.com/roach88/formstate/pkg/value"
)

// Entry is one recorded commit.
type Entry struct {
	Seq           int64    `json:"seq"`
	Kind          string   `json:"kind"`
	Paths         []string `json:"paths"`
	ValuesChanged bool     `json:"valuesChanged"`
	State         string   `json:"state"`
	StateDigest   string   `json:"stateDigest"`
	Values        string   `json:"values"`
	ValuesDigest  string   `json:"valuesDigest"`
}

// NewEntry encodes a notification.
func NewEntry(n subscription.Notification) (Entry, error) {
	paths := make([]string, len(n.Paths))
	for i, p := range n.Paths {
		paths[i] = p.String()
	}

	state := StateValue(n.State)
	stateJSON, err := value.MarshalCanonical(state)
	if err != nil {
		return Entry{}, fmt.Errorf("encode state: %w", err)
	}
	valuesJSON, err := value.MarshalCanonical(n.State.Values)
	if err != nil {
		return Entry{}, fmt.Errorf("encode values: %w", err)
	}

	return Entry{
		Seq:           n.Seq,
		Kind:          string(n.Kind),
		Paths:         paths,
		ValuesChanged: n.ValuesChanged,
		State:         string(stateJSON),
		StateDigest:   value.MustDigest(value.DomainState, state),
		Values:        string(valuesJSON),
		ValuesDigest:  value.MustDigest(value.DomainValues, n.State.Values),
	}, nil
}

// StateValue renders the derived state, without the value tree, as a
// value tree so it can be encoded canonically.
func StateValue(st registry.FormState) value.Object {
	errs := value.Object{}
	for k, e := range st.Errors {
		errs[k] = value.Object{
			"rule":    value.String(e.Rule),
			"message": value.String(e.Message),
		}
	}

	obj := value.Object{
		"errors":             errs,
		"touchedFields":      stringArray(st.TouchedFields),
		"dirtyFields":        stringArray(st.DirtyFields),
		"isDirty":            value.Bool(st.IsDirty),
		"isValid":            value.Bool(st.IsValid),
		"isValidating":       value.Bool(st.IsValidating),
		"status":             value.String(st.Status),
		"submitCount":        value.Int(st.SubmitCount),
		"isSubmitted":        value.Bool(st.IsSubmitted),
		"isSubmitSuccessful": value.Bool(st.IsSubmitSuccessful),
	}
	if st.DefaultsErr != nil {
		obj["defaultsError"] = value.String(st.DefaultsErr.Error())
	}
	return obj
}

func stringArray(ss []string) value.Array {
	arr := make(value.Array, len(ss))
	for i, s := range ss {
		arr[i] = value.String(s)
	}
	return arr
}

// Verify recomputes both digests from the stored JSON and reports the
// first mismatch.
func (e Entry) Verify() error {
	checks := []struct {
		domain, data, digest string
	}{
		{value.DomainState, e.State, e.StateDigest},
		{value.DomainValues, e.Values, e.ValuesDigest},
	}
	for _, c := range checks {
		v, err := value.Unmarshal([]byte(c.data))
		if err != nil {
			return fmt.Errorf("seq %d: decode %s: %w", e.Seq, c.domain, err)
		}
		got, err := value.Digest(c.domain, v)
		if err != nil {
			return fmt.Errorf("seq %d: digest %s: %w", e.Seq, c.domain, err)
		}
		if got != c.digest {
			return fmt.Errorf("seq %d: %s digest mismatch: stored %s, computed %s", e.Seq, c.domain, c.digest, got)
		}
	}
	return nil
}
