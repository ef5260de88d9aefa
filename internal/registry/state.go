package registry

import (
	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/validation"
	"github.com/roach88/formstate/pkg/value"
)

// Status is the defaults lifecycle of a registry.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// FormState is a read-only snapshot of derived form state. Values is a
// private copy; the path sets are sorted.
type FormState struct {
	Values        value.Object      `json:"values"`
	Errors        validation.Errors `json:"errors"`
	TouchedFields []string          `json:"touchedFields"`
	DirtyFields   []string          `json:"dirtyFields"`
	IsDirty       bool              `json:"isDirty"`
	IsValid       bool              `json:"isValid"`
	IsValidating  bool              `json:"isValidating"`

	Status      Status `json:"status"`
	DefaultsErr error  `json:"-"`

	SubmitCount        int  `json:"submitCount"`
	IsSubmitted        bool `json:"isSubmitted"`
	IsSubmitSuccessful bool `json:"isSubmitSuccessful"`
}

// Kind names the operation a commit came from.
type Kind string

const (
	KindInit           Kind = "init"
	KindDefaultsFailed Kind = "defaults_failed"
	KindReset          Kind = "reset"
	KindRegister       Kind = "register"
	KindUnregister     Kind = "unregister"
	KindSetValue       Kind = "set_value"
	KindTouch          Kind = "touch"
	KindValidate       Kind = "validate"
	KindArray          Kind = "array"
	KindSetError       Kind = "set_error"
	KindClearErrors    Kind = "clear_errors"
	KindSubmit         Kind = "submit"
)

// Change describes one committed mutation.
//
// Paths holds the locations the commit wrote or flagged; a structural
// array change reports the array path, and defaults resolution reports the
// root. ValuesChanged is set when the value tree was written.
type Change struct {
	Seq           int64
	Kind          Kind
	Paths         []path.Path
	ValuesChanged bool
	Before        FormState
	After         FormState
}

// Publisher receives every Change in commit order.
type Publisher interface {
	Publish(Change)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Change)

// Publish calls f(c).
func (f PublisherFunc) Publish(c Change) {
	f(c)
}

// Descriptor is the registered metadata of one field.
type Descriptor struct {
	Path    path.Path
	Rules   validation.Rules
	Touched bool
	Dirty   bool
}
