package form

import "fmt"

// Mode selects which UI events validate a field.
type Mode string

const (
	// OnSubmit validates only when the form is submitted.
	OnSubmit Mode = "onSubmit"
	// OnChange validates on every Change.
	OnChange Mode = "onChange"
	// OnBlur validates on Blur.
	OnBlur Mode = "onBlur"
	// OnTouched validates on the first Blur and on every Change after it.
	OnTouched Mode = "onTouched"
	// All validates on both Change and Blur.
	All Mode = "all"
)

// ParseMode converts a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case OnSubmit, OnChange, OnBlur, OnTouched, All:
		return m, nil
	case "":
		return OnSubmit, nil
	}
	return "", fmt.Errorf("unknown validation mode %q", s)
}

// onChange reports whether a Change validates. touched is the field's
// flag before the change.
func (m Mode) onChange(touched bool) bool {
	switch m {
	case OnChange, All:
		return true
	case OnTouched:
		return touched
	}
	return false
}

func (m Mode) onBlur() bool {
	switch m {
	case OnBlur, OnTouched, All:
		return true
	}
	return false
}
