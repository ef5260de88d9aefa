package registry

import (
	"github.com/roach88/formstate/internal/path"
	"github.com/roach88/formstate/internal/validation"
	"github.com/roach88/formstate/pkg/value"
)

// SetOptions are the side effects requested with a write.
type SetOptions struct {
	ShouldValidate bool
	ShouldDirty    bool
	ShouldTouch    bool
}

// Register creates or replaces the descriptor at p. Replacing the rules of
// an existing field changes no state and publishes nothing. A new field
// whose value is missing is seeded from the baseline.
func (r *Registry) Register(p path.Path, rules validation.Rules) error {
	if err := r.checkPath(p); err != nil {
		return err
	}
	if r.status == StatusLoading {
		r.later("register", func() error { return r.register(p, rules) })
		return nil
	}
	return r.register(p, rules)
}

func (r *Registry) register(p path.Path, rules validation.Rules) error {
	key := p.String()
	if f, ok := r.fields[key]; ok {
		f.rules = rules
		return nil
	}

	before := r.snapshot()
	r.fields[key] = &field{path: p, rules: rules}

	seeded := false
	if _, ok := path.Get(r.values, p); !ok {
		if def, ok := path.Get(r.baseline, p); ok {
			next, err := path.Set(r.values, p, def)
			if err != nil {
				delete(r.fields, key)
				return err
			}
			r.values = next
			seeded = true
		}
	}

	r.publish(KindRegister, []path.Path{p}, seeded, before)
	return nil
}

// Unregister removes the descriptor at p together with its touched flag
// and error. When no other field overlaps p and p is not inside a bound
// field array, a scalar left at p is pruned from the tree.
func (r *Registry) Unregister(p path.Path) error {
	if err := r.checkPath(p); err != nil {
		return err
	}
	if r.status == StatusLoading {
		r.later("unregister", func() error { return r.unregister(p) })
		return nil
	}
	return r.unregister(p)
}

func (r *Registry) unregister(p path.Path) error {
	key := p.String()
	if _, ok := r.fields[key]; !ok {
		return nil
	}

	before := r.snapshot()
	delete(r.fields, key)
	delete(r.touched, key)
	delete(r.errors, key)
	delete(r.tracked, key)
	delete(r.pending, key)

	pruned := false
	if r.orphaned(p) {
		r.values, pruned = path.Unset(r.values, p)
	}

	r.publish(KindUnregister, []path.Path{p}, pruned, before)
	return nil
}

func (r *Registry) orphaned(p path.Path) bool {
	v, ok := path.Get(r.values, p)
	if !ok {
		return false
	}
	switch v.(type) {
	case value.Object, value.Array:
		return false
	}
	for _, f := range r.fields {
		if f.path.Related(p) {
			return false
		}
	}
	for _, a := range r.arrays {
		if p.HasPrefix(a) {
			return false
		}
	}
	return true
}

// SetValue writes v at p. The dirty flag follows from comparing the new
// tree with the baseline, ShouldDirty adds p to the tracked set, and
// ShouldTouch marks p touched. With ShouldValidate every registered field
// overlapping p is validated. All effects land in one commit.
func (r *Registry) SetValue(p path.Path, v value.Value, opts SetOptions) error {
	if err := r.checkPath(p); err != nil {
		return err
	}
	if v == nil {
		v = value.Null{}
	}
	if r.status == StatusLoading {
		r.later("set_value", func() error { return r.setValue(p, v, opts) })
		return nil
	}
	return r.setValue(p, v, opts)
}

func (r *Registry) setValue(p path.Path, v value.Value, opts SetOptions) error {
	next, err := path.Set(r.values, p, value.Clone(v))
	if err != nil {
		return err
	}

	before := r.snapshot()
	r.values = next
	key := p.String()
	if opts.ShouldDirty {
		r.tracked[key] = p
	}
	if opts.ShouldTouch {
		r.touched[key] = true
	}
	if opts.ShouldValidate {
		r.validateRelated([]path.Path{p})
	}

	r.publish(KindSetValue, []path.Path{p}, true, before)
	return nil
}

// Touch marks p touched.
func (r *Registry) Touch(p path.Path) error {
	if err := r.checkPath(p); err != nil {
		return err
	}
	if r.status == StatusLoading {
		r.later("touch", func() error { return r.touch(p) })
		return nil
	}
	return r.touch(p)
}

func (r *Registry) touch(p path.Path) error {
	return r.blur(p, false)
}

// Blur marks p touched and, when validate is set, validates the
// registered fields overlapping p in the same commit.
func (r *Registry) Blur(p path.Path, validate bool) error {
	if err := r.checkPath(p); err != nil {
		return err
	}
	if r.status == StatusLoading {
		r.later("blur", func() error { return r.blur(p, validate) })
		return nil
	}
	return r.blur(p, validate)
}

func (r *Registry) blur(p path.Path, validate bool) error {
	before := r.snapshot()
	r.touched[p.String()] = true
	if validate {
		r.validateRelated([]path.Path{p})
	}
	r.publish(KindTouch, []path.Path{p}, false, before)
	return nil
}

// SetError records a manual error at p. It stays until the field is next
// validated or the error is cleared. An empty rule name becomes "manual".
func (r *Registry) SetError(p path.Path, rule, message string) error {
	if err := r.checkPath(p); err != nil {
		return err
	}
	if r.status == StatusLoading {
		r.later("set_error", func() error { return r.setError(p, rule, message) })
		return nil
	}
	return r.setError(p, rule, message)
}

func (r *Registry) setError(p path.Path, rule, message string) error {
	if rule == "" {
		rule = "manual"
	}
	before := r.snapshot()
	key := p.String()
	r.errors[key] = validation.Error{Path: key, Rule: rule, Message: message}
	r.publish(KindSetError, []path.Path{p}, false, before)
	return nil
}

// ClearErrors removes the errors at the given paths and below them, or
// every error when called without paths.
func (r *Registry) ClearErrors(paths ...path.Path) error {
	for _, p := range paths {
		if err := r.checkPath(p); err != nil {
			return err
		}
	}
	if r.status == StatusLoading {
		r.later("clear_errors", func() error { return r.clearErrors(paths) })
		return nil
	}
	return r.clearErrors(paths)
}

func (r *Registry) clearErrors(paths []path.Path) error {
	before := r.snapshot()
	affected := paths
	if len(paths) == 0 {
		r.errors = validation.Errors{}
		affected = []path.Path{path.Root}
	} else {
		for key, verr := range r.errors {
			ep, err := path.Parse(verr.Path)
			if err != nil {
				continue
			}
			for _, p := range paths {
				if ep.HasPrefix(p) {
					delete(r.errors, key)
					break
				}
			}
		}
	}
	r.publish(KindClearErrors, affected, false, before)
	return nil
}

// CompleteSubmit records a submit attempt: every registered field is
// marked touched and the submit counters advance.
func (r *Registry) CompleteSubmit(success bool) {
	before := r.snapshot()
	paths := make([]path.Path, 0, len(r.fields))
	for _, f := range r.sortedFields() {
		r.touched[f.path.String()] = true
		paths = append(paths, f.path)
	}
	r.submitCount++
	r.submitted = true
	r.submitOK = success
	r.publish(KindSubmit, paths, false, before)
}
