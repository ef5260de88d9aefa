package harness

import (
	"context"
	"fmt"

	"github.com/roach88/formstate/pkg/form"
	"github.com/roach88/formstate/pkg/value"
)

// Expected step failures.
const (
	failStale       = "stale_reference"
	failInvalidPath = "invalid_path"
	failAny         = "error"
)

// execute runs one step and checks its declared outcome.
func (h *harness) execute(ctx context.Context, step Step) error {
	valid, err := h.apply(ctx, step)

	switch {
	case step.Fail == "" && err != nil:
		return err
	case step.Fail != "" && err == nil:
		return fmt.Errorf("expected %s error, got none", step.Fail)
	case step.Fail == failStale && !form.IsStaleReference(err):
		return fmt.Errorf("expected stale_reference error, got %v", err)
	case step.Fail == failInvalidPath && !form.IsInvalidPath(err):
		return fmt.Errorf("expected invalid_path error, got %v", err)
	}

	if step.Valid != nil && err == nil && valid != *step.Valid {
		return fmt.Errorf("expected valid=%t, got %t", *step.Valid, valid)
	}
	return nil
}

// apply performs the step. The bool is the validity reported by trigger
// and submit.
func (h *harness) apply(ctx context.Context, step Step) (bool, error) {
	p, err := parseOptional(step.Path)
	if err != nil {
		return false, err
	}
	f := h.form

	switch step.Op {
	case OpRegister:
		// Rules come from the definition; an undeclared field gets none.
		return false, f.Register(p, h.rules[p.String()])
	case OpUnregister:
		return false, f.Unregister(p)
	case OpSet:
		v, err := value.FromGo(step.Value)
		if err != nil {
			return false, err
		}
		return false, f.SetValue(p, v, form.SetOptions{
			ShouldDirty:    step.Dirty,
			ShouldTouch:    step.Touch,
			ShouldValidate: step.Validate,
		})
	case OpChange:
		return false, f.Change(p, step.Raw)
	case OpBlur:
		return false, f.Blur(p)
	case OpTrigger:
		paths, err := parsePaths(step.Paths)
		if err != nil {
			return false, err
		}
		if !p.IsRoot() {
			paths = append(paths, p)
		}
		return f.Trigger(ctx, paths...)
	case OpSubmit:
		valid := false
		err := f.HandleSubmit(ctx, func(context.Context, value.Object) error {
			valid = true
			return nil
		}, nil)
		return valid, err
	case OpReset:
		return false, f.Reset(ctx, nil)
	case OpSetError:
		return false, f.SetError(p, step.Rule, step.Message)
	case OpClearErrors:
		paths, err := parsePaths(step.Paths)
		if err != nil {
			return false, err
		}
		if !p.IsRoot() {
			paths = append(paths, p)
		}
		return false, f.ClearErrors(paths...)
	case OpAwait:
		return false, f.Await(ctx)
	}

	return false, h.applyArray(p, step)
}

func (h *harness) applyArray(p form.Path, step Step) error {
	fa, err := h.array(p)
	if err != nil {
		return err
	}

	switch step.Op {
	case OpAppend, OpPrepend, OpInsert:
		v, err := value.FromGo(step.Value)
		if err != nil {
			return err
		}
		switch step.Op {
		case OpAppend:
			_, err = fa.Append(v)
		case OpPrepend:
			_, err = fa.Prepend(v)
		default:
			_, err = fa.Insert(step.Index, v)
		}
		return err
	case OpRemove:
		return fa.Remove(step.Index)
	case OpRemoveID:
		return fa.RemoveID(step.ID)
	case OpMove:
		return fa.Move(step.From, step.To)
	case OpSwap:
		return fa.Swap(step.From, step.To)
	case OpReplace:
		items := make([]value.Value, len(step.Items))
		for i, it := range step.Items {
			v, err := value.FromGo(it)
			if err != nil {
				return fmt.Errorf("items[%d]: %w", i, err)
			}
			items[i] = v
		}
		_, err := fa.Replace(items)
		return err
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

// array returns the controller for p, reusing it across steps so item
// IDs persist.
func (h *harness) array(p form.Path) (*form.FieldArray, error) {
	key := p.String()
	if fa, ok := h.arrays[key]; ok {
		return fa, nil
	}
	fa, err := h.form.FieldArray(p)
	if err != nil {
		return nil, err
	}
	h.arrays[key] = fa
	return fa, nil
}

func parseOptional(s string) (form.Path, error) {
	if s == "" {
		return form.Path{}, nil
	}
	return form.ParsePath(s)
}

func parsePaths(ss []string) ([]form.Path, error) {
	out := make([]form.Path, 0, len(ss))
	for _, s := range ss {
		p, err := form.ParsePath(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
