package invoke

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/wippyai/arrayhandle/errors"
)

// Resolver maps slot k (from 1) to the forms it may take, in order.
type Resolver interface {
	Resolve(k int, v any) ([]any, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(k int, v any) ([]any, error)

func (f ResolverFunc) Resolve(k int, v any) ([]any, error) { return f(k, v) }

// Candidate tests a value against one concrete type.
type Candidate interface {
	// Match returns the resolved form of v if v has the candidate's type.
	Match(v any) (any, bool)
	Name() string
}

type exact[T any] struct{}

// Exact matches values of type T and passes them unchanged.
func Exact[T any]() Candidate { return exact[T]{} }

func (exact[T]) Match(v any) (any, bool) {
	t, ok := v.(T)
	return t, ok
}

func (exact[T]) Name() string { return reflect.TypeFor[T]().String() }

type textual[T any] struct{}

// Textual matches values of type T and resolves them to their string form.
func Textual[T any]() Candidate { return textual[T]{} }

func (textual[T]) Match(v any) (any, bool) {
	t, ok := v.(T)
	if !ok {
		return nil, false
	}
	return fmt.Sprint(t), true
}

func (textual[T]) Name() string { return "text(" + reflect.TypeFor[T]().String() + ")" }

// Candidates is a closed, ordered candidate list. A slot resolves to every
// candidate it matches, in list order.
type Candidates []Candidate

// Resolve returns the forms of v. A value matching no candidate is a type
// mismatch.
func (c Candidates) Resolve(k int, v any) ([]any, error) {
	var forms []any
	for _, cand := range c {
		if form, ok := cand.Match(v); ok {
			forms = append(forms, form)
		}
	}
	if len(forms) == 0 {
		names := make([]string, len(c))
		for i, cand := range c {
			names[i] = cand.Name()
		}
		return nil, errors.TypeMismatch(errors.PhaseInvoke, []string{"slot", fmt.Sprint(k)},
			fmt.Sprintf("%T", v), "matches none of ["+strings.Join(names, ", ")+"]")
	}
	return forms, nil
}

// DynamicTransform resolves every slot with r and calls cont once for each
// combination of resolved forms. Combinations are visited in candidate order
// with the first slot varying slowest. An error from r or cont stops the
// enumeration.
func (fi *Interface) DynamicTransform(r Resolver, cont func(*Interface) error) error {
	n := len(fi.slots)
	forms := make([][]any, n)
	for i, v := range fi.slots {
		fs, err := r.Resolve(i+1, v)
		if err != nil {
			return err
		}
		if len(fs) == 0 {
			return errors.TypeMismatch(errors.PhaseInvoke, []string{"slot", fmt.Sprint(i + 1)},
				fmt.Sprintf("%T", v), "resolver produced no forms")
		}
		forms[i] = fs
	}

	idx := make([]int, n)
	for {
		args := make([]any, n)
		for i := range args {
			args[i] = forms[i][idx[i]]
		}
		if err := cont(&Interface{slots: args}); err != nil {
			return err
		}

		k := n - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < len(forms[k]) {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			return nil
		}
	}
}
