package invoke

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aherrors "github.com/wippyai/arrayhandle/errors"
)

const (
	arg1 = int64(1234)
	arg2 = 5678.125
	arg3 = "Third argument"
	arg4 = float32(1.2345)
	arg5 = "Fifth argument"
)

func threeArgString(a1 int64, a2 float64, a3 string) string {
	return fmt.Sprint(a1) + " " + fmt.Sprint(a2) + " " + a3
}

func TestBasicInterface(t *testing.T) {
	fi := Make(arg1, arg2, arg3)
	assert.Equal(t, 3, fi.Arity())
	assert.Equal(t, arg1, fi.Parameter(1))
	assert.Equal(t, arg2, Param[float64](fi, 2))
	assert.Equal(t, arg3, Param[string](fi, 3))

	called := false
	require.NoError(t, fi.InvokeControl(func(a1 int64, a2 float64, a3 string) {
		called = true
		assert.Equal(t, arg1, a1)
		assert.Equal(t, arg2, a2)
		assert.Equal(t, arg3, a3)
	}))
	assert.True(t, called)
	_, ok := fi.ReturnValue()
	assert.False(t, ok)

	fi.SetParameter(1, int64(0))
	fi.SetParameter(2, 0.0)
	fi.SetParameter(3, "")
	assert.NotEqual(t, arg1, fi.Parameter(1))

	fi.SetParameter(1, arg1)
	fi.SetParameter(2, arg2)
	fi.SetParameter(3, arg3)
	assert.Equal(t, []any{arg1, arg2, arg3}, fi.Parameters())
}

func TestParameter_OutOfRangePanics(t *testing.T) {
	fi := Make(arg1)
	assert.Panics(t, func() { fi.Parameter(0) })
	assert.Panics(t, func() { fi.Parameter(2) })
	assert.Panics(t, func() { fi.SetParameter(2, 1) })
	assert.Panics(t, func() { fi.Replace(5, 1) })
	assert.Panics(t, func() { Param[string](fi, 1) })
}

func TestInvokeByReference(t *testing.T) {
	fi := Make(arg1, arg2, arg3)
	require.NoError(t, fi.InvokeControl(func(a1 *int64, a2 *float64, a3 *string) {
		*a1++
		*a2 *= 2
		*a3 = strings.ToUpper(*a3)
	}))
	assert.Equal(t, arg1+1, fi.Parameter(1))
	assert.Equal(t, arg2*2, fi.Parameter(2))
	assert.Equal(t, "THIRD ARGUMENT", fi.Parameter(3))
}

func TestInvokeResult(t *testing.T) {
	fi := Make(arg1, arg2, arg3)
	require.NoError(t, fi.InvokeControl(threeArgString))

	result, ok := Return[string](fi)
	require.True(t, ok)
	assert.Equal(t, "1234 5678.125 Third argument", result)
}

func TestInvoke_ErrorResult(t *testing.T) {
	boom := errors.New("boom")
	fn := func(a int64) (int64, error) {
		if a < 0 {
			return 0, boom
		}
		return a * 2, nil
	}

	fi := Make(int64(21))
	require.NoError(t, fi.InvokeControl(fn))
	v, ok := Return[int64](fi)
	require.True(t, ok)
	assert.Equal(t, int64(42), v)

	neg := Make(int64(-1))
	assert.Same(t, boom, neg.InvokeControl(fn))

	err := neg.InvokeExecution(fn)
	require.Error(t, err)
	assert.True(t, aherrors.IsKind(err, aherrors.KindExecution))
	assert.ErrorIs(t, err, boom)
}

func TestInvokeExecution_RecoversPanic(t *testing.T) {
	fi := Make(1)
	err := fi.InvokeExecution(func(int) { panic("device fault") })
	require.Error(t, err)
	assert.True(t, aherrors.IsKind(err, aherrors.KindExecution))
	assert.Contains(t, err.Error(), "device fault")

	assert.Panics(t, func() { _ = fi.InvokeControl(func(int) { panic("control fault") }) })
}

func TestInvokeExecution_PanicClearsReturnValue(t *testing.T) {
	fi := Make(arg1, arg2, arg3)
	require.NoError(t, fi.InvokeExecution(threeArgString))
	_, ok := fi.ReturnValue()
	require.True(t, ok)

	err := fi.InvokeExecution(func(int64, float64, string) string { panic("device fault") })
	require.Error(t, err)
	ret, ok := fi.ReturnValue()
	assert.False(t, ok, "a panicking call leaves no return value")
	assert.Nil(t, ret)
}

func TestInvokeExecution_KeepsExecutionErrors(t *testing.T) {
	inner := aherrors.Execution("parallel", errors.New("lane 3"))
	err := Make().InvokeExecution(func() error { return inner })
	assert.Same(t, inner, err)
}

func TestInvoke_TypeChecks(t *testing.T) {
	tests := []struct {
		name     string
		fi       *Interface
		callable any
	}{
		{"not a function", Make(1), 42},
		{"nil function", Make(1), (func(int))(nil)},
		{"too few slots", Make(1), func(int, int) {}},
		{"too many slots", Make(1, 2), func(int) {}},
		{"wrong type", Make("x"), func(int) {}},
		{"lossy float", Make(1.5), func(int) {}},
		{"negative to unsigned", Make(-1), func(uint8) {}},
		{"overflow", Make(300), func(uint8) {}},
		{"large unsigned to signed", Make(uint64(1 << 63)), func(int64) {}},
		{"nil for value", Make(nil), func(int) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fi.InvokeControl(tt.callable)
			require.Error(t, err)
			assert.True(t, aherrors.IsKind(err, aherrors.KindTypeMismatch), err.Error())
		})
	}
}

func TestInvoke_Coercion(t *testing.T) {
	var got []any
	fi := Make(3, 2.0, int8(-4), nil, uint16(7))
	require.NoError(t, fi.InvokeControl(func(a float64, b int32, c int64, d *int, e ...uint64) {
		got = append(got, a, b, c, d == nil, e)
	}))
	assert.Equal(t, []any{3.0, int32(2), int64(-4), true, []uint64{7}}, got)
}

func TestAppend(t *testing.T) {
	fi2 := Make(arg1, arg2)
	fi3 := fi2.Append(arg3)
	assert.Equal(t, 2, fi2.Arity(), "receiver unmodified")
	assert.Equal(t, 3, fi3.Arity())
	assert.Equal(t, arg3, fi3.Parameter(3))

	require.NoError(t, fi3.InvokeExecution(threeArgString))
	result, _ := Return[string](fi3)
	assert.Equal(t, "1234 5678.125 Third argument", result)

	fi5 := Make(arg1, arg2, arg3).Append(arg4).Append(arg5)
	assert.Equal(t, 5, fi5.Arity())
	assert.Equal(t, []any{arg1, arg2, arg3, arg4, arg5}, fi5.Parameters())
}

func TestReplace(t *testing.T) {
	fi := Make(arg1, arg2, arg3, arg4, arg5)
	swizzled := fi.
		Replace(1, arg5).
		Replace(2, arg4).
		Replace(4, arg2).
		Replace(5, arg1)

	assert.Equal(t, []any{arg5, arg4, arg3, arg2, arg1}, swizzled.Parameters())
	assert.Equal(t, []any{arg1, arg2, arg3, arg4, arg5}, fi.Parameters(), "receiver unmodified")
}

func TestAppendAndReplace_CarryReturnValue(t *testing.T) {
	fi := Make(arg1, arg2, arg3)
	require.NoError(t, fi.InvokeControl(threeArgString))

	for name, next := range map[string]*Interface{
		"append":  fi.Append(arg4),
		"replace": fi.Replace(3, arg5),
	} {
		t.Run(name, func(t *testing.T) {
			got, ok := Return[string](next)
			require.True(t, ok)
			assert.Equal(t, "1234 5678.125 Third argument", got)
		})
	}
}

func toString(_ int, v any) (any, error) { return fmt.Sprint(v), nil }

func TestTransformedInvoke(t *testing.T) {
	fi := Make(arg1, arg2, arg3)
	require.NoError(t, fi.TransformedInvoke(func(a, b, c string) string {
		return a + " " + b + " " + c
	}, toString))

	result, ok := Return[string](fi)
	require.True(t, ok)
	assert.Equal(t, "1234 5678.125 Third argument", result)
	assert.Equal(t, arg1, fi.Parameter(1), "slots are not transformed in place")

	err := fi.TransformedInvokeExecution(func(string, string, string) error {
		return errors.New("kernel failed")
	}, toString)
	assert.True(t, aherrors.IsKind(err, aherrors.KindExecution))

	failing := func(k int, v any) (any, error) {
		if k == 2 {
			return nil, aherrors.ValueError(aherrors.PhaseInvoke, "bad slot")
		}
		return v, nil
	}
	err = fi.TransformedInvoke(func(int64, float64, string) {}, failing)
	assert.True(t, aherrors.IsKind(err, aherrors.KindValue))
}

func TestStaticTransformAndForEach(t *testing.T) {
	fi := Make(arg1, arg2, arg3)
	strs, err := fi.Transform(toString)
	require.NoError(t, err)
	assert.Equal(t, []any{"1234", "5678.125", "Third argument"}, strs.Parameters())

	var seen []int
	require.NoError(t, fi.ForEach(func(k int, v any) error {
		seen = append(seen, k)
		return nil
	}))
	assert.Equal(t, []int{1, 2, 3}, seen)

	stop := errors.New("stop")
	count := 0
	assert.Same(t, stop, fi.ForEach(func(k int, _ any) error {
		count++
		if k == 2 {
			return stop
		}
		return nil
	}))
	assert.Equal(t, 2, count)
}

func TestDynamicTransform_TypedAndTextual(t *testing.T) {
	fi := Make(arg1, "a", "b")
	resolver := Candidates{Exact[int64](), Textual[int64](), Exact[string]()}

	var combos [][]any
	require.NoError(t, fi.DynamicTransform(resolver, func(r *Interface) error {
		combos = append(combos, r.Parameters())
		return nil
	}))

	assert.Equal(t, [][]any{
		{arg1, "a", "b"},
		{"1234", "a", "b"},
	}, combos)
}

func TestDynamicTransform_EveryNonStringTwice(t *testing.T) {
	// Strings resolve once, everything else resolves to itself and its text.
	resolver := ResolverFunc(func(_ int, v any) ([]any, error) {
		if s, ok := v.(string); ok {
			return []any{s}, nil
		}
		return []any{v, fmt.Sprint(v)}, nil
	})

	fi := Make(arg1, arg2, arg3)
	seen := map[string]int{}
	calls := 0
	require.NoError(t, fi.DynamicTransform(resolver, func(r *Interface) error {
		calls++
		assert.Equal(t, fmt.Sprint(arg1), fmt.Sprint(r.Parameter(1)))
		assert.Equal(t, fmt.Sprint(arg2), fmt.Sprint(r.Parameter(2)))
		assert.Equal(t, arg3, r.Parameter(3))
		seen[fmt.Sprintf("%T/%T", r.Parameter(1), r.Parameter(2))]++
		return nil
	}))

	assert.Equal(t, 4, calls)
	assert.Equal(t, map[string]int{
		"int64/float64":  1,
		"int64/string":   1,
		"string/float64": 1,
		"string/string":  1,
	}, seen)
}

func TestDynamicTransform_Errors(t *testing.T) {
	fi := Make(arg1, 3.5)
	err := fi.DynamicTransform(Candidates{Exact[int64]()}, func(*Interface) error {
		t.Fatal("continuation must not run")
		return nil
	})
	require.Error(t, err)
	assert.True(t, aherrors.IsKind(err, aherrors.KindTypeMismatch))
	assert.Contains(t, err.Error(), "slot.2")

	empty := ResolverFunc(func(int, any) ([]any, error) { return nil, nil })
	err = fi.DynamicTransform(empty, func(*Interface) error { return nil })
	assert.True(t, aherrors.IsKind(err, aherrors.KindTypeMismatch))

	stop := errors.New("stop")
	calls := 0
	err = Make(1, 2).DynamicTransform(ResolverFunc(func(_ int, v any) ([]any, error) {
		return []any{v, v}, nil
	}), func(*Interface) error {
		calls++
		return stop
	})
	assert.Same(t, stop, err)
	assert.Equal(t, 1, calls)
}

func TestDynamicTransform_NoSlots(t *testing.T) {
	calls := 0
	require.NoError(t, Make().DynamicTransform(Candidates{}, func(r *Interface) error {
		calls++
		assert.Zero(t, r.Arity())
		return nil
	}))
	assert.Equal(t, 1, calls)
}
