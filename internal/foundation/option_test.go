package foundation

import (
	"strconv"
	"testing"
)

func TestOption(t *testing.T) {
	t.Run("Some keeps empty values", func(t *testing.T) {
		opt := Some("")
		if opt.IsNone() {
			t.Fatal("expected Some(\"\") to be present")
		}
		v, ok := opt.Get()
		if !ok || v != "" {
			t.Errorf("Get() = %q, %v; want \"\", true", v, ok)
		}
	})

	t.Run("None is absent", func(t *testing.T) {
		opt := None[string]()
		if opt.IsSome() {
			t.Fatal("expected None to be absent")
		}
		if got := opt.UnwrapOr("fallback"); got != "fallback" {
			t.Errorf("UnwrapOr() = %q", got)
		}
		if opt.String() != "None" {
			t.Errorf("String() = %q", opt.String())
		}
	})

	t.Run("Unwrap on None panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		None[int]().Unwrap()
	})

	t.Run("MapOption", func(t *testing.T) {
		got := MapOption(Some(42), strconv.Itoa)
		if got.Unwrap() != "42" {
			t.Errorf("MapOption(Some(42)) = %v", got)
		}
		if MapOption(None[int](), strconv.Itoa).IsSome() {
			t.Error("MapOption(None) should stay None")
		}
	})
}
