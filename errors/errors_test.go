package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindTruncated,
				Path:   []string{"input", "record_data"},
				GoType: "[]byte",
				Detail: "need 4 bytes, have 1",
			},
			contains: []string{"[decode]", "truncated", "input.record_data", "[]byte", "need 4 bytes"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseEncode,
				Kind:  KindOverflow,
			},
			contains: []string{"[encode]", "overflow"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseRuntime,
				Kind:   KindAllocation,
				Detail: "alloc returned null",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[runtime]", "allocation", "alloc returned null", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindTruncated,
		Path:  []string{"records"},
	}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindTruncated}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindTruncated}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindOverflow}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseDecode, Kind: KindTruncated}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestError_Within(t *testing.T) {
	err := Truncated([]string{"value"}, 3, 0).Within("records[1]")
	got := strings.Join(err.Path, ".")
	if got != "records[1].value" {
		t.Errorf("Path = %q, want records[1].value", got)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDecode, KindInvalidLength).
		Path("input", "params").
		GoType("string").
		Value(-7).
		Cause(cause).
		Detail("length %d is negative", -7).
		Build()

	if err.Phase != PhaseDecode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
	}
	if err.Kind != KindInvalidLength {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidLength)
	}
	if len(err.Path) != 2 || err.Path[0] != "input" || err.Path[1] != "params" {
		t.Errorf("Path = %v, want [input params]", err.Path)
	}
	if err.GoType != "string" {
		t.Errorf("GoType = %v, want 'string'", err.GoType)
	}
	if err.Value != -7 {
		t.Errorf("Value = %v, want -7", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "length -7 is negative" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Truncated", func(t *testing.T) {
		err := Truncated([]string{"offset"}, 8, 2)
		if err.Phase != PhaseDecode || err.Kind != KindTruncated {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
		if !strings.Contains(err.Detail, "need 8") {
			t.Errorf("Detail = %v", err.Detail)
		}
	})

	t.Run("InvalidLength", func(t *testing.T) {
		err := InvalidLength(PhaseDecode, []string{"value"}, -3)
		if err.Kind != KindInvalidLength {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidLength)
		}
		if err.Value != int64(-3) {
			t.Errorf("Value = %v, want -3", err.Value)
		}
	})

	t.Run("InvalidDiscriminant", func(t *testing.T) {
		err := InvalidDiscriminant(PhaseDecode, []string{"kind"}, 9, 4)
		if err.Kind != KindInvalidVariant {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidVariant)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseEncode, []string{"hint"}, 70000, "int16")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 70000 {
			t.Errorf("Value = %v, want 70000", err.Value)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseHandoff, []string{"memory"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
	})

	t.Run("FieldMissing", func(t *testing.T) {
		err := FieldMissing(PhaseParams, []string{"params"}, "key")
		if err.Kind != KindFieldMissing {
			t.Errorf("Kind = %v, want %v", err.Kind, KindFieldMissing)
		}
	})

	t.Run("FieldUnknown", func(t *testing.T) {
		err := FieldUnknown(PhaseConfig, nil, "extra")
		if err.Kind != KindFieldUnknown {
			t.Errorf("Kind = %v, want %v", err.Kind, KindFieldUnknown)
		}
	})
}

func TestMissingExportsError(t *testing.T) {
	t.Run("lists exports", func(t *testing.T) {
		err := NewMissingExportsError("join.wasm", []string{"memory", "join"})
		msg := err.Error()
		for _, want := range []string{"join.wasm", "2 export(s)", "- memory", "- join"} {
			if !strings.Contains(msg, want) {
				t.Errorf("message %q does not contain %q", msg, want)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		err := NewMissingExportsError("", nil)
		if !strings.Contains(err.Error(), "no exports") || !strings.Contains(err.Error(), string(KindMissingExport)) {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		var err error = NewMissingExportsError("m", []string{"alloc"})
		if !errors.Is(err, &MissingExportsError{}) {
			t.Error("errors.Is should match MissingExportsError")
		}
		if !errors.Is(err, &Error{Phase: PhaseLoad, Kind: KindMissingExport}) {
			t.Error("errors.Is should match the missing_export kind")
		}
		if errors.Is(err, &Error{Phase: PhaseLoad, Kind: KindInvalidData}) {
			t.Error("errors.Is matched an unrelated kind")
		}
	})
}

func TestRuntimeConstructors(t *testing.T) {
	cause := errors.New("wasm error: unreachable")
	trap := Trap("join", cause)
	if trap.Phase != PhaseRuntime || trap.Kind != KindTrap {
		t.Errorf("trap = %+v", trap)
	}
	if !errors.Is(trap, cause) {
		t.Error("trap should unwrap to its cause")
	}
	if !strings.Contains(trap.Error(), "call join") {
		t.Errorf("message = %q", trap.Error())
	}

	closed := Closed("instance")
	if !errors.Is(closed, &Error{Phase: PhaseRuntime, Kind: KindClosed}) {
		t.Errorf("closed = %v", closed)
	}
	if errors.Is(closed, &Error{Phase: PhaseRuntime, Kind: KindTrap}) {
		t.Error("closed matched trap")
	}
}
