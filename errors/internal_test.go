package errors

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestSentinels_Values(t *testing.T) {
	want := map[Internal]int32{
		UnknownError:         -1,
		DecodingBaseInput:    -11,
		DecodingRecords:      -22,
		EncodingOutput:       -33,
		ParsingExtraParams:   -44,
		UndefinedRightRecord: -55,
	}
	for kind, code := range want {
		if int32(kind) != code {
			t.Errorf("%s = %d, want %d", kind, int32(kind), code)
		}
	}
	if len(Sentinels()) != len(want) {
		t.Errorf("Sentinels() has %d entries, want %d", len(Sentinels()), len(want))
	}
}

func TestSentinels_Bijection(t *testing.T) {
	seen := make(map[int32]Internal)
	for _, kind := range Sentinels() {
		code := Failure(kind).Code()
		if code >= 0 {
			t.Errorf("%s flattens to non-negative %d", kind, code)
		}
		if prev, dup := seen[code]; dup {
			t.Errorf("%s and %s share code %d", kind, prev, code)
		}
		seen[code] = kind

		back := ParseOutcome(code)
		got, failed := back.Sentinel()
		if !failed || got != kind {
			t.Errorf("ParseOutcome(%d) = %v, want Failure(%s)", code, back, kind)
		}
	}
}

func TestOutcome_CountDisjointFromSentinels(t *testing.T) {
	counts := []int{0, 1, 2, 11, 22, 55, 1000, 1 << 20, MaxCount - 1, MaxCount}
	for _, n := range counts {
		o := Count(n)
		code := o.Code()
		if code < 0 {
			t.Fatalf("Count(%d) flattened to negative %d", n, code)
		}
		back := ParseOutcome(code)
		if back.Failed() {
			t.Errorf("count %d parsed as failure %v", n, back)
		}
		if back.Records() != n {
			t.Errorf("count %d round-tripped to %d", n, back.Records())
		}
		if back.Err() != nil {
			t.Errorf("count %d has error %v", n, back.Err())
		}
	}
}

func TestOutcome_CountOutOfRangePanics(t *testing.T) {
	for _, n := range []int{-1, math.MaxInt32 + 1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Count(%d) did not panic", n)
				}
			}()
			Count(n)
		}()
	}
}

func TestParseOutcome_UnknownNegative(t *testing.T) {
	for _, code := range []int32{-2, -12, -100, math.MinInt32} {
		o := ParseOutcome(code)
		kind, failed := o.Sentinel()
		if !failed || kind != UnknownError {
			t.Errorf("ParseOutcome(%d) = %v, want Failure(UnknownError)", code, o)
		}
	}
}

func TestFailure_NonNegativeBecomesUnknown(t *testing.T) {
	o := Failure(Internal(5))
	if kind, _ := o.Sentinel(); kind != UnknownError {
		t.Errorf("Failure(5) = %v, want UnknownError", o)
	}
}

func TestInternal_Error(t *testing.T) {
	err := Failure(UndefinedRightRecord).Err()
	if err == nil {
		t.Fatal("expected error")
	}
	var sentinel Internal
	if !errors.As(err, &sentinel) || sentinel != UndefinedRightRecord {
		t.Errorf("errors.As = %v, want UndefinedRightRecord", sentinel)
	}
	if !strings.Contains(err.Error(), "UndefinedRightRecord") || !strings.Contains(err.Error(), "-55") {
		t.Errorf("message %q lacks name or code", err.Error())
	}
	if Internal(-99).String() != "Internal(-99)" {
		t.Errorf("unexpected String() %q", Internal(-99).String())
	}
}

func TestInternal_Format(t *testing.T) {
	for _, s := range Sentinels() {
		want := "smartmodule protocol error " + s.String()
		if got := fmt.Sprintf("%v", s); !strings.Contains(got, want) {
			t.Errorf("%%v of %d = %q, want it to contain %q", int32(s), got, want)
		}
		wrapped := fmt.Errorf("call failed: %w", s)
		if !strings.Contains(wrapped.Error(), s.String()) {
			t.Errorf("wrapped message %q lacks %s", wrapped.Error(), s)
		}
	}
}
