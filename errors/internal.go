package errors

import (
	"fmt"
	"math"
)

// Internal is a protocol-level failure sentinel returned by a guest entry
// point in place of a success count. Every value is negative.
type Internal int32

const (
	UnknownError         Internal = -1
	DecodingBaseInput    Internal = -11
	DecodingRecords      Internal = -22
	EncodingOutput       Internal = -33
	ParsingExtraParams   Internal = -44
	UndefinedRightRecord Internal = -55
)

var internalNames = map[Internal]string{
	UnknownError:         "UnknownError",
	DecodingBaseInput:    "DecodingBaseInput",
	DecodingRecords:      "DecodingRecords",
	EncodingOutput:       "EncodingOutput",
	ParsingExtraParams:   "ParsingExtraParams",
	UndefinedRightRecord: "UndefinedRightRecord",
}

// Sentinels lists every known protocol sentinel.
func Sentinels() []Internal {
	return []Internal{
		UnknownError,
		DecodingBaseInput,
		DecodingRecords,
		EncodingOutput,
		ParsingExtraParams,
		UndefinedRightRecord,
	}
}

// Known reports whether i is one of the defined sentinels.
func (i Internal) Known() bool {
	_, ok := internalNames[i]
	return ok
}

func (i Internal) String() string {
	if name, ok := internalNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Internal(%d)", int32(i))
}

// Error implements error so a sentinel can be returned by the host directly.
func (i Internal) Error() string {
	return fmt.Sprintf("[%s] %s: smartmodule protocol error %s (%d)", PhaseRuntime, KindProtocol, i.String(), int32(i))
}

// MaxCount is the largest success count representable on the return channel.
const MaxCount = math.MaxInt32

// Outcome is the result of one guest invocation: either the number of records
// published in the response, or a protocol sentinel.
type Outcome struct {
	count   uint32
	failure Internal
}

// Count returns a success outcome. Counts above MaxCount are not representable
// and panic; a decoded batch can never hold more records than that.
func Count(n int) Outcome {
	if n < 0 || n > MaxCount {
		panic(fmt.Sprintf("smartmodule: record count %d outside [0, %d]", n, MaxCount))
	}
	return Outcome{count: uint32(n)}
}

// Failure returns a protocol error outcome.
func Failure(kind Internal) Outcome {
	if kind >= 0 {
		kind = UnknownError
	}
	return Outcome{failure: kind}
}

// Failed reports whether the outcome is a protocol sentinel.
func (o Outcome) Failed() bool {
	return o.failure != 0
}

// Records returns the success count; it is zero for failures.
func (o Outcome) Records() int {
	return int(o.count)
}

// Err returns the sentinel for failed outcomes and nil otherwise.
func (o Outcome) Err() error {
	if o.failure == 0 {
		return nil
	}
	return o.failure
}

// Sentinel returns the protocol sentinel and whether the outcome failed.
func (o Outcome) Sentinel() (Internal, bool) {
	return o.failure, o.failure != 0
}

// Code flattens the outcome to the raw integer returned across the boundary.
// Counts occupy [0, MaxCount] and sentinels are strictly negative.
func (o Outcome) Code() int32 {
	if o.failure != 0 {
		return int32(o.failure)
	}
	return int32(o.count)
}

func (o Outcome) String() string {
	if o.failure != 0 {
		return "Failure(" + o.failure.String() + ")"
	}
	return fmt.Sprintf("Count(%d)", o.count)
}

// ParseOutcome recovers the tagged outcome from a raw return value.
// Negative values that are not defined sentinels map to UnknownError.
func ParseOutcome(code int32) Outcome {
	if code >= 0 {
		return Outcome{count: uint32(code)}
	}
	kind := Internal(code)
	if !kind.Known() {
		kind = UnknownError
	}
	return Outcome{failure: kind}
}
