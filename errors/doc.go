// Package errors provides the error taxonomy of the SmartModule protocol.
//
// There are two disjoint layers. Structured errors (Error) describe where and
// why encoding, decoding, loading or invoking failed; they are categorized by
// Phase and Kind and carry a field Path naming the sub-structure involved:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTruncated).
//		Path("input", "record_data").
//		Detail("need 4 bytes, have 1").
//		Build()
//
// Protocol sentinels (Internal) are the fixed negative integers a guest entry
// point returns when the envelope itself is unusable. They share the integer
// return channel with the non-negative success count, so calls are modeled
// with the tagged Outcome and only flattened at the host-call boundary:
//
//	code := errors.Count(3).Code()         // 3
//	code = errors.Failure(errors.DecodingRecords).Code() // -22
//	out := errors.ParseOutcome(code)       // Failure(DecodingRecords)
//
// User-logic failures are not errors of this package; they travel inside the
// encoded response as envelope.RuntimeError.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
