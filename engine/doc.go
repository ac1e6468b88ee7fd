// Package engine executes one SmartModule invocation over an encoded batch.
//
// A Variant describes one SmartModule kind: whether it needs a right-hand join
// record, and how to bind the per-invocation state (typed parameters, the join
// record) into a per-record Step. The Engine drives every variant through the
// same pipeline:
//
//  1. decode the input envelope            -> DecodingBaseInput
//  2. decode the embedded record batch     -> DecodingRecords
//  3. decode the join record, if required  -> UndefinedRightRecord
//  4. bind parameters                      -> ParsingExtraParams
//  5. run Step over the records in order, stopping at the first user error
//  6. encode the response envelope         -> EncodingOutput
//  7. hand the encoded bytes to the host sink and return the success count
//
// Steps 1-4 and 6 are protocol failures: the outcome is a negative sentinel
// and nothing is published. A user error in step 5 is carried inside the
// response as an envelope.RuntimeError and the call still succeeds.
//
// # Variants
//
//	Filter     keep or drop each record
//	Map        replace key and value
//	FilterMap  optionally replace key and value, or drop
//	ArrayMap   expand each record into zero or more records
//	Join       replace key and value using the right-hand record
//
// Each has a ...WithParams form taking a typed parameter struct decoded from
// envelope.Params.
//
// The engine holds no state between calls and performs no I/O.
package engine
