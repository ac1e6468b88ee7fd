// Package smartmodule implements the SmartModule execution contract: the binary
// protocol that lets a stream-processing host run sandboxed, user-supplied
// transformation code against batches of records.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	smartmodule/         Root package with the Kind tag and the protocol version
//	├── codec/           Versioned wire encoding primitives
//	├── record/          Record model and batch encoding
//	├── envelope/        Request/response envelopes, runtime error, parameters
//	├── errors/          Structured errors, protocol sentinels, call outcomes
//	├── memory/          Ownership transfer of buffers across the guest boundary
//	├── engine/          Transform execution engine (join, map, filter, ...)
//	├── guest/           Guest SDK and wasip1 exports
//	├── host/            wazero based host runtime
//	└── config/          SPU configuration record
//
// # Call Flow
//
//  1. The host encodes an envelope.Input and writes it into guest memory via alloc.
//  2. The host calls the variant export (e.g. join) with pointer and length.
//  3. The guest decodes the envelope, runs the transform over each record and
//     encodes an envelope.Output.
//  4. The guest releases the output buffer and publishes it through the
//     imported env.copy_records routine.
//  5. The export returns the success count, or a negative protocol sentinel.
//
// # Writing a SmartModule
//
//	//go:build wasip1
//
//	package main
//
//	func init() {
//	    guest.Join(func(rec, right *record.Record) ([]byte, []byte, error) {
//	        return rec.Key, append(rec.Value, right.Value...), nil
//	    })
//	}
//
//	func main() {}
//
// Build with GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared.
//
// # Thread Safety
//
// host.Engine and host.Module are safe for concurrent use. host.Instance
// serializes calls; each invocation requires exclusive use of its sandbox.
package smartmodule
