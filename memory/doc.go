// Package memory implements the ownership transfer of byte buffers across the
// guest/host boundary.
//
// A guest produces its response in an exclusively owned Buffer. Release
// relinquishes automatic deallocation: the bytes are pinned so the garbage
// collector keeps them alive, and the raw address and length are returned.
// Handoff releases a buffer and publishes it to a Sink, the host-provided
// registration routine:
//
//	buf := memory.Own(encoded)
//	buf.Handoff(sink) // buf must not be used again
//
// After the handoff the host owns the bytes. It copies them out and calls the
// guest's dealloc export, which ends up in Free.
//
// The same pin table backs the alloc export: the host asks for a buffer with
// Alloc, writes the request into it, and the entry point takes ownership back
// with Adopt.
package memory
