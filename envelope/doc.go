// Package envelope defines the structures exchanged for one SmartModule call.
//
// The host sends an Input: the base offset of the batch, the record batch as
// an independently encoded byte slice, optional parameters and, for joins, the
// right-hand record as another independently encoded slice. The guest answers
// with an Output: the records that succeeded, in order, and at most one
// RuntimeError describing the record that user logic rejected.
//
// Input fields are versioned (see smartmodule.VersionParams and friends); an
// older decoder stops after the fields it knows.
package envelope
