// Package guest is the guest-side runtime of a SmartModule.
//
// A module registers its transform from an init function and is built with
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o module.wasm
//
// The package exports alloc, dealloc and one entry point per SmartModule
// kind. Each entry point adopts the request buffer written by the host,
// runs the registered variant through engine.Engine and hands the encoded
// response to the host's env.copy_records import.
//
//	func init() {
//		guest.Join(func(rec, right *record.Record) ([]byte, []byte, error) {
//			return rec.Key, append(rec.Value, right.Value...), nil
//		})
//	}
//
//	func main() {}
//
// An entry point whose kind has no registered transform returns
// errors.UnknownError.
package guest
