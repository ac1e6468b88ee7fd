// Join guest that rejects records whose value matches the "reject"
// parameter. Built by the host tests.
package main

import (
	"fmt"

	"github.com/wippyai/smartmodule/guest"
	"github.com/wippyai/smartmodule/record"
)

type params struct {
	Reject string `param:"reject"`
}

func init() {
	guest.JoinWithParams(func(rec, right *record.Record, p *params) ([]byte, []byte, error) {
		if p.Reject != "" && string(rec.Value) == p.Reject {
			return nil, nil, fmt.Errorf("cannot join %s", rec.Value)
		}
		value := append(append([]byte{}, rec.Value...), right.Value...)
		return rec.Key, value, nil
	})
}

func main() {}
