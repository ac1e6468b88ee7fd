package engine

import (
	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/record"
)

// Pair is a key/value produced by user logic. A nil Key means absent.
type Pair struct {
	Key   []byte
	Value []byte
}

// FilterFunc reports whether a record is kept.
type FilterFunc func(rec *record.Record) (bool, error)

// MapFunc returns the new key and value of a record.
type MapFunc func(rec *record.Record) (key, value []byte, err error)

// FilterMapFunc returns the new key and value of a record, or keep=false to
// drop it.
type FilterMapFunc func(rec *record.Record) (key, value []byte, keep bool, err error)

// ArrayMapFunc expands a record into zero or more key/value pairs.
type ArrayMapFunc func(rec *record.Record) ([]Pair, error)

// JoinFunc returns the new key and value of a record given the most recent
// record of the joined stream.
type JoinFunc func(rec, right *record.Record) (key, value []byte, err error)

// Filter builds the filter variant.
func Filter(fn FilterFunc) Variant {
	return stateless(smartmodule.KindFilter, false, func(_ *Invocation) Step {
		return filterStep(fn)
	})
}

// Map builds the map variant.
func Map(fn MapFunc) Variant {
	return stateless(smartmodule.KindMap, false, func(_ *Invocation) Step {
		return mapStep(fn)
	})
}

// FilterMap builds the filter-map variant.
func FilterMap(fn FilterMapFunc) Variant {
	return stateless(smartmodule.KindFilterMap, false, func(_ *Invocation) Step {
		return filterMapStep(fn)
	})
}

// ArrayMap builds the array-map variant.
func ArrayMap(fn ArrayMapFunc) Variant {
	return stateless(smartmodule.KindArrayMap, false, func(_ *Invocation) Step {
		return arrayMapStep(fn)
	})
}

// Join builds the join variant. The join record is mandatory.
func Join(fn JoinFunc) Variant {
	return stateless(smartmodule.KindJoin, true, func(inv *Invocation) Step {
		right := inv.Join
		return mapStep(func(rec *record.Record) ([]byte, []byte, error) {
			return fn(rec, right)
		})
	})
}

// FilterWithParams builds a filter whose logic takes typed parameters.
func FilterWithParams[P any](fn func(rec *record.Record, params *P) (bool, error)) Variant {
	return withParams(smartmodule.KindFilter, false, func(_ *Invocation, p *P) Step {
		return filterStep(func(rec *record.Record) (bool, error) { return fn(rec, p) })
	})
}

// MapWithParams builds a map whose logic takes typed parameters.
func MapWithParams[P any](fn func(rec *record.Record, params *P) ([]byte, []byte, error)) Variant {
	return withParams(smartmodule.KindMap, false, func(_ *Invocation, p *P) Step {
		return mapStep(func(rec *record.Record) ([]byte, []byte, error) { return fn(rec, p) })
	})
}

// FilterMapWithParams builds a filter-map whose logic takes typed parameters.
func FilterMapWithParams[P any](fn func(rec *record.Record, params *P) ([]byte, []byte, bool, error)) Variant {
	return withParams(smartmodule.KindFilterMap, false, func(_ *Invocation, p *P) Step {
		return filterMapStep(func(rec *record.Record) ([]byte, []byte, bool, error) { return fn(rec, p) })
	})
}

// ArrayMapWithParams builds an array-map whose logic takes typed parameters.
func ArrayMapWithParams[P any](fn func(rec *record.Record, params *P) ([]Pair, error)) Variant {
	return withParams(smartmodule.KindArrayMap, false, func(_ *Invocation, p *P) Step {
		return arrayMapStep(func(rec *record.Record) ([]Pair, error) { return fn(rec, p) })
	})
}

// JoinWithParams builds a join whose logic takes typed parameters.
func JoinWithParams[P any](fn func(rec, right *record.Record, params *P) ([]byte, []byte, error)) Variant {
	return withParams(smartmodule.KindJoin, true, func(inv *Invocation, p *P) Step {
		right := inv.Join
		return mapStep(func(rec *record.Record) ([]byte, []byte, error) { return fn(rec, right, p) })
	})
}

func stateless(kind smartmodule.Kind, requiresJoin bool, build func(inv *Invocation) Step) Variant {
	return Variant{
		Kind:         kind,
		RequiresJoin: requiresJoin,
		Bind: func(inv *Invocation) (Step, error) {
			return build(inv), nil
		},
	}
}

func withParams[P any](kind smartmodule.Kind, requiresJoin bool, build func(inv *Invocation, p *P) Step) Variant {
	return Variant{
		Kind:         kind,
		RequiresJoin: requiresJoin,
		Bind: func(inv *Invocation) (Step, error) {
			p := new(P)
			if err := inv.Input.Params.Into(p); err != nil {
				return nil, err
			}
			return build(inv, p), nil
		},
	}
}

func filterStep(fn FilterFunc) Step {
	return func(rec *record.Record, out record.Batch) (record.Batch, error) {
		keep, err := fn(rec)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, *rec)
		}
		return out, nil
	}
}

func mapStep(fn MapFunc) Step {
	return func(rec *record.Record, out record.Batch) (record.Batch, error) {
		key, value, err := fn(rec)
		if err != nil {
			return nil, err
		}
		rec.Key, rec.Value = key, value
		return append(out, *rec), nil
	}
}

func filterMapStep(fn FilterMapFunc) Step {
	return func(rec *record.Record, out record.Batch) (record.Batch, error) {
		key, value, keep, err := fn(rec)
		if err != nil {
			return nil, err
		}
		if !keep {
			return out, nil
		}
		rec.Key, rec.Value = key, value
		return append(out, *rec), nil
	}
}

func arrayMapStep(fn ArrayMapFunc) Step {
	return func(rec *record.Record, out record.Batch) (record.Batch, error) {
		pairs, err := fn(rec)
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			out = append(out, record.Record{
				Key:       p.Key,
				Value:     p.Value,
				Offset:    rec.Offset,
				Timestamp: rec.Timestamp,
			})
		}
		return out, nil
	}
}
