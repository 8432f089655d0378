// Package schema composes small metadata-extraction transforms. Each
// transform yields a tagged result: Matched with a value, Skipped (omit the
// field), or Failed (no transform applied). Composition happens through
// ordinary control flow rather than error unwinding.
package schema

import "fmt"

type status int

const (
	matched status = iota
	skipped
	failed
)

// Result is the outcome of applying a transform to a metadata bag.
type Result struct {
	status status
	value  any
	err    error
}

// Match wraps an extracted value.
func Match(value any) Result {
	return Result{status: matched, value: value}
}

// Skip marks a field as intentionally absent.
func Skip() Result {
	return Result{status: skipped}
}

// Fail marks a transform as not applicable.
func Fail(err error) Result {
	return Result{status: failed, err: err}
}

// Matched reports whether the transform produced a value.
func (r Result) Matched() bool { return r.status == matched }

// Skipped reports whether the field should be omitted.
func (r Result) Skipped() bool { return r.status == skipped }

// Value returns the matched value, or nil.
func (r Result) Value() any { return r.value }

// Err returns the failure reason, or nil.
func (r Result) Err() error { return r.err }

// Transform extracts one field from a metadata bag.
type Transform func(data map[string]any) Result

// Key matches the value stored under key, failing when absent.
func Key(key string) Transform {
	return func(data map[string]any) Result {
		if v, ok := data[key]; ok {
			return Match(v)
		}
		return Fail(fmt.Errorf("schema: missing key %q", key))
	}
}

// First tries transforms in order and returns the first match. Skips
// propagate; if nothing matches, the whole transform fails.
func First(transforms ...Transform) Transform {
	return func(data map[string]any) Result {
		for _, t := range transforms {
			r := t(data)
			if r.Matched() || r.Skipped() {
				return r
			}
		}
		return Fail(fmt.Errorf("schema: no transform matched"))
	}
}

// Default always matches the given value.
func Default(value any) Transform {
	return func(map[string]any) Result {
		return Match(value)
	}
}

// Empty always skips.
func Empty() Transform {
	return func(map[string]any) Result {
		return Skip()
	}
}

// Dict applies a schema of transforms and assembles the matched fields into
// a map. Skipped fields are omitted; any failure fails the whole dict.
func Dict(fields map[string]Transform) Transform {
	return func(data map[string]any) Result {
		out := make(map[string]any, len(fields))
		for key, t := range fields {
			r := t(data)
			switch {
			case r.Skipped():
				continue
			case !r.Matched():
				return Fail(fmt.Errorf("schema: field %q: %w", key, r.Err()))
			default:
				out[key] = r.Value()
			}
		}
		return Match(out)
	}
}
