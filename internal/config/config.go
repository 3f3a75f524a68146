// Package config implements the configuration surface shared by the guess
// engine and the CLIs.
//
// Two shapes live here:
//
//   - Options: a free-form key/value map read with typed accessors. Internal
//     plumbing uses the lenient accessors (missing or mistyped keys fall back
//     to a default). User-supplied overrides are read with the strict
//     accessors, which surface a malformed value as an error immediately,
//     before any heuristic runs.
//   - Diff: a mergeable configuration fragment. A guess run produces a Diff;
//     callers merge it into their own configuration. A key explicitly set to
//     nil is meaningful (e.g. "quote": null disables quoting) and is distinct
//     from the key being absent.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"
)

// Options is a free-form options map with typed accessors.
type Options map[string]any

// Has reports whether key is present, even when its value is nil.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Any returns the raw value for key, or nil.
func (o Options) Any(key string) any {
	return o[key]
}

// Bool returns the boolean at key, or def when missing or mistyped.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}

// Int returns the integer at key, or def when missing or mistyped.
// JSON-decoded numbers arrive as float64 and are accepted.
func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// String returns the string at key, or def when missing or mistyped.
func (o Options) String(key, def string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return def
}

// Rune returns the first rune of the string at key, or def when the key is
// missing, mistyped, or empty.
func (o Options) Rune(key string, def rune) rune {
	s, ok := o[key].(string)
	if !ok || s == "" {
		return def
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// StringMap returns the map[string]string at key, tolerating the
// map[string]any shape produced by encoding/json.
func (o Options) StringMap(key string) map[string]string {
	res := make(map[string]string)
	switch m := o[key].(type) {
	case map[string]string:
		for k, v := range m {
			res[k] = v
		}
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				res[k] = s
			}
		}
	}
	return res
}

// Nested returns the Options stored under key, or an empty Options when the
// key is missing. Mirrors "get nested or empty" semantics so callers can
// chain lookups without nil checks.
func (o Options) Nested(key string) Options {
	switch m := o[key].(type) {
	case Options:
		return m
	case map[string]any:
		return Options(m)
	}
	return Options{}
}

// ---- strict override readers ----
//
// Overrides come from user configuration. A present-but-malformed override is
// a configuration error and must abort the guess (not silently fall back).

// StringStrict returns (value, present, err). A present nil value is reported
// as present with an empty string.
func (o Options) StringStrict(key string) (val string, present bool, err error) {
	raw, ok := o[key]
	if !ok {
		return "", false, nil
	}
	if raw == nil {
		return "", true, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", true, fmt.Errorf("config: %s: expected string, got %T", key, raw)
	}
	return s, true, nil
}

// CharStrict reads a single-character override. A nil value is valid and
// reported as present with ch == 0 (explicit "disabled"). A multi-rune string
// is a configuration error.
func (o Options) CharStrict(key string) (ch rune, present bool, err error) {
	s, present, err := o.StringStrict(key)
	if err != nil || !present {
		return 0, present, err
	}
	if s == "" {
		return 0, true, nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, true, fmt.Errorf("config: %s: expected a single character, got %q", key, s)
	}
	return r, true, nil
}

// BoolStrict returns (value, present, err).
func (o Options) BoolStrict(key string) (val bool, present bool, err error) {
	raw, ok := o[key]
	if !ok {
		return false, false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, true, fmt.Errorf("config: %s: expected bool, got %T", key, raw)
	}
	return b, true, nil
}

// ---- mergeable fragments ----

// Diff is a nested configuration fragment produced by a guess run.
// Values set to nil marshal as JSON null and are treated as explicit.
type Diff map[string]any

// NewDiff returns an empty fragment.
func NewDiff() Diff { return Diff{} }

// IsEmpty reports whether the fragment carries no keys at all.
func (d Diff) IsEmpty() bool { return len(d) == 0 }

// Has reports whether key is present, even when its value is nil.
func (d Diff) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Set stores v under key. nil is a valid, explicit value.
func (d Diff) Set(key string, v any) { d[key] = v }

// Get returns the raw value for key, or nil.
func (d Diff) Get(key string) any { return d[key] }

// Merge deep-merges other into d. Nested maps merge recursively; any other
// value in other replaces the value in d, including explicit nils.
func (d Diff) Merge(other Diff) {
	for k, v := range other {
		if sub, ok := asDiff(v); ok {
			if cur, ok := asDiff(d[k]); ok {
				merged := Diff{}
				merged.Merge(cur)
				merged.Merge(sub)
				d[k] = merged
				continue
			}
		}
		d[k] = v
	}
}

// MergeOptions merges an Options map into d with the same deep-merge rules.
func (d Diff) MergeOptions(o Options) {
	d.Merge(Diff(o))
}

// Nested returns the Diff stored under key, or an empty Diff when absent.
func (d Diff) Nested(key string) Diff {
	if sub, ok := asDiff(d[key]); ok {
		return sub
	}
	return Diff{}
}

// SetNested stores a sub-fragment under key.
func (d Diff) SetNested(key string, sub Diff) { d[key] = sub }

// Options converts the fragment to an Options view for typed reads.
func (d Diff) Options() Options { return Options(d) }

func asDiff(v any) (Diff, bool) {
	switch m := v.(type) {
	case Diff:
		return m, true
	case Options:
		return Diff(m), true
	case map[string]any:
		return Diff(m), true
	}
	return nil, false
}

// LoadFile reads a JSON configuration object from path.
func LoadFile(path string) (Options, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var o Options
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return o, nil
}
