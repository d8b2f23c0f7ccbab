package engine

// Params carries the decoded JSON parameters of an inbound command. All
// accessors return a rejection on a missing key or type mismatch; loose
// client input never panics and never silently no-ops.
type Params map[string]any

// Int64 reads an integer parameter (entity ids).
func (p Params) Int64(key string) (int64, error) {
	v, ok := p[key]
	if !ok {
		return 0, Reject("missing parameter %q", key)
	}
	f, ok := v.(float64) // encoding/json decodes numbers as float64
	if !ok || f != float64(int64(f)) {
		return 0, Reject("parameter %q must be an integer", key)
	}
	return int64(f), nil
}

// Int reads an integer parameter (scores, bets, rounds).
func (p Params) Int(key string) (int, error) {
	n, err := p.Int64(key)
	return int(n), err
}

// Bool reads a boolean parameter.
func (p Params) Bool(key string) (bool, error) {
	v, ok := p[key]
	if !ok {
		return false, Reject("missing parameter %q", key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, Reject("parameter %q must be a boolean", key)
	}
	return b, nil
}

// String reads a required string parameter.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", Reject("missing parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", Reject("parameter %q must be a string", key)
	}
	return s, nil
}

// OptString reads an optional string parameter; absent or null yields "".
func (p Params) OptString(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", Reject("parameter %q must be a string", key)
	}
	return s, nil
}

// Ints reads a list of integers (e.g. a balance list).
func (p Params) Ints(key string) ([]int, error) {
	v, ok := p[key]
	if !ok {
		return nil, Reject("missing parameter %q", key)
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, Reject("parameter %q must be a list of integers", key)
	}
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		f, ok := item.(float64)
		if !ok || f != float64(int64(f)) {
			return nil, Reject("parameter %q must be a list of integers", key)
		}
		out = append(out, int(f))
	}
	return out, nil
}
