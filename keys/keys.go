// Package keys derives cache keys from an operation name and its parameters.
//
// A key has the form prefix + operation + ":" + serialized params. Scalars
// serialize to their natural string form and everything else to canonical
// JSON, so structurally equal params always produce the same key.
//
// Map keys are sorted at every depth and nested values are never dropped,
// so keys do not match a producer that only sorts top-level fields.
package keys

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SerializationError reports params that cannot be canonically encoded,
// such as channels, functions or cyclic structures.
type SerializationError struct {
	Operation string
	Err       error
}

func (e *SerializationError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("keys: cannot serialize params: %v", e.Err)
	}
	return fmt.Sprintf("keys: cannot serialize params for operation %q: %v", e.Operation, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Derive builds the cache key for operation called with params.
func Derive(prefix, operation string, params any) (string, error) {
	s, err := Serialize(params)
	if err != nil {
		if se, ok := err.(*SerializationError); ok {
			se.Operation = operation
		}
		return "", err
	}
	return prefix + operation + ":" + s, nil
}

// Operation extracts the operation segment of key: the text between prefix
// and the first ':'. Keys written under another prefix are read from their
// start.
func Operation(prefix, key string) string {
	rest := strings.TrimPrefix(key, prefix)
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		return rest[:i]
	}
	return rest
}

// Serialize renders params into the params segment of a key.
func Serialize(params any) (string, error) {
	switch v := params.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return formatFloat(float64(v), 32), nil
	case float64:
		return formatFloat(v, 64), nil
	}
	return canonicalJSON(params)
}

// formatFloat uses the JSON number form (shortest repr, exponent only for
// very large or very small magnitudes) and falls back to strconv for values
// JSON cannot represent.
func formatFloat(f float64, bits int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	var b []byte
	var err error
	if bits == 32 {
		b, err = json.Marshal(float32(f))
	} else {
		b, err = json.Marshal(f)
	}
	if err != nil {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	return string(b)
}

// canonicalJSON encodes params, decodes them into generic maps and slices and
// encodes again. The encoder writes map keys sorted, so key order of the
// input, at any depth, does not leak into the result.
func canonicalJSON(params any) (string, error) {
	raw, err := encode(params)
	if err != nil {
		return "", &SerializationError{Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", &SerializationError{Err: err}
	}
	if generic == nil {
		return "", nil
	}

	out, err := encode(generic)
	if err != nil {
		return "", &SerializationError{Err: err}
	}
	return string(out), nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
