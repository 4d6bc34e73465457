// Package params decodes the JSON parameter blob handed to a worker by the platform.
//
// Validation is a presence check on top-level keys. A failed check is reported as a
// *ValidationError, which callers treat as a silent no-op rather than a failure.
package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports a parameter blob that does not carry the keys a worker needs.
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "invalid worker parameters: missing " + strings.Join(e.Missing, ", ")
	}
	return "invalid worker parameters: " + e.Reason
}

// IsValidation reports whether err is a soft validation failure.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// Blob is a decoded parameter blob with its values kept raw until a worker asks for them.
type Blob map[string]json.RawMessage

// Decode parses the --parameters argument. Malformed JSON is a hard error.
func Decode(raw string) (Blob, error) {
	var b Blob
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, fmt.Errorf("failed to parse parameters: %w", err)
	}
	if b == nil {
		b = Blob{}
	}
	return b, nil
}

// Has reports whether key is present, even with a null value.
func (b Blob) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// IsSet reports whether key is present with a non-null value.
func (b Blob) IsSet(key string) bool {
	v, ok := b[key]
	return ok && string(v) != "null"
}

// Require returns a *ValidationError naming every absent key.
func (b Blob) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if !b.Has(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &ValidationError{Missing: missing}
}

// Get decodes the value stored under key into v. Absent or null keys leave v untouched.
func (b Blob) Get(key string, v any) error {
	if !b.IsSet(key) {
		return nil
	}
	if err := json.Unmarshal(b[key], v); err != nil {
		return fmt.Errorf("parameter %q: %w", key, err)
	}
	return nil
}

// Raw returns the undecoded value stored under key.
func (b Blob) Raw(key string) json.RawMessage {
	return b[key]
}
