package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrInvalidBody is returned when a request body is not a JSON object.
var ErrInvalidBody = errors.New("forms: request body must be a JSON object")

// Decode reads exactly one JSON object into a Submission. Numbers and booleans are
// kept in their textual form (forms post "adults": 2 as often as "2");
// nulls, arrays and nested objects are dropped.
func Decode(r io.Reader) (Submission, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if raw == nil {
		return nil, ErrInvalidBody
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrInvalidBody)
	}

	sub := make(Submission, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			sub[key] = v
		case json.Number:
			sub[key] = v.String()
		case bool:
			sub[key] = strconv.FormatBool(v)
		}
	}
	return sub, nil
}
