package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidJSON is returned when the body cannot be parsed as one JSON value.
	ErrInvalidJSON = errors.New("invalid JSON")

	// ErrNotObject is returned when the top-level value is not a JSON object.
	ErrNotObject = errors.New("payload must be a JSON object")

	// ErrNestedValue is returned when a property holds an object or array.
	ErrNestedValue = errors.New("payload values must be scalars")
)

// Validator checks a decoded JSON value.
type Validator interface {
	Validate(ctx context.Context, value any) error
}

// Chain applies a list of validators sequentially.
type Chain struct {
	validators []Validator
}

// NewChain constructs a validator chain.
func NewChain(validators ...Validator) *Chain {
	return &Chain{validators: validators}
}

// Default returns the chain every ingested payload goes through.
func Default() *Chain {
	return NewChain(ObjectValidator{}, FlatValidator{})
}

// Validate executes validators in order until an error occurs.
func (c *Chain) Validate(ctx context.Context, value any) error {
	if c == nil {
		return nil
	}
	for _, v := range c.validators {
		if err := v.Validate(ctx, value); err != nil {
			return err
		}
	}
	return nil
}

// Payload parses raw and runs the chain. The payload is accepted or rejected
// as a whole; on success the returned map holds numbers as json.Number.
func (c *Chain) Payload(ctx context.Context, raw []byte) (map[string]any, error) {
	value, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(ctx, value); err != nil {
		return nil, err
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// Parse decodes exactly one JSON value from raw, keeping numbers as
// json.Number so they survive a round trip unchanged.
func Parse(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrInvalidJSON)
	}
	return value, nil
}
