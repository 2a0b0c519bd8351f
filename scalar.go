package stax

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"golang.org/x/exp/constraints"
)

// The scalar decoders below are the leaves of a decode: each one consumes
// exactly the text of the element the cursor is positioned on, including its
// end tag. Composite decoders rely on this consumption contract to keep their
// depth bookkeeping correct.

// DecodeString returns the text content of the current element.
func DecodeString(c *Cursor) (string, error) {
	return c.Text()
}

// DecodeBool parses the current element's text using [strconv.ParseBool].
func DecodeBool(c *Cursor) (bool, error) {
	text, err := c.Text()
	if err != nil {
		return false, err
	}

	value, err := strconv.ParseBool(text)
	if err != nil {
		return false, fmt.Errorf("parse bool %q: %w", text, err)
	}

	return value, nil
}

// DecodeInt parses the current element's text as a signed integer of the
// target type's bit size.
func DecodeInt[T constraints.Signed](c *Cursor) (T, error) {
	var zero T

	text, err := c.Text()
	if err != nil {
		return zero, err
	}

	value, err := strconv.ParseInt(text, 10, reflect.TypeFor[T]().Bits())
	if err != nil {
		return zero, fmt.Errorf("parse int %q: %w", text, err)
	}

	return T(value), nil
}

// DecodeUint parses the current element's text as an unsigned integer of the
// target type's bit size.
func DecodeUint[T constraints.Unsigned](c *Cursor) (T, error) {
	var zero T

	text, err := c.Text()
	if err != nil {
		return zero, err
	}

	value, err := strconv.ParseUint(text, 10, reflect.TypeFor[T]().Bits())
	if err != nil {
		return zero, fmt.Errorf("parse uint %q: %w", text, err)
	}

	return T(value), nil
}

// DecodeFloat parses the current element's text as a float of the target
// type's bit size.
func DecodeFloat[T constraints.Float](c *Cursor) (T, error) {
	var zero T

	text, err := c.Text()
	if err != nil {
		return zero, err
	}

	value, err := strconv.ParseFloat(text, reflect.TypeFor[T]().Bits())
	if err != nil {
		return zero, fmt.Errorf("parse float %q: %w", text, err)
	}

	return T(value), nil
}

// DecodeTime parses the current element's text as an RFC 3339 timestamp,
// falling back to a unix epoch in seconds with an optional fraction. Those
// are the two timestamp shapes service responses use.
func DecodeTime(c *Cursor) (time.Time, error) {
	text, err := c.Text()
	if err != nil {
		return time.Time{}, err
	}

	if value, err := time.Parse(time.RFC3339, text); err == nil {
		return value, nil
	}

	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", text, err)
	}

	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC(), nil
}

// DecodeBytes parses the current element's text as standard base64.
func DecodeBytes(c *Cursor) ([]byte, error) {
	text, err := c.Text()
	if err != nil {
		return nil, err
	}

	value, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("parse base64 %q: %w", text, err)
	}

	return value, nil
}
