package stax

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"
)

type NotSupportedError struct {
	Type reflect.Type
}

func (n NotSupportedError) Error() string {
	return fmt.Sprintf("type %q is not supported", n.Type)
}

// Unmarshal decodes the event stream of c onto the value pointed to by
// target using the default [Decoder].
func Unmarshal(c *Cursor, target any) error {
	return dec.Unmarshal(c, target)
}

func UnmarshalNew[T any](c *Cursor) (T, error) {
	return UnmarshalNewWith[T](&dec, c)
}

func UnmarshalNewWith[T any](dec *Decoder, c *Cursor) (T, error) {
	var target T
	if err := dec.Unmarshal(c, &target); err != nil {
		var zero T
		return zero, err
	}

	return target, nil
}

// A decodeFn decodes one occurrence of a value from the element the cursor
// is positioned on, leaving the cursor just past its closing tag.
type decodeFn func(c *Cursor, target reflect.Value) error

// A set of types that are currently in construction
type typeSet map[reflect.Type]struct{}

var tyTextUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()
var tyTime = reflect.TypeFor[time.Time]()

// The default Decoder instance.
var dec Decoder

// Decoder compiles tag-path binding tables for target types and caches the
// compiled decoders. A compiled decoder is a stateless singleton: built once
// per type, immutable afterwards and shared by reference between concurrent
// decodes. All per-decode state lives on the stack of one Unmarshal call.
type Decoder struct {
	// the struct tag that is used
	structTag string

	// Cache for compiled decoders, indexed by reflect.Type
	decoderCache sync.Map
}

func NewDecoder() *Decoder {
	return &Decoder{
		structTag: "stax",
	}
}

func (d *Decoder) WithTag(structTag string) *Decoder {
	if d.structTag == structTag {
		return d
	}

	return &Decoder{
		structTag: structTag,
	}
}

// Unmarshal decodes the event stream of c onto the value pointed to by
// target. The cursor may be at the very start of a document or positioned
// inside an already opened element; decoding consumes events up to and
// including the closing tag of that element. On error the target is left
// untouched, there is no partially decoded result.
func (d *Decoder) Unmarshal(c *Cursor, target any) error {
	targetValue := reflect.ValueOf(target).Elem()

	// build the decoder for the targets type
	fn, err := d.decoderOf(typeSet{}, targetValue.Type())
	if err != nil {
		return err
	}

	// decode into a fresh value so an aborted decode never leaves a
	// half-filled target behind
	fresh := reflect.New(targetValue.Type()).Elem()
	if err := fn(c, fresh); err != nil {
		return err
	}

	targetValue.Set(fresh)
	return nil
}

func (d *Decoder) decoderOf(inConstruction typeSet, ty reflect.Type) (decodeFn, error) {
	if cached, ok := d.decoderCache.Load(ty); ok {
		return cached.(decodeFn), nil
	}

	if _, ok := inConstruction[ty]; ok {
		// detected a cycle. return a decoder that does a cache lookup when
		// executed. we assume that the actual decoder will be in the cache
		// once this decoder is executed.
		lazyFn := func(c *Cursor, target reflect.Value) error {
			cached, _ := d.decoderCache.Load(ty)
			return cached.(decodeFn)(c, target)
		}

		return lazyFn, nil
	}

	inConstruction[ty] = struct{}{}

	fn, err := d.makeDecoderOf(inConstruction, ty)
	if err != nil {
		return nil, err
	}

	// concurrent first use may race here. both racers build equal stateless
	// decoders and either one may win the store.
	d.decoderCache.Store(ty, fn)

	return fn, nil
}

func (d *Decoder) makeDecoderOf(inConstruction typeSet, ty reflect.Type) (decodeFn, error) {
	if ty == tyTime {
		return decodeTimeValue, nil
	}

	if reflect.PointerTo(ty).Implements(tyTextUnmarshaler) {
		return decodeTextUnmarshalerValue, nil
	}

	switch ty.Kind() {
	case reflect.Bool:
		return decodeBoolValue, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decodeIntValue, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decodeUintValue, nil

	case reflect.Float32, reflect.Float64:
		return decodeFloatValue, nil

	case reflect.String:
		return decodeStringValue, nil

	case reflect.Slice:
		if ty.Elem().Kind() == reflect.Uint8 {
			return decodeBytesValue, nil
		}

		// repeated elements accumulate across matches of their field
		// binding. a bare slice has no binding to accumulate under.
		return nil, NotSupportedError{Type: ty}

	case reflect.Pointer:
		return d.makeFieldDecoder(inConstruction, ty, tagOptions{})

	case reflect.Struct:
		return d.makeStructDecoder(inConstruction, ty)

	default:
		return nil, NotSupportedError{Type: ty}
	}
}

// makeFieldDecoder builds the decoder for one occurrence of a bound field.
// Slices, maps and pointers carry field semantics: a slice appends one
// element per match, a map inserts one entry per match, a pointer allocates
// on the first match and decodes through.
func (d *Decoder) makeFieldDecoder(inConstruction typeSet, ty reflect.Type, opts tagOptions) (decodeFn, error) {
	// scalar leaves win over container kinds: a named slice type with an
	// UnmarshalText method decodes from one text element, not as a
	// repeated field
	if ty == tyTime || reflect.PointerTo(ty).Implements(tyTextUnmarshaler) {
		return d.decoderOf(inConstruction, ty)
	}

	switch {
	case ty.Kind() == reflect.Pointer:
		pointeeType := ty.Elem()

		pointeeFn, err := d.makeFieldDecoder(inConstruction, pointeeType, opts)
		if err != nil {
			return nil, err
		}

		fn := func(c *Cursor, target reflect.Value) error {
			if target.IsNil() {
				target.Set(reflect.New(pointeeType))
			}

			return pointeeFn(c, target.Elem())
		}

		return fn, nil

	case ty.Kind() == reflect.Slice && ty.Elem().Kind() != reflect.Uint8:
		elementType := ty.Elem()

		elementFn, err := d.makeFieldDecoder(inConstruction, elementType, opts)
		if err != nil {
			return nil, fmt.Errorf("decoder for element type %q: %w", ty, err)
		}

		fn := func(c *Cursor, target reflect.Value) error {
			elementValue := reflect.New(elementType).Elem()
			if err := elementFn(c, elementValue); err != nil {
				return fmt.Errorf("decode element idx=%d: %w", target.Len(), err)
			}

			target.Set(reflect.Append(target, elementValue))
			return nil
		}

		return fn, nil

	case ty.Kind() == reflect.Map:
		return d.makeMapDecoder(inConstruction, ty, opts)

	default:
		return d.decoderOf(inConstruction, ty)
	}
}

// makeMapDecoder builds the decoder for one key/value entry element of a map
// field. The entry's children default to <key> and <value>; services that
// name them differently override via the key= and value= tag options.
func (d *Decoder) makeMapDecoder(inConstruction typeSet, ty reflect.Type, opts tagOptions) (decodeFn, error) {
	keyFn, err := d.decoderOf(inConstruction, ty.Key())
	if err != nil {
		return nil, fmt.Errorf("decoder for key type %q: %w", ty, err)
	}

	valueFn, err := d.makeFieldDecoder(inConstruction, ty.Elem(), tagOptions{})
	if err != nil {
		return nil, fmt.Errorf("decoder for value type %q: %w", ty, err)
	}

	keyName := opts.Key
	if keyName == "" {
		keyName = "key"
	}

	valueName := opts.Value
	if valueName == "" {
		valueName = "value"
	}

	keyPath := parsePath(keyName)
	valuePath := parsePath(valueName)

	keyType := ty.Key()
	valueType := ty.Elem()

	fn := func(c *Cursor, target reflect.Value) error {
		keyTarget := reflect.New(keyType).Elem()
		valueTarget := reflect.New(valueType).Elem()

		err := traverse(c, func(c *Cursor, targetDepth int) error {
			switch {
			case keyPath.matches(c, targetDepth):
				return keyFn(c, keyTarget)

			case valuePath.matches(c, targetDepth):
				return valueFn(c, valueTarget)
			}

			return nil
		})
		if err != nil {
			return err
		}

		if target.IsNil() {
			target.Set(reflect.MakeMap(ty))
		}

		// a duplicate key keeps the later entry
		target.SetMapIndex(keyTarget, valueTarget)
		return nil
	}

	return fn, nil
}

func (d *Decoder) makeStructDecoder(inConstruction typeSet, ty reflect.Type) (decodeFn, error) {
	structTag := d.structTag
	if structTag == "" {
		structTag = "stax"
	}

	fields := fieldsToDecode(ty, structTag)

	type binding struct {
		path  pathExpr
		index []int
		fn    decodeFn
	}

	bindings := make([]binding, 0, len(fields))

	for _, field := range fields {
		fn, err := d.makeFieldDecoder(inConstruction, field.Type, field.Options)
		if err != nil {
			return nil, fmt.Errorf("decoder for field %q: %w", field.Path, err)
		}

		bindings = append(bindings, binding{
			path:  parsePath(field.Path),
			index: field.Index,
			fn:    fn,
		})
	}

	fn := func(c *Cursor, target reflect.Value) error {
		return traverse(c, func(c *Cursor, targetDepth int) error {
			for _, b := range bindings {
				if !b.path.matches(c, targetDepth) {
					continue
				}

				fieldValue := target.FieldByIndex(b.index)
				if err := b.fn(c, fieldValue); err != nil {
					return fmt.Errorf("decode field %q on %q: %w", b.path.raw, target.Type(), err)
				}

				return nil
			}

			// unknown tag, skip
			return nil
		})
	}

	return fn, nil
}

func decodeStringValue(c *Cursor, target reflect.Value) error {
	text, err := c.Text()
	if err != nil {
		return err
	}

	target.SetString(text)
	return nil
}

func decodeBoolValue(c *Cursor, target reflect.Value) error {
	value, err := DecodeBool(c)
	if err != nil {
		return err
	}

	target.SetBool(value)
	return nil
}

func decodeIntValue(c *Cursor, target reflect.Value) error {
	text, err := c.Text()
	if err != nil {
		return err
	}

	value, err := strconv.ParseInt(text, 10, target.Type().Bits())
	if err != nil {
		return fmt.Errorf("parse int %q: %w", text, err)
	}

	target.SetInt(value)
	return nil
}

func decodeUintValue(c *Cursor, target reflect.Value) error {
	text, err := c.Text()
	if err != nil {
		return err
	}

	value, err := strconv.ParseUint(text, 10, target.Type().Bits())
	if err != nil {
		return fmt.Errorf("parse uint %q: %w", text, err)
	}

	target.SetUint(value)
	return nil
}

func decodeFloatValue(c *Cursor, target reflect.Value) error {
	text, err := c.Text()
	if err != nil {
		return err
	}

	value, err := strconv.ParseFloat(text, target.Type().Bits())
	if err != nil {
		return fmt.Errorf("parse float %q: %w", text, err)
	}

	target.SetFloat(value)
	return nil
}

func decodeTimeValue(c *Cursor, target reflect.Value) error {
	value, err := DecodeTime(c)
	if err != nil {
		return err
	}

	target.Set(reflect.ValueOf(value))
	return nil
}

func decodeBytesValue(c *Cursor, target reflect.Value) error {
	value, err := DecodeBytes(c)
	if err != nil {
		return err
	}

	target.SetBytes(value)
	return nil
}

func decodeTextUnmarshalerValue(c *Cursor, target reflect.Value) error {
	text, err := c.Text()
	if err != nil {
		return err
	}

	m := target.Addr().Interface().(encoding.TextUnmarshaler)
	return m.UnmarshalText([]byte(text))
}
