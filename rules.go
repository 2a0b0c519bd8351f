package stax

import "fmt"

// DecodeFunc decodes one value from the element the cursor is positioned on,
// leaving the cursor just past that element's closing tag. The scalar
// decoders ([DecodeString], [DecodeInt], ...) and the Decode method of a
// [Composite] both have this shape, so nested composites plug into rules the
// same way scalars do.
type DecodeFunc[V any] func(c *Cursor) (V, error)

// Rule binds one tag-path expression to an action on the value under
// construction.
type Rule[T any] struct {
	path pathExpr
	bind func(c *Cursor, target *T) error
}

// Composite is a decoder for one structured type, driven by an ordered table
// of rules. It holds no per-decode state: construct one per type, keep it as
// a package-level singleton and share it freely between concurrent decodes.
type Composite[T any] struct {
	rules []Rule[T]
}

// NewComposite builds a Composite from its binding table. Rules are tested in
// the given order; the first match consumes the element.
func NewComposite[T any](rules ...Rule[T]) *Composite[T] {
	return &Composite[T]{rules: rules}
}

// Decode builds one T from the sub-stream of the element the cursor is
// positioned in, returning with the cursor just past its closing tag. On
// error the partially built value is discarded.
func (d *Composite[T]) Decode(c *Cursor) (T, error) {
	var value T

	err := traverse(c, func(c *Cursor, targetDepth int) error {
		for _, rule := range d.rules {
			if rule.path.matches(c, targetDepth) {
				return rule.bind(c, &value)
			}
		}

		// unknown tag, skip
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return value, nil
}

// Field binds a path to a single-valued field: each match decodes one value
// and hands it to assign. A repeated match overwrites, the last occurrence
// wins.
func Field[T, V any](path string, decode DecodeFunc[V], assign func(target *T, value V)) Rule[T] {
	expr := parsePath(path)

	return Rule[T]{
		path: expr,
		bind: func(c *Cursor, target *T) error {
			value, err := decode(c)
			if err != nil {
				return fmt.Errorf("decode %q: %w", expr.raw, err)
			}

			assign(target, value)
			return nil
		},
	}
}

// List binds a path to a repeated field: each match decodes one element and
// hands it to app, in document order. A single-segment path collects a
// flattened repeated element, a path like "details/item" collects the
// members of a wrapped list.
func List[T, V any](path string, decode DecodeFunc[V], app func(target *T, value V)) Rule[T] {
	return Field(path, decode, app)
}

// MapEntry binds a path naming a key/value entry element, e.g. "tags/entry".
// Each match decodes the entry's <key> and <value> children and hands the
// pair to insert. Inserting into a map gives last-write-wins semantics for
// duplicate keys.
func MapEntry[T any, K comparable, V any](path string, decodeKey DecodeFunc[K], decodeValue DecodeFunc[V], insert func(target *T, key K, value V)) Rule[T] {
	entry := NewComposite[mapEntry[K, V]](
		Field("key", decodeKey, func(e *mapEntry[K, V], key K) { e.Key = key }),
		Field("value", decodeValue, func(e *mapEntry[K, V], value V) { e.Value = value }),
	)

	return Field(path, entry.Decode, func(target *T, e mapEntry[K, V]) {
		insert(target, e.Key, e.Value)
	})
}

type mapEntry[K comparable, V any] struct {
	Key   K
	Value V
}
