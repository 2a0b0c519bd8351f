// Package stax decodes XML event streams onto go values without building an
// intermediate document tree. A [Cursor] wraps a pull parser (any
// [encoding/xml.TokenReader], usually an [encoding/xml.Decoder]) and exposes
// the stream as start-tag/end-tag events plus an integer nesting depth. The
// [Decoder.Unmarshal] function walks the target type, compiles a table of
// tag-path bindings for it, and drives the same depth-based traversal for
// every structured type: scalars, nested structs, repeated elements and
// key/value entry maps are all recognized by matching the cursor's position
// against slash-separated path expressions like "details/item".
//
// Generated or hand-written decoders that want to avoid reflection can build
// the binding tables directly with [NewComposite], [Field], [List] and
// [MapEntry].
package stax
