package stax

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Event is the kind of structural event a [Cursor] is positioned on.
// Character data, comments, directives and processing instructions are not
// structural and are never surfaced as events.
type Event int

const (
	// NoEvent is returned together with an error.
	NoEvent Event = iota

	// StartTag reports that an element was opened.
	StartTag

	// EndTag reports that an element was closed.
	EndTag

	// EndOfDocument reports that the stream ended with all elements closed.
	// It is the only valid terminal event.
	EndOfDocument
)

// ErrUnrecognizedState is returned when the traversal observes an event it
// has no handling for. This should be unreachable with a well-behaved cursor.
var ErrUnrecognizedState = errors.New("unrecognized decoder state")

// StreamError reports a malformed event stream: unbalanced tags, markup where
// text was expected, or physical end of input while elements are still open.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("malformed event stream: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// Cursor is a forward-only view onto a stream of XML events. It tracks the
// nesting depth and the chain of currently open element names, which is all
// the state the decode traversal needs.
//
// A Cursor is consumed exactly once and must not be shared between
// goroutines.
type Cursor struct {
	tokens xml.TokenReader

	// names of the currently open elements, outermost first.
	// len(stack) is the current depth.
	stack []string

	started bool
}

// NewCursor returns a Cursor reading events from an XML document.
func NewCursor(r io.Reader) *Cursor {
	return NewTokenCursor(xml.NewDecoder(r))
}

// NewTokenCursor returns a Cursor reading events from an arbitrary token
// source. The source does not need to validate tag balance; the Cursor
// re-checks it.
func NewTokenCursor(tokens xml.TokenReader) *Cursor {
	return &Cursor{tokens: tokens}
}

// Depth returns the number of currently open elements. It is incremented
// across a StartTag event and decremented across the matching EndTag event.
func (c *Cursor) Depth() int {
	return len(c.stack)
}

// AtStartOfDocument reports whether no StartTag has been consumed yet.
func (c *Cursor) AtStartOfDocument() bool {
	return !c.started
}

// Name returns the local name of the innermost open element, or the empty
// string outside of the document root.
func (c *Cursor) Name() string {
	if len(c.stack) == 0 {
		return ""
	}

	return c.stack[len(c.stack)-1]
}

// Next advances the stream to the next structural event and returns its kind.
// Reaching the physical end of input while elements are still open is a
// *StreamError, as is an end tag with no matching open element.
func (c *Cursor) Next() (Event, error) {
	for {
		token, err := c.tokens.Token()
		switch {
		case errors.Is(err, io.EOF):
			if len(c.stack) > 0 {
				return NoEvent, &StreamError{Err: fmt.Errorf("element <%s> not closed: %w", c.Name(), io.ErrUnexpectedEOF)}
			}

			return EndOfDocument, nil

		case err != nil:
			return NoEvent, &StreamError{Err: err}
		}

		switch token := token.(type) {
		case xml.StartElement:
			c.started = true
			c.stack = append(c.stack, token.Name.Local)
			return StartTag, nil

		case xml.EndElement:
			if len(c.stack) == 0 {
				return NoEvent, &StreamError{Err: fmt.Errorf("unexpected end tag </%s>", token.Name.Local)}
			}

			c.stack = c.stack[:len(c.stack)-1]
			return EndTag, nil

		default:
			// not structural, keep reading
		}
	}
}

// Text consumes the text content of the element the cursor is positioned on,
// up to and including its end tag. The cursor is left just past the closing
// tag, so depth bookkeeping in the calling traversal stays correct. Child
// elements inside the text content are a *StreamError.
func (c *Cursor) Text() (string, error) {
	if len(c.stack) == 0 {
		return "", &StreamError{Err: errors.New("text requested outside of an element")}
	}

	var text strings.Builder

	for {
		token, err := c.tokens.Token()
		switch {
		case errors.Is(err, io.EOF):
			return "", &StreamError{Err: fmt.Errorf("element <%s> not closed: %w", c.Name(), io.ErrUnexpectedEOF)}

		case err != nil:
			return "", &StreamError{Err: err}
		}

		switch token := token.(type) {
		case xml.CharData:
			text.Write(token)

		case xml.StartElement:
			return "", &StreamError{Err: fmt.Errorf("unexpected element <%s> in text content of <%s>", token.Name.Local, c.Name())}

		case xml.EndElement:
			c.stack = c.stack[:len(c.stack)-1]
			return text.String(), nil

		default:
			// comments and processing instructions are not text
		}
	}
}
