package stax

import "fmt"

// dispatchFunc tries the binding table of one composite against the start tag
// the cursor is positioned on. Bindings that match must consume the matched
// element completely before returning.
type dispatchFunc func(c *Cursor, targetDepth int) error

// traverse runs the decode loop shared by every composite decoder. The cursor
// is positioned inside the element owning the composite (or at the very start
// of the document); traverse returns with the cursor just past that element's
// closing tag, or at the end of the document.
//
// Start tags that no binding claims are skipped: a response may carry fields
// newer than the binding table and must still decode.
func traverse(c *Cursor, dispatch dispatchFunc) error {
	originalDepth := c.Depth()

	// direct children appear one level below the owning element. At the very
	// start of the document the root element itself occupies that level, so
	// children sit one level further down.
	targetDepth := originalDepth + 1
	if c.AtStartOfDocument() {
		targetDepth++
	}

	for {
		event, err := c.Next()
		if err != nil {
			return err
		}

		switch event {
		case EndOfDocument:
			// a single-root document may end here, the value built so far
			// is the result
			return nil

		case StartTag:
			if err := dispatch(c, targetDepth); err != nil {
				return err
			}

		case EndTag:
			if c.Depth() < originalDepth {
				// the owning element has closed
				return nil
			}

		default:
			return fmt.Errorf("event %d: %w", event, ErrUnrecognizedState)
		}
	}
}
