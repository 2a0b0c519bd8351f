package stax

import "strings"

// pathExpr is a parsed slash-separated tag path like "status" or
// "details/item". It is matched against the cursor's chain of open element
// names relative to a target depth: a one-segment expression names a direct
// child at the target depth, every further segment shifts the expected
// element one level deeper while its ancestors must spell out the leading
// segments.
type pathExpr struct {
	raw      string
	segments []string
}

func parsePath(raw string) pathExpr {
	return pathExpr{
		raw:      raw,
		segments: strings.Split(raw, "/"),
	}
}

// matches reports whether the start tag the cursor is positioned on satisfies
// the expression at targetDepth. Pure predicate, does not advance the cursor.
func (p pathExpr) matches(c *Cursor, targetDepth int) bool {
	if c.Depth() != targetDepth+len(p.segments)-1 {
		return false
	}

	if len(c.stack) < len(p.segments) {
		return false
	}

	tail := c.stack[len(c.stack)-len(p.segments):]
	for idx, segment := range p.segments {
		if tail[idx] != segment {
			return false
		}
	}

	return true
}
