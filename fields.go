package stax

import (
	"reflect"
	"slices"
	"strings"
)

type field struct {
	// Path is the tag-path expression the field is bound to,
	// e.g. "status" or "details/item"
	Path    string
	Type    reflect.Type
	Index   []int
	Options tagOptions
}

// tagOptions are the comma separated options following the path in a struct
// tag. key= and value= override the child element names of map entries.
type tagOptions struct {
	Key   string
	Value string
}

func fieldsToDecode(ty reflect.Type, structTag string) []field {
	if ty.Kind() != reflect.Struct {
		panic("not a struct")
	}

	type Queued struct {
		Type        reflect.Type
		ParentIndex []int
	}

	type Candidate struct {
		Path     string
		Explicit bool
		Field    field
	}

	// initialize queue to walk
	queue := []Queued{{Type: ty}}

	candidates := map[string][]Candidate{}

	var order []string

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for idx := range item.Type.NumField() {
			fi := item.Type.Field(idx)
			if !fi.IsExported() {
				continue
			}

			path, opts, explicit := pathOf(fi, structTag)
			if path == "" {
				// this one is skipped
				continue
			}

			// derive index of this one. ensure we allocate a new slice by setting cap to
			// the length of the parents index
			parent := item.ParentIndex
			index := append(parent[:len(parent):len(parent)], fi.Index...)

			if fi.Anonymous && !explicit {
				// this is an embedded field. skip if not struct
				if fi.Type.Kind() != reflect.Struct {
					continue
				}

				// queue for later analysis
				queue = append(queue, Queued{fi.Type, index})
				continue
			}

			if len(candidates[path]) == 0 {
				order = append(order, path)
			}

			candidates[path] = append(candidates[path], Candidate{
				Path:     path,
				Explicit: explicit,
				Field: field{
					Path:    path,
					Index:   index,
					Type:    fi.Type,
					Options: opts,
				},
			})
		}
	}

	var fields []field

	for _, path := range order {
		candidates := candidates[path]

		// INVARIANT Candidates are not empty here
		if len(candidates) == 0 {
			panic("candidates are empty")
		}

		// INVARIANT: verify that sorting holds:
		//  due to walking the type in bfs order, items in candidates are sorted by index length
		//  with the shortest index at the beginning.
		cmp := func(a, b Candidate) int { return len(a.Field.Index) - len(b.Field.Index) }
		if !slices.IsSortedFunc(candidates, cmp) {
			panic("candidates are not sorted")
		}

		var visible []Candidate

		// We take the prefix of candidates that have the same index length
		for idx := 0; idx < len(candidates); idx++ {
			if len(candidates[idx].Field.Index) == len(candidates[0].Field.Index) {
				visible = candidates[:idx+1]
			}
		}

		// if we have exactly one visible item, that one always wins
		if len(visible) == 1 {
			fields = append(fields, visible[0].Field)
			continue
		}

		// keep only explicit candidates
		explicit := slices.DeleteFunc(visible, func(c Candidate) bool { return !c.Explicit })

		// if we have exactly one explicit item, that one wins
		if len(explicit) == 1 {
			fields = append(fields, explicit[0].Field)
			continue
		}

		// No one single candidate found.
		// We ignore this fields and do not raise an error.
	}

	return fields
}

func pathOf(fi reflect.StructField, structTag string) (path string, opts tagOptions, explicit bool) {
	// parse the struct tag to get the path expression and options
	tag := fi.Tag.Get(structTag)

	if tag == "" {
		// tag is empty, take the original name
		return fi.Name, tagOptions{}, false
	}

	if tag == "-" {
		// return empty path to indicate: skip this field
		return "", tagOptions{}, true
	}

	parts := strings.Split(tag, ",")

	for _, part := range parts[1:] {
		switch {
		case strings.HasPrefix(part, "key="):
			opts.Key = strings.TrimPrefix(part, "key=")

		case strings.HasPrefix(part, "value="):
			opts.Value = strings.TrimPrefix(part, "value=")

		default:
			// unknown options are ignored
		}
	}

	if parts[0] == "" {
		// no path before the comma, keep the field name
		return fi.Name, opts, false
	}

	return parts[0], opts, true
}
