package rosmsg

import "strings"

// Flat is a flat record keyed by dotted path, as accumulated by the echo
// parser within one message frame. Re-assignment to an existing path
// overwrites the prior value silently.
type Flat map[string]Value

// Record is a decoded message tree. Each entry maps a path segment to
// either a Value leaf or a nested Record.
type Record map[string]any

// BuildTree converts a flat dotted-path record into a nested record tree.
// Interior mapping nodes are created on demand. When the same path is used
// both as a leaf and as a parent, the later write wins: the observed echo
// format never produces such collisions, so they are not rejected.
func BuildTree(flat Flat) Record {
	root := Record{}
	for key, value := range flat {
		segments := strings.Split(key, ".")
		node := root
		for _, segment := range segments[:len(segments)-1] {
			child, ok := node[segment].(Record)
			if !ok {
				child = Record{}
				node[segment] = child
			}
			node = child
		}
		node[segments[len(segments)-1]] = value
	}
	return root
}
