// Package dictutil provides dotted-path accessors over map[string]interface{} trees,
// the Go equivalent of octoploy/utils/DictUtils.py, for reading and rewriting nested
// fields such as spec.template.metadata.labels.name. No other package of this module
// imports it at present.
package dictutil

import "strings"

// Get reads the value at the dotted path, returning (nil, false) if any segment is
// missing or not a map.
func Get(data map[string]interface{}, path string) (interface{}, bool) {
	segments := strings.Split(path, ".")
	var cur interface{} = data
	for _, seg := range segments {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// GetString is Get narrowed to string values.
func GetString(data map[string]interface{}, path string) (string, bool) {
	v, ok := Get(data, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set writes value at the dotted path, creating intermediate maps as needed.
func Set(data map[string]interface{}, path string, value interface{}) {
	segments := strings.Split(path, ".")
	cur := data
	for i, seg := range segments {
		if i == len(segments)-1 {
			cur[seg] = value
			return
		}
		next, ok := cur[seg].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			cur[seg] = next
		}
		cur = next
	}
}

// Delete removes the value at the dotted path. Missing intermediate segments are a no-op.
func Delete(data map[string]interface{}, path string) {
	segments := strings.Split(path, ".")
	cur := data
	for i, seg := range segments {
		if i == len(segments)-1 {
			delete(cur, seg)
			return
		}
		next, ok := cur[seg].(map[string]interface{})
		if !ok {
			return
		}
		cur = next
	}
}
