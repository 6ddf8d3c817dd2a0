// Package treewalker implements the in-place recursive tree traversal shared by
// processors that need to touch every string leaf, and optionally every mapping node,
// of a K8sObject's data tree. Grounded on octoploy/processing/TreeWalker.py's
// TreeProcessor/TreeWalker pair.
package treewalker

// Visitor processes every string leaf encountered while walking a map[string]interface{}
// tree. parent is the map directly holding value under key; returning an error aborts
// the walk immediately. The return value usually is a string, but may be any type: a
// leaf that resolves entirely to a non-string replacement (a templated variable
// reference expanding to a mapping, list, number, or bool) replaces the string in place.
type Visitor interface {
	VisitString(value string, parent map[string]interface{}, key string) (interface{}, error)
}

// ObjectVisitor is an optional extension to Visitor: when a Visitor also implements it,
// Walk calls VisitObject on every mapping node before recursing into its (possibly
// replaced) children. Returning a nil map with a nil error drops the branch entirely -
// the caller must not reference it afterward. This mirrors process_object's role in the
// original, used by TemplateProcessor to splice "_merge" keys into their parent map.
type ObjectVisitor interface {
	VisitObject(value map[string]interface{}) (map[string]interface{}, error)
}

// Walk mutates data in place, replacing every string leaf with the value returned by
// v.VisitString. Lists are walked element-wise; nested maps recurse depth-first. If v
// also implements ObjectVisitor, every nested mapping is first passed through
// VisitObject; data itself (the root) is not.
func Walk(v Visitor, data map[string]interface{}) error {
	for key, value := range data {
		newVal, dropped, err := processItem(v, value, data, key)
		if err != nil {
			return err
		}
		if dropped {
			delete(data, key)
			continue
		}
		data[key] = newVal
	}
	return nil
}

func processItem(v Visitor, value interface{}, parent map[string]interface{}, key string) (interface{}, bool, error) {
	switch val := value.(type) {
	case []interface{}:
		for i, item := range val {
			nv, dropped, err := processItem(v, item, parent, key)
			if err != nil {
				return nil, false, err
			}
			if dropped {
				nv = nil
			}
			val[i] = nv
		}
		return val, false, nil
	case string:
		replaced, err := v.VisitString(val, parent, key)
		return replaced, false, err
	case map[string]interface{}:
		resolved, dropped, err := walkObject(v, val)
		return resolved, dropped, err
	default:
		return value, false, nil
	}
}

func walkObject(v Visitor, data map[string]interface{}) (map[string]interface{}, bool, error) {
	if ov, ok := v.(ObjectVisitor); ok {
		replaced, err := ov.VisitObject(data)
		if err != nil {
			return nil, false, err
		}
		if replaced == nil {
			return nil, true, nil
		}
		data = replaced
	}
	if err := Walk(v, data); err != nil {
		return nil, false, err
	}
	return data, false, nil
}
