// Package merge implements same-FQN object merging within one app's bundle. Grounded on
// octoploy/processing/K8sObjectMerge.py.
package merge

import (
	"github.com/octoploy/octoploy-go/internal/k8sobj"
	"github.com/octoploy/octoploy-go/internal/log"
)

var mergeLog = log.Named("merge")

var namedListKeys = []string{"containers", "volumes"}

// Merge attempts to merge incoming into existing, both assumed to share an FQN. It
// reports whether the merge happened; false means the caller should append incoming as
// a separate object instead.
func Merge(existing, incoming *k8sobj.Object) (bool, error) {
	if isDeploymentLike(existing) && isDeploymentLike(incoming) {
		if !matchingSelectorLabel(existing, incoming) {
			return false, nil
		}
		mergeMap(existing.Data, incoming.Data)
		return true, existing.Refresh()
	}

	mergeLog.Warningf("no merge strategy for kind %q, appending a second object with FQN %s", existing.Kind(), existing.FQN())
	return false, nil
}

func isDeploymentLike(o *k8sobj.Object) bool {
	return o.IsKind("Deployment") || o.IsKind("DeploymentConfig")
}

// matchingSelectorLabel enforces the optional gate: if both templates declare
// spec.template.metadata.labels.name, the values must match, else the merge is skipped.
func matchingSelectorLabel(existing, incoming *k8sobj.Object) bool {
	a, aOk := selectorLabel(existing.Data)
	b, bOk := selectorLabel(incoming.Data)
	if !aOk || !bOk {
		return true
	}
	return a == b
}

func selectorLabel(data map[string]interface{}) (string, bool) {
	spec, _ := data["spec"].(map[string]interface{})
	if spec == nil {
		return "", false
	}
	tmpl, _ := spec["template"].(map[string]interface{})
	if tmpl == nil {
		return "", false
	}
	metadata, _ := tmpl["metadata"].(map[string]interface{})
	if metadata == nil {
		return "", false
	}
	labels, _ := metadata["labels"].(map[string]interface{})
	if labels == nil {
		return "", false
	}
	name, ok := labels["name"].(string)
	return name, ok
}

// mergeMap recursively merges src into dst: missing keys are added, scalar conflicts
// overwrite with a warning, dict values recurse, and list values concatenate except for
// the containers/volumes lists which merge element-wise by name.
func mergeMap(dst, src map[string]interface{}) {
	for key, srcVal := range src {
		dstVal, exists := dst[key]
		if !exists {
			dst[key] = srcVal
			continue
		}
		dst[key] = mergeValue(key, dstVal, srcVal)
	}
}

func mergeValue(key string, dstVal, srcVal interface{}) interface{} {
	dstMap, dstIsMap := dstVal.(map[string]interface{})
	srcMap, srcIsMap := srcVal.(map[string]interface{})
	if dstIsMap && srcIsMap {
		mergeMap(dstMap, srcMap)
		return dstMap
	}

	dstList, dstIsList := dstVal.([]interface{})
	srcList, srcIsList := srcVal.([]interface{})
	if dstIsList && srcIsList {
		if isNamedListKey(key) {
			return mergeNamedList(dstList, srcList)
		}
		return append(dstList, srcList...)
	}

	mergeLog.Warningf("overwriting %q: scalar values conflict", key)
	return srcVal
}

func isNamedListKey(key string) bool {
	for _, k := range namedListKeys {
		if k == key {
			return true
		}
	}
	return false
}

// mergeNamedList merges two lists of mappings by their "name" field: same name recurses
// via mergeMap, an unknown name is appended.
func mergeNamedList(dst, src []interface{}) []interface{} {
	for _, item := range src {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			dst = append(dst, item)
			continue
		}
		name, _ := itemMap["name"].(string)
		merged := false
		for _, existing := range dst {
			existingMap, ok := existing.(map[string]interface{})
			if !ok {
				continue
			}
			if existingName, _ := existingMap["name"].(string); existingName == name {
				mergeMap(existingMap, itemMap)
				merged = true
				break
			}
		}
		if !merged {
			dst = append(dst, item)
		}
	}
	return dst
}
