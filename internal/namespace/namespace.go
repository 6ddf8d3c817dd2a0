// Package namespace fills in an object's default namespace. Grounded on
// octoploy/processing/NamespaceProcessor.py.
package namespace

import "github.com/octoploy/octoploy-go/internal/k8sobj"

// Process sets obj's metadata.namespace to defaultNamespace when it's empty. The
// resulting namespace is the authoritative per-object deploy target.
func Process(defaultNamespace string, obj *k8sobj.Object) error {
	if obj.Namespace() != "" {
		return nil
	}
	obj.SetNamespace(defaultNamespace)
	return nil
}
