// Package k8sobj wraps a raw map[string]interface{} decoded from YAML with the
// accessors the render-and-reconcile pipeline needs: kind, apiVersion, name, namespace,
// the fully-qualified name, and the canonical-dump hash used by the reconciler. It is
// grounded on octoploy/k8s/BaseObj.py (refresh/get_fqn/get_group/is_kind/get_hash).
package k8sobj

import (
	"crypto/md5" //nolint:gosec // md5 is the reconciler's hash algorithm, not used for security
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/octoploy/octoploy-go/internal/errs"
	"github.com/octoploy/octoploy-go/internal/yamlio"
)

// Object wraps a decoded K8s manifest. Data is mutated in place by processors
// throughout the pipeline; Refresh must be called after any mutation that could have
// touched kind, apiVersion, or metadata (for example after a _merge splice).
type Object struct {
	Data map[string]interface{}

	kind       string
	apiVersion string
	name       string
	namespace  string
}

// New wraps data and performs an initial Refresh.
func New(data map[string]interface{}) (*Object, error) {
	o := &Object{Data: data}
	if err := o.Refresh(); err != nil {
		return nil, err
	}
	return o, nil
}

// Refresh re-reads kind, apiVersion, and metadata.{name,namespace} from Data. Template
// processing can introduce or rewrite these fields (via _merge or substitution), so
// every processor that mutates Data is required to call Refresh before the object is
// used again.
func (o *Object) Refresh() error {
	kind, _ := o.Data["kind"].(string)
	if kind == "" {
		return fmt.Errorf("%w: object has no kind", errs.ErrValueError)
	}
	o.kind = kind
	apiVersion, _ := o.Data["apiVersion"].(string)
	o.apiVersion = apiVersion

	meta, _ := o.Data["metadata"].(map[string]interface{})
	if meta == nil {
		meta = map[string]interface{}{}
		o.Data["metadata"] = meta
	}
	o.name, _ = meta["name"].(string)
	o.namespace, _ = meta["namespace"].(string)
	return nil
}

func (o *Object) Kind() string       { return o.kind }
func (o *Object) APIVersion() string { return o.apiVersion }
func (o *Object) Name() string       { return o.name }
func (o *Object) Namespace() string  { return o.namespace }

// Metadata returns the metadata map, creating it if absent.
func (o *Object) Metadata() map[string]interface{} {
	meta, _ := o.Data["metadata"].(map[string]interface{})
	if meta == nil {
		meta = map[string]interface{}{}
		o.Data["metadata"] = meta
	}
	return meta
}

// SetNamespace writes metadata.namespace and refreshes the cached value.
func (o *Object) SetNamespace(ns string) {
	o.Metadata()["namespace"] = ns
	o.namespace = ns
}

// Group returns the API group portion of apiVersion ("" for core/v1-style versions
// with no slash).
func (o *Object) Group() string {
	if idx := strings.Index(o.apiVersion, "/"); idx >= 0 {
		return o.apiVersion[:idx]
	}
	return ""
}

// FQN returns the fully-qualified name: "Kind.Group/Name" when apiVersion carries a
// group, else "Kind/Name".
func (o *Object) FQN() string {
	if group := o.Group(); group != "" {
		return fmt.Sprintf("%s.%s/%s", o.kind, group, o.name)
	}
	return fmt.Sprintf("%s/%s", o.kind, o.name)
}

// IsKind reports whether the object's kind matches exactly.
func (o *Object) IsKind(kind string) bool {
	return o.kind == kind
}

// RequireKind returns a ValueError-flavored error if the object is not of the given
// kind; useful where a processor only makes sense for one kind (e.g. SecretObj).
func (o *Object) RequireKind(kind string) error {
	if !o.IsKind(kind) {
		return fmt.Errorf("%w: expected kind %s, got %s", errs.ErrValueError, kind, o.kind)
	}
	return nil
}

// Hash returns the md5 hex digest of the canonical YAML dump of Data.
func (o *Object) Hash() (string, error) {
	dump, err := o.CanonicalDump()
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(dump)) //nolint:gosec // reconciler hash, not a security boundary
	return hex.EncodeToString(sum[:]), nil
}

// CanonicalDump renders Data with sorted keys, quoted strings, and block style - the
// form the reconciler hashes.
func (o *Object) CanonicalDump() (string, error) {
	return yamlio.DumpCanonical(o.Data)
}

// Clone deep-copies the object by recursively copying its maps and lists, so the
// bundle can hold its own copy independent of the source document.
func (o *Object) Clone() (*Object, error) {
	cloned := deepCopyMap(o.Data)
	return New(cloned)
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return deepCopyMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return val
	}
}
