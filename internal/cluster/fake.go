package cluster

import (
	"context"
	"fmt"
	"sort"

	"github.com/octoploy/octoploy-go/internal/errs"
	"github.com/octoploy/octoploy-go/internal/k8sobj"
)

// Fake is an in-memory API implementation for tests. It never talks to a real cluster.
type Fake struct {
	objects     map[string]map[string]interface{} // "namespace/fqn" -> data
	namespaces  map[string]bool
	context     string
	ApplyCalls  int
	DeleteCalls int
}

// NewFake returns an empty fake cluster.
func NewFake() *Fake {
	return &Fake{
		objects:    map[string]map[string]interface{}{},
		namespaces: map[string]bool{},
	}
}

func fakeKey(namespace, fqn string) string {
	return namespace + "/" + fqn
}

// Seed preloads an object as if it already existed on the cluster.
func (f *Fake) Seed(data map[string]interface{}) error {
	obj, err := k8sobj.New(data)
	if err != nil {
		return err
	}
	f.namespaces[obj.Namespace()] = true
	f.objects[fakeKey(obj.Namespace(), obj.FQN())] = obj.Data
	return nil
}

func (f *Fake) Get(_ context.Context, fqn, namespace string) (map[string]interface{}, error) {
	obj, ok := f.objects[fakeKey(namespace, fqn)]
	if !ok {
		return nil, nil
	}
	return obj, nil
}

func (f *Fake) Apply(_ context.Context, data map[string]interface{}, namespace string) error {
	obj, err := k8sobj.New(data)
	if err != nil {
		return err
	}
	f.namespaces[namespace] = true
	f.objects[fakeKey(namespace, obj.FQN())] = obj.Data
	f.ApplyCalls++
	return nil
}

func (f *Fake) Delete(_ context.Context, fqn, namespace string) error {
	delete(f.objects, fakeKey(namespace, fqn))
	f.DeleteCalls++
	return nil
}

func (f *Fake) Annotate(_ context.Context, fqn, namespace, key string, value *string) error {
	obj, ok := f.objects[fakeKey(namespace, fqn)]
	if !ok {
		return fmt.Errorf("%w: %s not found", errs.ErrClusterError, fqn)
	}
	metadata, _ := obj["metadata"].(map[string]interface{})
	if metadata == nil {
		metadata = map[string]interface{}{}
		obj["metadata"] = metadata
	}
	annotations, _ := metadata["annotations"].(map[string]interface{})
	if annotations == nil {
		annotations = map[string]interface{}{}
		metadata["annotations"] = annotations
	}
	if value == nil {
		delete(annotations, key)
		return nil
	}
	annotations[key] = *value
	return nil
}

func (f *Fake) Rollout(_ context.Context, _, _, _ string) error {
	return nil
}

func (f *Fake) GetPods(_ context.Context, _, _ string) ([]string, error) {
	return nil, nil
}

func (f *Fake) Exec(_ context.Context, _ string, _ string, _ []string, _ string) (string, error) {
	return "", nil
}

func (f *Fake) SwitchContext(ctx string) error {
	f.context = ctx
	return nil
}

func (f *Fake) GetNamespaces(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(f.namespaces))
	for ns := range f.namespaces {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names, nil
}

func (f *Fake) DryRun(_ context.Context, data map[string]interface{}, _ string) (map[string]interface{}, error) {
	return data, nil
}

// WaitReady is a no-op for the fake cluster: every applied object is immediately ready.
func (f *Fake) WaitReady(_ context.Context, _ []*k8sobj.Object) error {
	return nil
}
