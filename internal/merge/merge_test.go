package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoploy/octoploy-go/internal/k8sobj"
)

func deployment(containers ...string) *k8sobj.Object {
	var list []interface{}
	for _, name := range containers {
		list = append(list, map[string]interface{}{"name": name, "image": name + ":latest"})
	}
	obj, err := k8sobj.New(map[string]interface{}{
		"kind":       "Deployment",
		"apiVersion": "apps/v1",
		"metadata":   map[string]interface{}{"name": "web"},
		"spec": map[string]interface{}{
			"template": map[string]interface{}{
				"spec": map[string]interface{}{"containers": list},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return obj
}

func TestMergeContainersByName(t *testing.T) {
	existing := deployment("app")
	incoming := deployment("sidecar")

	merged, err := Merge(existing, incoming)
	require.NoError(t, err)
	assert.True(t, merged)

	spec := existing.Data["spec"].(map[string]interface{})
	tmpl := spec["template"].(map[string]interface{})
	containers := tmpl["spec"].(map[string]interface{})["containers"].([]interface{})
	assert.Len(t, containers, 2)
}

func TestMergeSkippedOnMismatchedSelectorLabel(t *testing.T) {
	a, _ := k8sobj.New(map[string]interface{}{
		"kind": "Deployment", "apiVersion": "apps/v1", "metadata": map[string]interface{}{"name": "web"},
		"spec": map[string]interface{}{"template": map[string]interface{}{"metadata": map[string]interface{}{"labels": map[string]interface{}{"name": "a"}}}},
	})
	b, _ := k8sobj.New(map[string]interface{}{
		"kind": "Deployment", "apiVersion": "apps/v1", "metadata": map[string]interface{}{"name": "web"},
		"spec": map[string]interface{}{"template": map[string]interface{}{"metadata": map[string]interface{}{"labels": map[string]interface{}{"name": "b"}}}},
	})

	merged, err := Merge(a, b)
	require.NoError(t, err)
	assert.False(t, merged)
}

func TestMergeUnsupportedKindAppends(t *testing.T) {
	a, _ := k8sobj.New(map[string]interface{}{"kind": "Service", "apiVersion": "v1", "metadata": map[string]interface{}{"name": "web"}})
	b, _ := k8sobj.New(map[string]interface{}{"kind": "Service", "apiVersion": "v1", "metadata": map[string]interface{}{"name": "web"}})

	merged, err := Merge(a, b)
	require.NoError(t, err)
	assert.False(t, merged)
}
