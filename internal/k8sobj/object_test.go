package k8sobj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoploy/octoploy-go/internal/errs"
)

func TestFQN(t *testing.T) {
	o, err := New(map[string]interface{}{
		"kind":       "Deployment",
		"apiVersion": "apps/v1",
		"metadata":   map[string]interface{}{"name": "web"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Deployment.apps/web", o.FQN())

	o2, err := New(map[string]interface{}{
		"kind":       "Service",
		"apiVersion": "v1",
		"metadata":   map[string]interface{}{"name": "web"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Service/web", o2.FQN())
}

func TestRefreshAfterMerge(t *testing.T) {
	o, err := New(map[string]interface{}{
		"kind":     "ConfigMap",
		"metadata": map[string]interface{}{"name": "a"},
	})
	require.NoError(t, err)

	o.Data["metadata"].(map[string]interface{})["namespace"] = "ns1"
	require.NoError(t, o.Refresh())
	assert.Equal(t, "ns1", o.Namespace())
}

func TestHashIsDeterministic(t *testing.T) {
	data := map[string]interface{}{
		"kind":       "ConfigMap",
		"apiVersion": "v1",
		"metadata":   map[string]interface{}{"name": "a"},
		"data":       map[string]interface{}{"k": "v"},
	}
	o1, err := New(data)
	require.NoError(t, err)
	h1, err := o1.Hash()
	require.NoError(t, err)

	o2, err := o1.Clone()
	require.NoError(t, err)
	h2, err := o2.Hash()
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
}

func TestMissingKindIsValueError(t *testing.T) {
	_, err := New(map[string]interface{}{"metadata": map[string]interface{}{"name": "x"}})
	require.ErrorIs(t, err, errs.ErrValueError)
}
