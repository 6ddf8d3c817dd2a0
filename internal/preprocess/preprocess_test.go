package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoploy/octoploy-go/internal/k8sobj"
)

func deploymentConfig() *k8sobj.Object {
	obj, err := k8sobj.New(map[string]interface{}{
		"kind":       "DeploymentConfig",
		"apiVersion": "v1",
		"metadata":   map[string]interface{}{"name": "web"},
		"spec": map[string]interface{}{
			"selector": map[string]interface{}{"name": "web"},
			"strategy": map[string]interface{}{"type": "Rolling"},
			"template": map[string]interface{}{
				"metadata": map[string]interface{}{"labels": map[string]interface{}{"name": "web"}},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return obj
}

func TestProcessRewritesDeploymentConfigInK8sMode(t *testing.T) {
	obj := deploymentConfig()
	require.NoError(t, Process("k8s", obj))

	assert.Equal(t, "Deployment", obj.Kind())
	assert.Equal(t, "apps/v1", obj.APIVersion())

	spec := obj.Data["spec"].(map[string]interface{})
	selector := spec["selector"].(map[string]interface{})
	assert.Equal(t, "web", selector["matchLabels"].(map[string]interface{})["app"])
	assert.Equal(t, "RollingUpdate", spec["strategy"].(map[string]interface{})["type"])

	labels := spec["template"].(map[string]interface{})["metadata"].(map[string]interface{})["labels"].(map[string]interface{})
	assert.Equal(t, "web", labels["app"])
	_, hasName := labels["name"]
	assert.False(t, hasName)
}

func TestProcessLegacyK8ModeAlsoApplies(t *testing.T) {
	obj := deploymentConfig()
	require.NoError(t, Process("k8", obj))
	assert.Equal(t, "Deployment", obj.Kind())
}

func TestProcessOcModePassesThrough(t *testing.T) {
	obj := deploymentConfig()
	require.NoError(t, Process("oc", obj))
	assert.Equal(t, "DeploymentConfig", obj.Kind())
}

func TestProcessIgnoresOtherKinds(t *testing.T) {
	obj, _ := k8sobj.New(map[string]interface{}{"kind": "Service", "apiVersion": "v1", "metadata": map[string]interface{}{"name": "web"}})
	require.NoError(t, Process("k8s", obj))
	assert.Equal(t, "Service", obj.Kind())
}
