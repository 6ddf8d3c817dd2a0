package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeApplyThenGet(t *testing.T) {
	f := NewFake()
	data := map[string]interface{}{
		"kind": "Service", "apiVersion": "v1",
		"metadata": map[string]interface{}{"name": "web", "namespace": "demo"},
	}
	require.NoError(t, f.Apply(context.Background(), data, "demo"))

	got, err := f.Get(context.Background(), "Service/web", "demo")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, f.ApplyCalls)
}

func TestFakeDeleteIsIdempotent(t *testing.T) {
	f := NewFake()
	require.NoError(t, f.Delete(context.Background(), "Service/missing", "demo"))
	assert.Equal(t, 1, f.DeleteCalls)
}

func TestFakeAnnotate(t *testing.T) {
	f := NewFake()
	data := map[string]interface{}{
		"kind": "Service", "apiVersion": "v1",
		"metadata": map[string]interface{}{"name": "web", "namespace": "demo"},
	}
	require.NoError(t, f.Apply(context.Background(), data, "demo"))

	value := "abc123"
	require.NoError(t, f.Annotate(context.Background(), "Service/web", "demo", "yml-hash", &value))

	got, err := f.Get(context.Background(), "Service/web", "demo")
	require.NoError(t, err)
	annotations := got["metadata"].(map[string]interface{})["annotations"].(map[string]interface{})
	assert.Equal(t, "abc123", annotations["yml-hash"])
}
