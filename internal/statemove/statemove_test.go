package statemove

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoploy/octoploy-go/internal/cluster"
	"github.com/octoploy/octoploy-go/internal/k8sobj"
	"github.com/octoploy/octoploy-go/internal/state"
)

func service(name string) *k8sobj.Object {
	o, err := k8sobj.New(map[string]interface{}{
		"kind": "Service", "apiVersion": "v1",
		"metadata": map[string]interface{}{"name": name, "namespace": "demo"},
	})
	if err != nil {
		panic(err)
	}
	return o
}

func TestMoveRenamesWithinSameStore(t *testing.T) {
	api := cluster.NewFake()
	store := state.New(api, "")
	store.Visit("old-app", service("web"), "h1")

	moved, err := Move(store, store, "old-app", "new-app")
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	_, ok := store.Get("old-app", service("web"))
	assert.False(t, ok)
	_, ok = store.Get("new-app", service("web"))
	assert.True(t, ok)
}

func TestMoveRejectsDifferentDepth(t *testing.T) {
	api := cluster.NewFake()
	store := state.New(api, "")
	_, err := Move(store, store, "a", "a/b")
	require.Error(t, err)
}

func TestMoveToDifferentConfigMap(t *testing.T) {
	ctx := context.Background()
	api := cluster.NewFake()
	source := state.New(api, "")
	source.Visit("web", service("a"), "h1")

	target, targetNamespace, err := TargetForConfigMap(ctx, api, "demo", "demo/backup")
	require.NoError(t, err)
	assert.Equal(t, "demo", targetNamespace)

	moved, err := Move(source, target, "web", "web")
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	_, ok := target.Get("web", service("a"))
	assert.True(t, ok)
}

func TestMoveWithNoMatchesIsNoOp(t *testing.T) {
	api := cluster.NewFake()
	store := state.New(api, "")
	moved, err := Move(store, store, "missing", "also-missing")
	require.NoError(t, err)
	assert.Equal(t, 0, moved)
}
