package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoploy/octoploy-go/internal/cluster"
	"github.com/octoploy/octoploy-go/internal/k8sobj"
	"github.com/octoploy/octoploy-go/internal/state"
)

func svc(name string) *k8sobj.Object {
	o, err := k8sobj.New(map[string]interface{}{
		"kind": "Service", "apiVersion": "v1",
		"metadata": map[string]interface{}{"name": name, "namespace": "demo"},
	})
	if err != nil {
		panic(err)
	}
	return o
}

func TestReconcileCreatesWhenAbsent(t *testing.T) {
	api := cluster.NewFake()
	store := state.New(api, "")

	result, err := Reconcile(context.Background(), api, store, "web", svc("a"), Options{})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, 1, api.ApplyCalls)
}

func TestReconcileNoOpWhenHashMatches(t *testing.T) {
	api := cluster.NewFake()
	store := state.New(api, "")
	obj := svc("a")

	_, err := Reconcile(context.Background(), api, store, "web", obj, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, api.ApplyCalls)

	result, err := Reconcile(context.Background(), api, store, "web", obj, Options{})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, 1, api.ApplyCalls)
}

func TestReconcileUpdatesWhenHashDiffers(t *testing.T) {
	api := cluster.NewFake()
	store := state.New(api, "")

	_, err := Reconcile(context.Background(), api, store, "web", svc("a"), Options{})
	require.NoError(t, err)

	changed, err := k8sobj.New(map[string]interface{}{
		"kind": "Service", "apiVersion": "v1",
		"metadata": map[string]interface{}{"name": "a", "namespace": "demo"},
		"spec":     map[string]interface{}{"clusterIP": "10.0.0.1"},
	})
	require.NoError(t, err)

	result, err := Reconcile(context.Background(), api, store, "web", changed, Options{})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, 2, api.ApplyCalls)
}

func TestReconcileAdoptsObjectWithoutState(t *testing.T) {
	api := cluster.NewFake()
	require.NoError(t, api.Seed(map[string]interface{}{
		"kind": "Service", "apiVersion": "v1",
		"metadata": map[string]interface{}{"name": "a", "namespace": "demo"},
	}))
	store := state.New(api, "")

	result, err := Reconcile(context.Background(), api, store, "web", svc("a"), Options{})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, 0, api.ApplyCalls)

	_, ok := store.Get("web", svc("a"))
	assert.True(t, ok)
}

func TestReconcilePlanModeDoesNotApply(t *testing.T) {
	api := cluster.NewFake()
	store := state.New(api, "")

	result, err := Reconcile(context.Background(), api, store, "web", svc("a"), Options{Plan: true})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, 0, api.ApplyCalls)
}

func TestSweepOrphansDeletesUnvisited(t *testing.T) {
	ctx := context.Background()
	api := cluster.NewFake()
	store := state.New(api, "")
	store.Visit("web", svc("a"), "h1")
	store.Visit("web", svc("b"), "h2")
	require.NoError(t, store.Store(ctx, "demo"))

	// Simulate a fresh run: reload state fresh (all unvisited) and only touch "a" again.
	fresh := state.New(api, "")
	require.NoError(t, fresh.Restore(ctx, "demo"))
	fresh.Visit("web", svc("a"), "h1")

	require.NoError(t, SweepOrphans(ctx, api, fresh, "web", Options{}))
	assert.Equal(t, 1, api.DeleteCalls)
	_, ok := fresh.Get("web", svc("b"))
	assert.False(t, ok)
}

func TestSweepOrphansPlanModeLogsOnly(t *testing.T) {
	ctx := context.Background()
	api := cluster.NewFake()
	store := state.New(api, "")
	store.Visit("web", svc("a"), "h1")
	require.NoError(t, store.Store(ctx, "demo"))

	fresh := state.New(api, "")
	require.NoError(t, fresh.Restore(ctx, "demo"))

	require.NoError(t, SweepOrphans(ctx, api, fresh, "web", Options{Plan: true}))
	assert.Equal(t, 0, api.DeleteCalls)
	_, ok := fresh.Get("web", svc("a"))
	assert.True(t, ok)
}
