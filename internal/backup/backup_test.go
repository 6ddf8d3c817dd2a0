package backup

import (
	"context"
	"os"
	"path/filepath"
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

func TestCreateBackupDumpsTrackedObjects(t *testing.T) {
	ctx := context.Background()
	api := cluster.NewFake()
	require.NoError(t, api.Apply(ctx, service("web").Data, "demo"))

	store := state.New(api, "")
	store.Visit("web", service("web"), "h1")
	require.NoError(t, store.Store(ctx, "demo"))

	dir := t.TempDir()
	require.NoError(t, New(api).CreateBackup(ctx, dir, ""))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "demo_Service_web.yaml")
	content, err := os.ReadFile(filepath.Join(dir, "demo_Service_web.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "web")
}
