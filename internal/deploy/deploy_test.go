package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoploy/octoploy-go/internal/cluster"
	"github.com/octoploy/octoploy-go/internal/config"
	"github.com/octoploy/octoploy-go/internal/state"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "_root.yml"), "namespace: demo\nvars:\n  COLOR: blue\n")
	writeFile(t, filepath.Join(dir, "web", "_index.yml"), "name: web\n")
	writeFile(t, filepath.Join(dir, "web", "deployment.yml"), ""+
		"kind: Deployment\n"+
		"apiVersion: apps/v1\n"+
		"metadata:\n"+
		"  name: web\n"+
		"color: ${COLOR}\n"+
		"spec:\n"+
		"  replicas: 1\n"+
		"  template:\n"+
		"    metadata:\n"+
		"      labels:\n"+
		"        app: web\n")
	return dir
}

func TestDeployRendersAndAppliesObject(t *testing.T) {
	dir := newProject(t)
	root, err := config.LoadRoot(dir)
	require.NoError(t, err)

	api := cluster.NewFake()
	store := state.New(api, "")
	runner := NewRunner(root, api, store, Options{})

	require.NoError(t, runner.DeployByName(context.Background(), "web"))
	assert.Equal(t, 1, api.ApplyCalls)

	live, err := api.Get(context.Background(), "Deployment.apps/web", "demo")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, "blue", live["color"])
}

func TestDeploySecondRunIsNoOp(t *testing.T) {
	dir := newProject(t)
	root, err := config.LoadRoot(dir)
	require.NoError(t, err)

	api := cluster.NewFake()
	store := state.New(api, "")
	runner := NewRunner(root, api, store, Options{})

	require.NoError(t, runner.DeployByName(context.Background(), "web"))
	require.NoError(t, runner.DeployByName(context.Background(), "web"))
	assert.Equal(t, 1, api.ApplyCalls)
}

func TestDeployPlanModeDoesNotApply(t *testing.T) {
	dir := newProject(t)
	root, err := config.LoadRoot(dir)
	require.NoError(t, err)

	api := cluster.NewFake()
	store := state.New(api, "")
	runner := NewRunner(root, api, store, Options{Plan: true})

	require.NoError(t, runner.DeployByName(context.Background(), "web"))
	assert.Equal(t, 0, api.ApplyCalls)
}

func TestDeployDisabledAppErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "_root.yml"), "namespace: demo\n")
	writeFile(t, filepath.Join(dir, "web", "_index.yml"), "name: web\nenabled: false\n")

	root, err := config.LoadRoot(dir)
	require.NoError(t, err)

	api := cluster.NewFake()
	store := state.New(api, "")
	runner := NewRunner(root, api, store, Options{})

	err = runner.DeployByName(context.Background(), "web")
	require.Error(t, err)
}

func TestDeployOutFileReceivesRenderedObject(t *testing.T) {
	dir := newProject(t)
	root, err := config.LoadRoot(dir)
	require.NoError(t, err)

	outFile := filepath.Join(t.TempDir(), "out.yml")
	api := cluster.NewFake()
	store := state.New(api, "")
	runner := NewRunner(root, api, store, Options{OutFile: outFile})

	require.NoError(t, runner.TruncateOutFile())
	require.NoError(t, runner.DeployByName(context.Background(), "web"))

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "name: web")
}
