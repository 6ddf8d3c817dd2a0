package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoploy/octoploy-go/internal/cluster"
	"github.com/octoploy/octoploy-go/internal/k8sobj"
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

func TestStoreRestoreRoundTrip(t *testing.T) {
	f := cluster.NewFake()
	s := New(f, "")
	s.Visit("web", service("web"), "hash1")
	require.NoError(t, s.Store(context.Background(), "demo"))

	s2 := New(f, "")
	require.NoError(t, s2.Restore(context.Background(), "demo"))

	rec, ok := s2.Get("web", service("web"))
	require.True(t, ok)
	assert.Equal(t, "hash1", rec.Hash)
}

func TestNotVisitedOnlyForUnvisitedSameApp(t *testing.T) {
	s := New(cluster.NewFake(), "")
	s.Visit("web", service("a"), "h1")
	s.Visit("web", service("b"), "h2")
	// simulate a new run where only "a" is visited again
	s2 := &Store{api: s.api, cmName: s.cmName, entries: s.entries}
	for _, rec := range s2.entries {
		rec.Visited = false
	}
	s2.Visit("web", service("a"), "h1")

	notVisited := s2.NotVisited("web")
	require.Len(t, notVisited, 1)
	assert.Equal(t, "Service/b", notVisited[0].FQN)
}

func TestVisitOnlyDoesNotCreateNewRecord(t *testing.T) {
	s := New(cluster.NewFake(), "")
	found := s.VisitOnly("web", service("ghost"))
	assert.False(t, found)
	_, ok := s.Get("web", service("ghost"))
	assert.False(t, ok)
}
