// Package state persists which objects octoploy owns in a cluster-side ConfigMap, so a
// later run can detect renamed or deleted objects and sweep them. Grounded on
// octoploy/state/StateTracking.py, with the hash field SPEC_FULL.md adds for the
// reconciler's differential apply.
package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/octoploy/octoploy-go/internal/cluster"
	"github.com/octoploy/octoploy-go/internal/k8sobj"
	"github.com/octoploy/octoploy-go/internal/log"
)

var stateLog = log.Named("state")

const configMapName = "octoploy-state"

// ObjectState is one tracked object's bookkeeping record. Key = context/namespace/fqn.
type ObjectState struct {
	Context   string `json:"context"`
	Namespace string `json:"namespace"`
	FQN       string `json:"fqn"`
	Hash      string `json:"hash"`
	Visited   bool   `json:"-"`
}

// Key returns the record's composite identity.
func (s ObjectState) Key() string {
	return s.Context + "/" + s.Namespace + "/" + s.FQN
}

// Store reads and writes ObjectState records in a ConfigMap named
// "octoploy-state<suffix>" within the project namespace.
type Store struct {
	api     cluster.API
	cmName  string
	entries map[string]*ObjectState
}

// New returns an empty Store. Call Restore before using it against a live project.
func New(api cluster.API, suffix string) *Store {
	return &Store{api: api, cmName: configMapName + suffix, entries: map[string]*ObjectState{}}
}

// Restore loads existing state from namespace's ConfigMap. A missing ConfigMap yields
// an empty store, not an error.
func (s *Store) Restore(ctx context.Context, namespace string) error {
	obj, err := s.api.Get(ctx, "ConfigMap/"+s.cmName, namespace)
	if err != nil {
		return err
	}
	if obj == nil {
		return nil
	}

	data, _ := obj["data"].(map[string]interface{})
	raw, _ := data["state"].([]interface{})
	for _, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		rec := ObjectState{
			Context:   stringOf(m["context"]),
			Namespace: stringOf(m["namespace"]),
			FQN:       stringOf(m["fqn"]),
			Hash:      stringOf(m["hash"]),
		}
		s.entries[rec.Key()] = &rec
	}
	return nil
}

func stringOf(v interface{}) string {
	s, _ := v.(string)
	return s
}

// Store persists the current state to namespace's ConfigMap.
func (s *Store) Store(ctx context.Context, namespace string) error {
	stateLog.Debugf("persisting state in ConfigMap %s", s.cmName)

	records := make([]interface{}, 0, len(s.entries))
	for _, rec := range s.entries {
		records = append(records, map[string]interface{}{
			"context":   rec.Context,
			"namespace": rec.Namespace,
			"fqn":       rec.FQN,
			"hash":      rec.Hash,
		})
	}

	data := map[string]interface{}{
		"kind":       "ConfigMap",
		"apiVersion": "v1",
		"metadata":   map[string]interface{}{"name": s.cmName},
		"data":       map[string]interface{}{"state": records},
	}
	return s.api.Apply(ctx, data, namespace)
}

func key(appName string, obj *k8sobj.Object) string {
	return fmt.Sprintf("%s/%s/%s", appName, obj.Namespace(), obj.FQN())
}

// Visit marks obj as visited for appName, creating the record with hash if absent or
// updating the hash of an existing record.
func (s *Store) Visit(appName string, obj *k8sobj.Object, hash string) {
	k := key(appName, obj)
	existing, ok := s.entries[k]
	if !ok {
		s.entries[k] = &ObjectState{
			Context: appName, Namespace: obj.Namespace(), FQN: obj.FQN(), Hash: hash, Visited: true,
		}
		return
	}
	existing.Hash = hash
	existing.Visited = true
}

// VisitOnly marks obj visited only if a record already exists (used when an object is
// dropped from the bundle via SkipObject but should not be swept as an orphan). It
// reports whether a record was found.
func (s *Store) VisitOnly(appName string, obj *k8sobj.Object) bool {
	existing, ok := s.entries[key(appName, obj)]
	if !ok {
		return false
	}
	existing.Visited = true
	return true
}

// Get returns the stored record for obj under appName, if any.
func (s *Store) Get(appName string, obj *k8sobj.Object) (*ObjectState, bool) {
	rec, ok := s.entries[key(appName, obj)]
	return rec, ok
}

// Remove deletes a record from the store.
func (s *Store) Remove(rec *ObjectState) {
	delete(s.entries, rec.Key())
}

// FindByPrefix returns every record whose Key() starts with prefix+"/".
func (s *Store) FindByPrefix(prefix string) []*ObjectState {
	var out []*ObjectState
	needle := prefix + "/"
	for _, rec := range s.entries {
		if strings.HasPrefix(rec.Key(), needle) {
			out = append(out, rec)
		}
	}
	return out
}

// AddRecord inserts rec directly, keyed by its own Key(). Used by state-moving tools
// that reconstruct records under a new context/namespace/fqn.
func (s *Store) AddRecord(rec *ObjectState) {
	s.entries[rec.Key()] = rec
}

// All returns every tracked record, in no particular order.
func (s *Store) All() []*ObjectState {
	out := make([]*ObjectState, 0, len(s.entries))
	for _, rec := range s.entries {
		out = append(out, rec)
	}
	return out
}

// NotVisited returns every record for appName that was not visited during this run.
func (s *Store) NotVisited(appName string) []*ObjectState {
	var out []*ObjectState
	for _, rec := range s.entries {
		if rec.Context == appName && !rec.Visited {
			out = append(out, rec)
		}
	}
	return out
}
