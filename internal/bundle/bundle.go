// Package bundle accumulates and orders the objects rendered for one app. Grounded on
// octoploy/deploy/DeploymentBundle.py.
package bundle

import (
	"os"
	"sort"

	"github.com/octoploy/octoploy-go/internal/k8sobj"
	"github.com/octoploy/octoploy-go/internal/merge"
	"github.com/octoploy/octoploy-go/internal/yamlio"
)

// AppBundle holds every object rendered for one app, in the order the caller added
// them. Template/decrypt/preprocess/namespace resolution happen before Add is called;
// Add itself only merges or appends.
type AppBundle struct {
	Objects []*k8sobj.Object
}

// New returns an empty bundle.
func New() *AppBundle {
	return &AppBundle{}
}

// Add attempts to merge obj into an existing object sharing its FQN; if none accepts
// the merge, obj is appended as a new entry.
func (b *AppBundle) Add(obj *k8sobj.Object) error {
	fqn := obj.FQN()
	for _, existing := range b.Objects {
		if existing.FQN() != fqn {
			continue
		}
		merged, err := merge.Merge(existing, obj)
		if err != nil {
			return err
		}
		if merged {
			return nil
		}
	}
	b.Objects = append(b.Objects, obj)
	return nil
}

// Finalize stable-sorts the bundle so Deployment/DeploymentConfig objects come last,
// preserving relative order otherwise.
func (b *AppBundle) Finalize() {
	sort.SliceStable(b.Objects, func(i, j int) bool {
		return rank(b.Objects[i]) < rank(b.Objects[j])
	})
}

func rank(obj *k8sobj.Object) int {
	if obj.IsKind("Deployment") || obj.IsKind("DeploymentConfig") {
		return 1
	}
	return 0
}

// Dump appends the bundle's objects to path as multi-doc YAML, preserving any
// documents already present in the file.
func (b *AppBundle) Dump(path string) error {
	var docs []map[string]interface{}
	if _, err := os.Stat(path); err == nil {
		existing, err := yamlio.LoadAllDocsFile(path)
		if err != nil {
			return err
		}
		docs = existing
	}
	for _, obj := range b.Objects {
		docs = append(docs, obj.Data)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return yamlio.DumpAll(f, docs)
}
