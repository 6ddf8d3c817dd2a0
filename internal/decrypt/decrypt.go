// Package decrypt walks a rendered object and replaces encrypted tokens with their
// plaintext values, enforcing the plain-secret policy for Secret objects. Grounded on
// octoploy/processing/DecryptionProcessor.py.
package decrypt

import (
	"fmt"

	"github.com/octoploy/octoploy-go/internal/crypto"
	"github.com/octoploy/octoploy-go/internal/errs"
	"github.com/octoploy/octoploy-go/internal/k8sobj"
	"github.com/octoploy/octoploy-go/internal/treewalker"
)

// Options carries the two CLI flags that change secret handling.
type Options struct {
	// SkipSecrets drops every Secret object from the bundle entirely.
	SkipSecrets bool
	// DeployPlainSecrets allows un-encrypted values in a Secret's data/stringData maps
	// instead of raising SkipObject.
	DeployPlainSecrets bool
}

var secretValueKeys = []string{"data", "stringData"}

// Process decrypts every OctoCrypt! token found in obj. For a Secret object, each entry
// in data/stringData must either be a token (decrypted) or, if DeployPlainSecrets is
// set, plaintext; otherwise it raises SkipObject. SkipSecrets raises SkipObject for any
// Secret unconditionally, before any of its values are inspected.
func Process(enc *crypto.Encryptor, opts Options, obj *k8sobj.Object) error {
	isSecret := obj.IsKind("Secret")
	if isSecret && opts.SkipSecrets {
		return fmt.Errorf("%w: skip-secrets is set", errs.ErrSkipObject)
	}

	if isSecret {
		for _, key := range secretValueKeys {
			m, ok := obj.Data[key].(map[string]interface{})
			if !ok {
				continue
			}
			for k, v := range m {
				s, ok := v.(string)
				if !ok {
					continue
				}
				if crypto.HasPrefix(s) {
					plain, err := enc.Decrypt(s)
					if err != nil {
						return err
					}
					m[k] = plain
					continue
				}
				if !opts.DeployPlainSecrets {
					return fmt.Errorf("%w: use encrypt to encrypt your secrets", errs.ErrSkipObject)
				}
			}
		}
	}

	return treewalker.Walk(&tokenVisitor{enc: enc}, obj.Data)
}

type tokenVisitor struct {
	enc *crypto.Encryptor
}

func (v *tokenVisitor) VisitString(value string, _ map[string]interface{}, _ string) (interface{}, error) {
	if !crypto.HasPrefix(value) {
		return value, nil
	}
	return v.enc.Decrypt(value)
}
