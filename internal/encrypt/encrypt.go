// Package encrypt implements the "encrypt <file>" CLI command: it rewrites a yml file in
// place, replacing every plaintext value in a Secret's data/stringData maps with an
// OctoCrypt! token. Grounded on octoploy/utils/Encryption.py's YmlEncrypter.
package encrypt

import (
	"fmt"
	"os"

	"github.com/octoploy/octoploy-go/internal/crypto"
	"github.com/octoploy/octoploy-go/internal/errs"
	"github.com/octoploy/octoploy-go/internal/k8sobj"
	"github.com/octoploy/octoploy-go/internal/yamlio"
)

var secretValueKeys = []string{"data", "stringData"}

// File encrypts every Secret's plaintext values in path, in place. It returns
// ErrConfigError if the file contains no Secret document at all, matching YmlEncrypter's
// "did not find a single secret" guard.
func File(enc *crypto.Encryptor, path string) error {
	docs, err := yamlio.LoadAllDocsFile(path)
	if err != nil {
		return err
	}

	foundSecret := false
	for _, doc := range docs {
		obj, err := k8sobj.New(doc)
		if err != nil {
			return err
		}
		if !obj.IsKind("Secret") {
			continue
		}
		foundSecret = true
		for _, key := range secretValueKeys {
			m, ok := obj.Data[key].(map[string]interface{})
			if !ok {
				continue
			}
			if err := encryptMap(enc, m); err != nil {
				return err
			}
		}
	}

	if !foundSecret {
		return fmt.Errorf("%w: did not find a single secret in %s", errs.ErrConfigError, path)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return yamlio.DumpAll(file, docs)
}

func encryptMap(enc *crypto.Encryptor, data map[string]interface{}) error {
	for key, value := range data {
		s, ok := value.(string)
		if !ok || crypto.HasPrefix(s) {
			continue
		}
		token, err := enc.Encrypt(s)
		if err != nil {
			return err
		}
		data[key] = token
	}
	return nil
}
