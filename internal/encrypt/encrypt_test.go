package encrypt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoploy/octoploy-go/internal/crypto"
	"github.com/octoploy/octoploy-go/internal/yamlio"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFileEncryptsSecretValues(t *testing.T) {
	t.Setenv(crypto.KeyEnv, "test-key")
	dir := t.TempDir()
	path := filepath.Join(dir, "secret.yml")
	writeFile(t, path, `
kind: Secret
apiVersion: v1
metadata:
  name: creds
stringData:
  password: hunter2
`)

	require.NoError(t, File(crypto.NewEncryptor(), path))

	docs, err := yamlio.LoadAllDocsFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	stringData := docs[0]["stringData"].(map[string]interface{})
	assert.True(t, crypto.HasPrefix(stringData["password"].(string)))
}

func TestFileSkipsAlreadyEncryptedValues(t *testing.T) {
	t.Setenv(crypto.KeyEnv, "test-key")
	enc := crypto.NewEncryptor()
	token, err := enc.Encrypt("hunter2")
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "secret.yml")
	writeFile(t, path, `
kind: Secret
apiVersion: v1
metadata:
  name: creds
stringData:
  password: `+token+`
`)

	require.NoError(t, File(enc, path))
	docs, err := yamlio.LoadAllDocsFile(path)
	require.NoError(t, err)
	stringData := docs[0]["stringData"].(map[string]interface{})
	assert.Equal(t, token, stringData["password"])
}

func TestFileErrorsWithoutAnySecret(t *testing.T) {
	t.Setenv(crypto.KeyEnv, "test-key")
	dir := t.TempDir()
	path := filepath.Join(dir, "service.yml")
	writeFile(t, path, `
kind: Service
apiVersion: v1
metadata:
  name: web
`)

	err := File(crypto.NewEncryptor(), path)
	require.Error(t, err)
}
