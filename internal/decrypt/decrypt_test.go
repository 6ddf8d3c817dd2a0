package decrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octoploy/octoploy-go/internal/crypto"
	"github.com/octoploy/octoploy-go/internal/errs"
	"github.com/octoploy/octoploy-go/internal/k8sobj"
)

func newEncryptor(t *testing.T) *crypto.Encryptor {
	t.Helper()
	t.Setenv(crypto.KeyEnv, "test-key")
	return crypto.NewEncryptor()
}

func TestProcessDecryptsSecretValues(t *testing.T) {
	enc := newEncryptor(t)
	token, err := enc.Encrypt("hunter2")
	require.NoError(t, err)

	obj, err := k8sobj.New(map[string]interface{}{
		"kind": "Secret", "apiVersion": "v1", "metadata": map[string]interface{}{"name": "creds"},
		"data": map[string]interface{}{"password": token},
	})
	require.NoError(t, err)

	require.NoError(t, Process(enc, Options{}, obj))
	assert.Equal(t, "hunter2", obj.Data["data"].(map[string]interface{})["password"])
}

func TestProcessPlaintextSecretSkippedByDefault(t *testing.T) {
	enc := newEncryptor(t)
	obj, err := k8sobj.New(map[string]interface{}{
		"kind": "Secret", "apiVersion": "v1", "metadata": map[string]interface{}{"name": "creds"},
		"data": map[string]interface{}{"password": "hunter2"},
	})
	require.NoError(t, err)

	err = Process(enc, Options{}, obj)
	require.ErrorIs(t, err, errs.ErrSkipObject)
}

func TestProcessPlaintextSecretAllowedWithFlag(t *testing.T) {
	enc := newEncryptor(t)
	obj, err := k8sobj.New(map[string]interface{}{
		"kind": "Secret", "apiVersion": "v1", "metadata": map[string]interface{}{"name": "creds"},
		"data": map[string]interface{}{"password": "hunter2"},
	})
	require.NoError(t, err)

	require.NoError(t, Process(enc, Options{DeployPlainSecrets: true}, obj))
	assert.Equal(t, "hunter2", obj.Data["data"].(map[string]interface{})["password"])
}

func TestProcessSkipSecretsForcesSkip(t *testing.T) {
	enc := newEncryptor(t)
	obj, err := k8sobj.New(map[string]interface{}{
		"kind": "Secret", "apiVersion": "v1", "metadata": map[string]interface{}{"name": "creds"},
		"data": map[string]interface{}{"password": "hunter2"},
	})
	require.NoError(t, err)

	err = Process(enc, Options{SkipSecrets: true}, obj)
	require.ErrorIs(t, err, errs.ErrSkipObject)
}

func TestProcessNonSecretDecryptsTokensInPlace(t *testing.T) {
	enc := newEncryptor(t)
	token, err := enc.Encrypt("secretvalue")
	require.NoError(t, err)

	obj, err := k8sobj.New(map[string]interface{}{
		"kind": "ConfigMap", "apiVersion": "v1", "metadata": map[string]interface{}{"name": "cfg"},
		"data": map[string]interface{}{"key": token, "plain": "untouched"},
	})
	require.NoError(t, err)

	require.NoError(t, Process(enc, Options{}, obj))
	data := obj.Data["data"].(map[string]interface{})
	assert.Equal(t, "secretvalue", data["key"])
	assert.Equal(t, "untouched", data["plain"])
}
