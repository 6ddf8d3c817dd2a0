package yamlio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAllDocs(t *testing.T) {
	r := strings.NewReader("a: 1\n---\nb: 2\n---\n")
	docs, err := LoadAllDocs(r)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 1, docs[0]["a"])
	assert.Equal(t, 2, docs[1]["b"])
}

func TestDumpCanonicalSortsKeysAndQuotesStrings(t *testing.T) {
	doc := map[string]interface{}{
		"zebra": "value",
		"apple": map[string]interface{}{
			"banana":  "x",
			"avocado": []interface{}{"one", "two"},
		},
	}
	out, err := DumpCanonical(doc)
	require.NoError(t, err)

	appleIdx := strings.Index(out, "apple")
	zebraIdx := strings.Index(out, "zebra")
	require.True(t, appleIdx >= 0 && zebraIdx >= 0)
	assert.Less(t, appleIdx, zebraIdx)
	assert.Contains(t, out, `"value"`)
	assert.Contains(t, out, `"one"`)
}

func TestDumpCanonicalIsDeterministic(t *testing.T) {
	doc := map[string]interface{}{
		"c": "3",
		"a": "1",
		"b": map[string]interface{}{"y": "2", "x": "1"},
	}
	first, err := DumpCanonical(doc)
	require.NoError(t, err)
	second, err := DumpCanonical(doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
