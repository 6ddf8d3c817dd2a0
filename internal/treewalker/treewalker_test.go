package treewalker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperVisitor struct{}

func (upperVisitor) VisitString(value string, _ map[string]interface{}, _ string) (interface{}, error) {
	return strings.ToUpper(value), nil
}

func TestWalkUppercasesNestedStrings(t *testing.T) {
	data := map[string]interface{}{
		"a": "x",
		"b": map[string]interface{}{"c": "y"},
		"d": []interface{}{"z", map[string]interface{}{"e": "w"}},
	}
	require.NoError(t, Walk(upperVisitor{}, data))

	assert.Equal(t, "X", data["a"])
	assert.Equal(t, "Y", data["b"].(map[string]interface{})["c"])
	list := data["d"].([]interface{})
	assert.Equal(t, "Z", list[0])
	assert.Equal(t, "W", list[1].(map[string]interface{})["e"])
}

type mergeVisitor struct{}

func (mergeVisitor) VisitString(value string, _ map[string]interface{}, _ string) (interface{}, error) {
	return value, nil
}

func (mergeVisitor) VisitObject(value map[string]interface{}) (map[string]interface{}, error) {
	merged, ok := value["_merge"]
	if !ok {
		return value, nil
	}
	delete(value, "_merge")
	for k, v := range merged.(map[string]interface{}) {
		value[k] = v
	}
	return value, nil
}

func TestWalkSplicesMergeKeyIntoParent(t *testing.T) {
	data := map[string]interface{}{
		"metadata": map[string]interface{}{
			"name": "app",
			"_merge": map[string]interface{}{
				"namespace": "demo",
			},
		},
	}
	require.NoError(t, Walk(mergeVisitor{}, data))

	metadata := data["metadata"].(map[string]interface{})
	assert.Equal(t, "app", metadata["name"])
	assert.Equal(t, "demo", metadata["namespace"])
	_, hasMerge := metadata["_merge"]
	assert.False(t, hasMerge)
}

type droppingVisitor struct{}

func (droppingVisitor) VisitString(value string, _ map[string]interface{}, _ string) (interface{}, error) {
	return value, nil
}

func (droppingVisitor) VisitObject(value map[string]interface{}) (map[string]interface{}, error) {
	if value["drop"] == true {
		return nil, nil
	}
	return value, nil
}

func TestWalkDropsBranchOnNilObjectVisitorResult(t *testing.T) {
	data := map[string]interface{}{
		"keep": map[string]interface{}{"x": "1"},
		"gone": map[string]interface{}{"drop": true},
	}
	require.NoError(t, Walk(droppingVisitor{}, data))

	_, hasGone := data["gone"]
	assert.False(t, hasGone)
	_, hasKeep := data["keep"]
	assert.True(t, hasKeep)
}
