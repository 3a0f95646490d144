package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/indexer"
)

func TestFormatterVersion(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatterWithWriter(&buf)

	err := f.Format(nil, indexer.Stats{})
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2.1.0", doc["version"])
}

func TestFormatterIncludesParseFailureLocation(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatterWithWriter(&buf)

	errs := []*indexer.Error{
		{Kind: indexer.ErrParse, Path: "src/main.go", Err: assertError("syntax error")},
	}
	require.NoError(t, f.Format(errs, indexer.Stats{}))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	runs := doc["runs"].([]interface{})
	require.Len(t, runs, 1)
	run := runs[0].(map[string]interface{})
	results := run["results"].([]interface{})
	require.Len(t, results, 1)
	result := results[0].(map[string]interface{})
	assert.Equal(t, ruleParseFailure, result["ruleId"])
}

func TestFormatterReportsDroppedRelationshipSummary(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatterWithWriter(&buf)

	require.NoError(t, f.Format(nil, indexer.Stats{RelationshipsDropped: 3}))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	run := doc["runs"].([]interface{})[0].(map[string]interface{})
	results := run["results"].([]interface{})
	require.Len(t, results, 1)
	result := results[0].(map[string]interface{})
	assert.Equal(t, ruleRelationshipDropped, result["ruleId"])
}

type assertError string

func (e assertError) Error() string { return string(e) }
