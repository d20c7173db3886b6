package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConnectCommand(t *testing.T) {
	out, err := executeCommand(t, "connect", "palmgrove", "veridian")
	require.NoError(t, err)
	assert.Contains(t, out, "Palmgrove Holdings Ltd")
	assert.Contains(t, out, "Veridian Dynamics Corp")
	assert.Contains(t, out, "Overall confidence")
}

func TestConnectCommandJSON(t *testing.T) {
	out, err := executeCommand(t, "connect", "palmgrove", "veridian", "-o", "json")
	require.NoError(t, err)

	var claim map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &claim))
	assert.Equal(t, "palmgrove", claim["entity_a_id"])
	assert.Equal(t, float64(1), claim["path_length"])
}

func TestConnectCommandShared(t *testing.T) {
	out, err := executeCommand(t, "connect", "palmgrove", "veridian", "--shared")
	require.NoError(t, err)
	assert.Contains(t, out, "Marcus Hale")
}

func TestConnectCommandUnknownEntity(t *testing.T) {
	_, err := executeCommand(t, "connect", "palmgrove", "nobody")
	assert.Error(t, err)
}

func TestConnectCommandArgCount(t *testing.T) {
	_, err := executeCommand(t, "connect", "palmgrove")
	assert.Error(t, err)
}

func TestRiskCommand(t *testing.T) {
	out, err := executeCommand(t, "risk", "palmgrove")
	require.NoError(t, err)
	assert.Contains(t, out, "risk score")
	assert.Contains(t, out, "Factors:")
}

func TestClassifyCommandByAccession(t *testing.T) {
	out, err := executeCommand(t, "classify", "--accession", "0001900001-23-000019")
	require.NoError(t, err)
	assert.Contains(t, out, "Signal level: high")
	assert.Contains(t, out, "Combined level: critical")
	assert.Contains(t, out, "Marcus Hale")
}

func TestClassifyCommandAdHocItems(t *testing.T) {
	out, err := executeCommand(t, "classify", "--items", "2.01")
	require.NoError(t, err)
	assert.Contains(t, out, "Signal level: low")
}

func TestClassifyCommandNoInput(t *testing.T) {
	_, err := executeCommand(t, "classify")
	assert.Error(t, err)
}

func TestClustersCommand(t *testing.T) {
	out, err := executeCommand(t, "clusters", "veridian")
	require.NoError(t, err)
	assert.Contains(t, out, "3 buyer(s)")
	assert.Contains(t, out, "Sara Lindqvist")
}

func TestClustersCommandNone(t *testing.T) {
	out, err := executeCommand(t, "clusters", "palmgrove")
	require.NoError(t, err)
	assert.Contains(t, out, "No insider buying clusters")
}

func TestFixtureFileLoading(t *testing.T) {
	fixture := `{
	  "entities": [
	    {"id": "alpha", "kind": "company", "name": "Alpha Inc"},
	    {"id": "beta", "kind": "company", "name": "Beta LLC"}
	  ],
	  "relationships": [
	    {
	      "from": "alpha", "to": "beta", "kind": "OWNS", "percent_owned": 80,
	      "citation": {"filing_id": "f-1", "confidence": 0.9, "extraction_method": "rule_based"}
	    }
	  ]
	}`
	path := filepath.Join(t.TempDir(), "facts.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	out, err := executeCommand(t, "connect", "alpha", "beta", "--fixture", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Alpha Inc")
}

func TestFixtureFileMissing(t *testing.T) {
	_, err := executeCommand(t, "connect", "a", "b", "--fixture", "/does/not/exist.json")
	assert.Error(t, err)
}
