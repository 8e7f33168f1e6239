package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_EmptyDocument(t *testing.T) {
	data, err := Encode(NewDocument())
	require.NoError(t, err)
	assert.JSONEq(t, `{"components":[],"versions":[],"setups":[],"tests":[]}`, string(data))
}

func TestEncode_NoHTMLEscaping(t *testing.T) {
	doc := NewDocument()
	doc.Components = []Component{{ID: "a<b>", Name: "A & B"}}

	data, err := Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"a<b>"`)
	assert.Contains(t, string(data), `"A & B"`)
}

func TestDecode_RoundTripsRecords(t *testing.T) {
	doc := NewDocument()
	doc.Components = []Component{{ID: "api", Name: "API"}}
	doc.Versions = []Version{{ComponentID: "api", Tag: "1.0.0", Date: 1704067200000}}
	doc.Setups = []Setup{{ID: "s", Name: "S", ComponentIDs: []string{"api"}}}
	doc.Tests = []TestResult{{SetupID: "s", Status: "passed", ComponentVersionMap: map[string]string{"api": "1.0.0"}, Date: 1704067201000}}

	data, err := Encode(doc)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestDecode_AcceptsOriginalLedgerFile(t *testing.T) {
	data := []byte(`{
	  "components": [{"id": "api", "name": "API"}],
	  "versions": [{"date": 1593561600000, "componentId": "api", "tag": "1.0.0"}],
	  "setups": [{"id": "s", "name": "S", "componentIds": ["api"]}],
	  "tests": [{"date": 1593561601000, "componentVersionMap": {"api": "1.0.0"}, "setupId": "s", "status": "passed"}],
	  "extra": "ignored"
	}`)

	doc, err := Decode(data)
	require.NoError(t, err)
	assert.Len(t, doc.Tests, 1)
	assert.Equal(t, "", doc.Tests[0].Description)
}

func TestDecode_CorruptDocuments(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{components: [`},
		{"not an object", `[1, 2, 3]`},
		{"empty object", `{}`},
		{"missing components", `{"versions": [], "setups": [], "tests": []}`},
		{"missing tests", `{"components": [], "versions": [], "setups": []}`},
		{"components not array", `{"components": {}, "versions": [], "setups": [], "tests": []}`},
		{"versions null", `{"components": [], "versions": null, "setups": [], "tests": []}`},
		{"setup without ids", `{"components": [], "versions": [], "setups": [{"id": "s", "name": "S"}], "tests": []}`},
		{"component without id", `{"components": [{"name": "API"}], "versions": [], "setups": [], "tests": []}`},
		{"version without tag", `{"components": [], "versions": [{"componentId": "a"}], "setups": [], "tests": []}`},
		{"test without version map", `{"components": [], "versions": [], "setups": [], "tests": [{"setupId": "s", "status": "passed"}]}`},
		{"tag not string", `{"components": [], "versions": [{"componentId": "a", "tag": 1}], "setups": [], "tests": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.Equal(t, ErrCodeCorruptDocument, CodeOf(err))
		})
	}
}
