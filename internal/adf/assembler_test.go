package adf

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleEmptyBatch(t *testing.T) {
	out, err := Assemble(nil, ghlV1(t))
	require.NoError(t, err)
	assert.Nil(t, out, "empty input is the no-document signal, not an empty adf root")

	out, err = Assemble([]map[string]interface{}{}, ghlV1(t))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestAssembleDeclarationAndRoot(t *testing.T) {
	records := []map[string]interface{}{{"id": "1"}}

	out, err := Assemble(records, ghlV1(t))
	require.NoError(t, err)
	text := string(out)
	assert.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`),
		"document must start with the XML declaration")
	assert.Contains(t, text, "<adf>")
	assert.Contains(t, text, "</adf>")
}

func TestAssembleIdempotent(t *testing.T) {
	records := []map[string]interface{}{
		{
			"id":        "lead-1",
			"firstName": "Jane",
			"lastName":  "Doe",
			"tags":      []interface{}{"hot"},
		},
	}

	first, err := Assemble(records, ghlV1(t))
	require.NoError(t, err)
	second, err := Assemble(records, ghlV1(t))
	require.NoError(t, err)
	assert.Equal(t, first, second, "mapping the same record twice must be byte-identical")
}

func TestAssembleRoundTrip(t *testing.T) {
	records := []map[string]interface{}{
		{"id": "a"},
		{"id": "b"},
		{"id": "c"},
	}

	out, err := Assemble(records, ghlV1(t))
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "adf", root.Tag)

	prospects := root.SelectElements("prospect")
	require.Len(t, prospects, 3, "one prospect per input record")
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, prospects[i].SelectElement("id").Text(), "input order preserved")
	}
}

func TestAssembleGoldenDocument(t *testing.T) {
	records := []map[string]interface{}{
		{
			"id":        "lead-7",
			"firstName": "Jane",
			"lastName":  "Doe",
			"phone":     "555-0100",
			"note":      "Ready to buy",
		},
	}

	out, err := Assemble(records, ghlV1(t))
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<adf>
  <prospect>
    <id>lead-7</id>
    <customer>
      <contact>
        <name part="first">Jane</name>
        <name part="last">Doe</name>
        <phone>555-0100</phone>
      </contact>
    </customer>
    <comments>Ready to buy</comments>
  </prospect>
</adf>`
	assert.Equal(t, want, strings.TrimSpace(string(out)))
}

func TestAssembleSequenceNumbers(t *testing.T) {
	records := []map[string]interface{}{
		{"id": "first"},
		{"id": "second"},
	}

	out, err := Assemble(records, ghlV2(t))
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	prospects := doc.Root().SelectElements("prospect")
	require.Len(t, prospects, 2)
	assert.Equal(t, "1", prospects[0].SelectElement("id").SelectAttrValue("sequence", ""))
	assert.Equal(t, "2", prospects[1].SelectElement("id").SelectAttrValue("sequence", ""))
}
