package adf

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/verblead/ghl-adf-exporter/internal/profile"
)

// Assemble maps each record in input order and wraps the resulting prospect
// subtrees in one adf root, serialized with an XML declaration and two-space
// indentation. An empty batch returns nil bytes and nil error; that is the
// recognized "nothing to send" signal, not a failure. Serialization is
// deterministic for a given input, so output is golden-file testable.
func Assemble(records []map[string]interface{}, p *profile.Profile) ([]byte, error) {
	if len(records) == 0 {
		return nil, nil
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("adf")
	for i, record := range records {
		root.AddChild(MapProspect(record, p, i+1))
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize ADF document: %w", err)
	}
	return out, nil
}
