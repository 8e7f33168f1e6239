package ledger

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaCUE string

// Encode serializes doc as indented JSON with a trailing newline.
// HTML escaping is disabled so ids and tags are stored verbatim.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a stored ledger blob.
//
// The blob is checked against the #Ledger CUE schema before it is decoded, so
// a document with a missing or non-array collection fails with
// CorruptDocument instead of loading as an empty collection.
func Decode(content []byte) (*Document, error) {
	if err := checkShape(content); err != nil {
		return nil, WrapError(ErrCodeCorruptDocument, "ledger document has an unexpected shape", err)
	}
	doc := NewDocument()
	if err := json.Unmarshal(content, doc); err != nil {
		return nil, WrapError(ErrCodeCorruptDocument, "ledger document does not decode", err)
	}
	return doc, nil
}

func checkShape(content []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	expr, err := cuejson.Extract("ledger.json", content)
	if err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	value := ctx.BuildExpr(expr)
	if err := value.Err(); err != nil {
		return fmt.Errorf("build value: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Ledger")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
