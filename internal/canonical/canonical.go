// Package canonical normalizes XML configuration documents into a
// deterministic byte form and derives their content hash.
//
// Two documents that differ only in attribute order, insignificant
// whitespace or the presence of an XML declaration canonicalize to the
// same bytes and therefore the same hash. That determinism is what the
// intent dedup invariants are built on.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/beevik/etree"

	"netdrift/internal/domain"
)

// Canonicalize parses raw as XML and returns its canonical serialization
// together with the lowercase hex sha256 of those bytes. The input must be
// well-formed; parse failures surface as MalformedDocument errors carrying
// the parser's message.
func Canonicalize(raw string) ([]byte, string, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, "", err
	}

	normalize(doc)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, "", domain.ErrMalformedDocument(err.Error())
	}

	sum := sha256.Sum256(out)
	return out, hex.EncodeToString(sum[:]), nil
}

// Validate checks raw for well-formedness without serializing it
func Validate(raw string) error {
	_, err := parse(raw)
	return err
}

// Pretty reformats raw with two-space indentation for human consumption.
// Used by the diff engine so that line diffs operate on comparable,
// readable renderings of both documents.
func Pretty(raw string) (string, error) {
	doc, err := parse(raw)
	if err != nil {
		return "", err
	}

	stripWhitespace(&doc.Element)
	doc.Indent(2)

	out, err := doc.WriteToString()
	if err != nil {
		return "", domain.ErrMalformedDocument(err.Error())
	}
	return out, nil
}

func parse(raw string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return nil, domain.ErrMalformedDocument(err.Error())
	}
	if doc.Root() == nil {
		return nil, domain.ErrMalformedDocument("document has no root element")
	}
	return doc, nil
}

// normalize rewrites the document in place into its canonical form:
// declaration and comments dropped, whitespace-only text removed, text
// trimmed, attributes sorted, canonical escaping on write.
func normalize(doc *etree.Document) {
	stripDecl(doc)
	stripComments(&doc.Element)
	stripWhitespace(&doc.Element)
	sortAttrs(doc.Root())

	doc.WriteSettings = etree.WriteSettings{
		CanonicalEndTags: true,
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
}

func stripDecl(doc *etree.Document) {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			doc.RemoveChild(pi)
		}
	}
}

func stripComments(e *etree.Element) {
	for _, tok := range append([]etree.Token(nil), e.Child...) {
		switch t := tok.(type) {
		case *etree.Comment:
			e.RemoveChild(t)
		case *etree.Element:
			stripComments(t)
		}
	}
}

func stripWhitespace(e *etree.Element) {
	for _, tok := range append([]etree.Token(nil), e.Child...) {
		switch t := tok.(type) {
		case *etree.CharData:
			trimmed := strings.TrimSpace(t.Data)
			if trimmed == "" {
				e.RemoveChild(t)
				continue
			}
			t.Data = trimmed
		case *etree.Element:
			stripWhitespace(t)
		}
	}
}

func sortAttrs(e *etree.Element) {
	e.SortAttrs()
	for _, child := range e.ChildElements() {
		sortAttrs(child)
	}
}
