package drift

import (
	"log"
	"strings"

	"github.com/beevik/etree"

	"netdrift/internal/domain"
)

// reservedNamespacePrefix is declared by the NETCONF transport on fetched
// documents. Namespace-declaration edits for it are artifacts of the
// fetch, not configuration drift, and are never applied.
const reservedNamespacePrefix = "nc"

// ReconcileIntent builds a best-effort XML snippet of the configuration to
// apply to move live device state toward the intent.
//
// The reconcile operates per top-level child element of the intent tree:
// for each one present in the live tree, the structural differences are
// applied to a copy of the live element and the patched element is emitted
// canonically. Top-level intent elements absent from the live tree are
// skipped and logged, not erred. Elements with no differences are omitted.
func ReconcileIntent(intentXML, liveXML string) (string, error) {
	intentDoc, err := parseStripped(intentXML)
	if err != nil {
		return "", err
	}
	liveDoc, err := parseStripped(liveXML)
	if err != nil {
		return "", err
	}

	liveRoot := liveDoc.Root()
	consumed := map[*etree.Element]bool{}

	var out strings.Builder
	for _, intentChild := range intentDoc.Root().ChildElements() {
		match := matchChild(liveRoot, intentChild.Tag, consumed)
		if match == nil {
			log.Printf("Top-level intent element <%s> not present in live configuration, skipping", intentChild.FullTag())
			continue
		}
		consumed[match] = true

		patched := match.Copy()
		if edits := patchElement(patched, intentChild); edits == 0 {
			continue
		}

		snippet, err := elementString(patched)
		if err != nil {
			return "", err
		}
		out.WriteString(snippet)
		out.WriteString("\n")
	}

	return out.String(), nil
}

func parseStripped(raw string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return nil, domain.ErrMalformedDocument(err.Error())
	}
	if doc.Root() == nil {
		return nil, domain.ErrMalformedDocument("document has no root element")
	}
	stripSpace(doc.Root())
	return doc, nil
}

func stripSpace(e *etree.Element) {
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
			stripSpace(t)
		}
	}
}

// matchChild finds the first unconsumed child of parent with the given
// local tag. Matching ignores namespace prefixes; live and intent
// documents routinely declare the same namespaces under different
// prefixes.
func matchChild(parent *etree.Element, tag string, consumed map[*etree.Element]bool) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == tag && !consumed[child] {
			return child
		}
	}
	return nil
}

// patchElement applies the structural differences between intent and live
// onto live, returning the number of edits made. Live-only content is left
// in place: the output is a target snippet, not a pruned sync.
func patchElement(live, intent *etree.Element) int {
	edits := 0

	for _, attr := range intent.Attr {
		if attr.Space == "xmlns" && attr.Key == reservedNamespacePrefix {
			log.Printf("Skipping %s namespace declaration on <%s>: transport artifact", reservedNamespacePrefix, intent.FullTag())
			continue
		}
		key := attr.Key
		if attr.Space != "" {
			key = attr.Space + ":" + attr.Key
		}
		existing := live.SelectAttr(key)
		if existing == nil || existing.Value != attr.Value {
			live.CreateAttr(key, attr.Value)
			edits++
		}
	}

	if text := strings.TrimSpace(intent.Text()); text != "" && strings.TrimSpace(live.Text()) != text {
		live.SetText(text)
		edits++
	}

	consumed := map[*etree.Element]bool{}
	for _, intentChild := range intent.ChildElements() {
		match := matchChild(live, intentChild.Tag, consumed)
		if match == nil {
			live.AddChild(intentChild.Copy())
			edits++
			continue
		}
		consumed[match] = true
		edits += patchElement(match, intentChild)
	}

	return edits
}

func elementString(e *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(e.Copy())
	doc.WriteSettings = etree.WriteSettings{
		CanonicalEndTags: true,
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	return doc.WriteToString()
}
