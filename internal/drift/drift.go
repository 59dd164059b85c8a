// Package drift compares intended device configuration against live
// device state.
//
// The primary product is a human-readable line diff persisted as an
// IntentDiff record. A structural reconcile that emits best-effort target
// snippets per top-level element is available as a separate, optional
// capability.
package drift

import (
	"github.com/pmezard/go-difflib/difflib"

	"netdrift/internal/canonical"
)

// LineDiff renders both documents with stable pretty printing and returns
// a unified line diff, live configuration first and intent second. Line
// level comparison is the deliberate choice for the stored record; the
// structural reconcile lives in ReconcileIntent.
func LineDiff(liveXML, intentXML string) (string, error) {
	livePretty, err := canonical.Pretty(liveXML)
	if err != nil {
		return "", err
	}
	intentPretty, err := canonical.Pretty(intentXML)
	if err != nil {
		return "", err
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(livePretty),
		B:        difflib.SplitLines(intentPretty),
		FromFile: "live",
		ToFile:   "intent",
		Context:  3,
	})
}
