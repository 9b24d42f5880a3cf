// Package engine implements pattern matching over an IndexedFactStore,
// where-clause evaluation, and Finding construction: the parts of the
// rule engine that turn a rules.RuleSet plus a store.IndexedFactStore
// into a deterministic, fingerprinted list of findings.
package engine

import (
	"crypto/sha256"
	"fmt"

	"github.com/hodeiscan/hodeiscan/ir"
)

// Finding is a single rule match: which rule fired, on what fact, with
// what message.
type Finding struct {
	RuleName    string
	Message     string
	Location    ir.SourceLocation
	Confidence  ir.Confidence
	Severity    ir.Severity
	Fingerprint string
	Provenance  ir.Provenance
	Tags        []string
	Metadata    map[string]string
}

// ComputeFingerprint produces a deterministic SHA-256 hex digest from
// {rule_name, fact_type, file, start_line, start_column}, each separated
// by a null byte to avoid ambiguous concatenation across adjacent fields.
// Fingerprint stability is an invariant: the same rule firing at the same
// source location must yield the same fingerprint bit-for-bit across
// runs, regardless of any other fact in the set.
func ComputeFingerprint(ruleName string, factTypeKind ir.FactTypeKind, loc ir.SourceLocation) string {
	h := sha256.New()
	startCol := uint32(0)
	if loc.StartColumn != nil {
		startCol = uint32(*loc.StartColumn)
	}
	_, _ = fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d\x00%d",
		ruleName, factTypeKind.String(), loc.File.String(), uint32(loc.StartLine), startCol)
	return fmt.Sprintf("%x", h.Sum(nil))
}
