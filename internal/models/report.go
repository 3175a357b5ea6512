package models

// RejectionReason classifies why a row was excluded or flagged.
type RejectionReason string

const (
	ReasonMissingField    RejectionReason = "missing_field"
	ReasonMalformedNumber RejectionReason = "malformed_number"
	ReasonInvariant       RejectionReason = "invariant_violation"
	ReasonConflict        RejectionReason = "conflict_detected"
	ReasonUnknownPurity   RejectionReason = "unknown_purity"
	ReasonUnmappedOrigin  RejectionReason = "unmapped_origin"
)

// Rejection records a single excluded or flagged row.
type Rejection struct {
	RowRef string
	Reason RejectionReason
	Detail string
}

// SourceFailure records a source that could not be read at all. The run
// continues with the remaining sources.
type SourceFailure struct {
	Source string
	Err    string
}

// ReconciliationReport is produced once per pipeline run and replaced on the
// next run. It lets the presentation layer distinguish "no matching rows"
// from "rows were dropped" and surface data-quality warnings.
type ReconciliationReport struct {
	RowsRead     int
	RowsMapped   int
	RowsMerged   int
	RowsRejected int
	Conflicts    int

	SourceFailures []SourceFailure
	Rejections     []Rejection
}

// AddRejection appends a rejection entry and bumps the relevant counters.
func (r *ReconciliationReport) AddRejection(rowRef string, reason RejectionReason, detail string) {
	r.Rejections = append(r.Rejections, Rejection{RowRef: rowRef, Reason: reason, Detail: detail})
	switch reason {
	case ReasonConflict:
		r.Conflicts++
	case ReasonUnknownPurity:
		// Row is kept; the entry is a data-quality warning only.
	default:
		r.RowsRejected++
	}
}

// AddSourceFailure records a skipped source.
func (r *ReconciliationReport) AddSourceFailure(source string, err error) {
	r.SourceFailures = append(r.SourceFailures, SourceFailure{Source: source, Err: err.Error()})
}
