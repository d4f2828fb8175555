package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"template-transformer/internal/common"
)

// Diagnostic codes emitted by the pipeline stages.
const (
	CodeDanglingChildSheet    = "dangling_child_sheet"
	CodeRevisitedSheet        = "revisited_sheet"
	CodeRowDropped            = "row_dropped"
	CodeUnknownSourceSheet    = "unknown_source_sheet"
	CodeOrphanRow             = "orphan_row"
	CodeMultiParentAttachment = "multi_parent_attachment"
	CodeAddCycle              = "add_cycle"
	CodeMissingTargetKey      = "missing_target_key"
	CodeContextLimit          = "context_limit"
	CodeRunAborted            = "run_aborted"
)

// Diagnostics holds all diagnostic information from a run.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic

	// Stats counts what each stage kept and dropped.
	Stats Stats
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Sheet identifies the template or target sheet this relates to (if any).
	Sheet string
	// Key identifies the row key this relates to (if any).
	Key string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// Stats are per-run counters. Every silent drop in the pipeline has one.
type Stats struct {
	RowsAnnotated          int
	RowsDropped            int
	RowsOrphaned           int
	RowsAttached           int
	MultiParentAttachments int
	DanglingLinks          int
	TopLevelRecords        int
	Contexts               int
	RulesFired             int
	RulesSkipped           int
	CandidatesSkipped      int
	AddsSpliced            int
	AddCycles              int
	RecordsEmitted         int
	RecordsKept            int
	RecordsCollapsed       int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.RowsAnnotated += other.RowsAnnotated
	s.RowsDropped += other.RowsDropped
	s.RowsOrphaned += other.RowsOrphaned
	s.RowsAttached += other.RowsAttached
	s.MultiParentAttachments += other.MultiParentAttachments
	s.DanglingLinks += other.DanglingLinks
	s.TopLevelRecords += other.TopLevelRecords
	s.Contexts += other.Contexts
	s.RulesFired += other.RulesFired
	s.RulesSkipped += other.RulesSkipped
	s.CandidatesSkipped += other.CandidatesSkipped
	s.AddsSpliced += other.AddsSpliced
	s.AddCycles += other.AddCycles
	s.RecordsEmitted += other.RecordsEmitted
	s.RecordsKept += other.RecordsKept
	s.RecordsCollapsed += other.RecordsCollapsed
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, sheet, key string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  message,
		Sheet:    sheet,
		Key:      key,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, sheet, key string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  message,
		Sheet:    sheet,
		Key:      key,
	})
}

// AddWarningWithSuggestions adds a warning diagnostic carrying suggestions.
func (d *Diagnostics) AddWarningWithSuggestions(code, message, sheet string, suggestions []string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity:    SeverityWarning,
		Code:        code,
		Message:     message,
		Sheet:       sheet,
		Suggestions: suggestions,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, sheet, key string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity: SeverityInfo,
		Code:     code,
		Message:  message,
		Sheet:    sheet,
		Key:      key,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one, including its counters.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}

	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
	d.Stats.Add(other.Stats)
}

// ByCode returns every diagnostic with the given code, in severity order.
func (d *Diagnostics) ByCode(code string) []Diagnostic {
	var out []Diagnostic

	for _, group := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		for _, diag := range group {
			if diag.Code == code {
				out = append(out, diag)
			}
		}
	}

	return out
}

// Error returns a combined error from all error diagnostics, or nil if there are none.
func (d *Diagnostics) Error() error {
	if !d.HasErrors() {
		return nil
	}

	var parts []string
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Sheet != "" {
		prefix = append(prefix, "["+d.Sheet+"]")
	}

	if d.Key != "" {
		prefix = append(prefix, d.Key)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
