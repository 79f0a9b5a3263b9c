// Package eos holds the equation-of-state record model: the named columns of a
// solver table, the derived combined potentials and the phase label.
package eos

// Column names assigned to the solver output.
const (
	ColYQ      = "YQ"
	ColT       = "T"
	ColFQuark  = "F_quark"
	ColFHadron = "F_hadron"
	ColMuBQ    = "muB_Q"
	ColMuBH    = "muB_H"
	ColMuQQ    = "muQ_Q"
	ColMuQH    = "muQ_H"

	ColMuHatH = "muhat_H"
	ColMuHatQ = "muhat_Q"

	ColPhase = "phase"
)

// MinSourceColumns is the narrowest row the solver layout allows.
const MinSourceColumns = 10

// SourceColumn pairs a named field with its positional index in the solver table.
type SourceColumn struct {
	Name  string
	Index int
}

// SourceLayout is the fixed positional mapping of the solver output.
// Columns 4 and 5 are not used by the pipeline.
var SourceLayout = []SourceColumn{
	{ColYQ, 0},
	{ColT, 1},
	{ColFQuark, 2},
	{ColFHadron, 3},
	{ColMuBQ, 6},
	{ColMuBH, 7},
	{ColMuQQ, 8},
	{ColMuQH, 9},
}

// RequiredColumns lists the fields every loaded record set carries, in layout order.
func RequiredColumns() []string {
	names := make([]string, len(SourceLayout))
	for i, c := range SourceLayout {
		names[i] = c.Name
	}
	return names
}

// Phase is the binary state label.
type Phase int

const (
	PhaseHadron Phase = 0
	PhaseQuark  Phase = 1
)

func (p Phase) String() string {
	switch p {
	case PhaseHadron:
		return "hadron"
	case PhaseQuark:
		return "quark"
	default:
		return "unknown"
	}
}
