package eos

// LabelPhase classifies one state. Equal free energies resolve to hadronic:
// the quark phase is chosen only when it is strictly lower.
func LabelPhase(fQuark, fHadron float64) Phase {
	if fQuark < fHadron {
		return PhaseQuark
	}
	return PhaseHadron
}

// AddPhaseLabel returns a copy of rs with the phase column (0 hadronic, 1 quark).
func AddPhaseLabel(rs *RecordSet) (*RecordSet, error) {
	if err := rs.Require(ColFQuark, ColFHadron); err != nil {
		return nil, err
	}

	fq, fh := rs.column(ColFQuark), rs.column(ColFHadron)
	phase := make([]float64, rs.Len())
	for i := range phase {
		phase[i] = float64(LabelPhase(fq[i], fh[i]))
	}
	return rs.WithColumn(ColPhase, phase)
}

// Labels returns the phase column as integers.
func Labels(rs *RecordSet) ([]int, error) {
	if err := rs.Require(ColPhase); err != nil {
		return nil, err
	}
	col := rs.column(ColPhase)
	out := make([]int, len(col))
	for i, v := range col {
		out[i] = int(v)
	}
	return out, nil
}
