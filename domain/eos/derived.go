package eos

// AddCombinedPotential returns a copy of rs with the model-independent combined
// potentials muhat_H = muB_H + YQ*muQ_H and muhat_Q = muB_Q + YQ*muQ_Q.
func AddCombinedPotential(rs *RecordSet) (*RecordSet, error) {
	if err := rs.Require(ColYQ, ColMuBH, ColMuQH, ColMuBQ, ColMuQQ); err != nil {
		return nil, err
	}

	yq := rs.column(ColYQ)
	muBH, muQH := rs.column(ColMuBH), rs.column(ColMuQH)
	muBQ, muQQ := rs.column(ColMuBQ), rs.column(ColMuQQ)

	hatH := make([]float64, rs.Len())
	hatQ := make([]float64, rs.Len())
	for i := range hatH {
		hatH[i] = muBH[i] + yq[i]*muQH[i]
		hatQ[i] = muBQ[i] + yq[i]*muQQ[i]
	}

	out, err := rs.WithColumn(ColMuHatH, hatH)
	if err != nil {
		return nil, err
	}
	return out.WithColumn(ColMuHatQ, hatQ)
}
