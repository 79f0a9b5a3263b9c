package eosfile

// rawRow is one physical row of the input, split into cells.
type rawRow struct {
	line   int // 0-based line (text) or row (sheet) index in the source
	fields []string
}

// LoadStats summarizes a load for logging and the run ledger.
type LoadStats struct {
	RowsRead    int `json:"rows_read"`
	RowsKept    int `json:"rows_kept"`
	RowsDropped int `json:"rows_dropped"`
}
