package run

import "encoding/json"

// LedgerEntry is one recorded run with the metrics document written beside its model.
type LedgerEntry struct {
	Manifest RunManifest     `json:"manifest"`
	Metrics  json.RawMessage `json:"metrics"`
}
