package ports

import "eosphase/domain/eos"

// TableReaderPort loads an EOS table
type TableReaderPort interface {
	Load(path string) (*eos.RecordSet, error)
}
