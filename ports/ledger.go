package ports

import (
	"context"

	"eosphase/domain/core"
	"eosphase/domain/run"
)

// LedgerWriterPort provides append-only write access to the run ledger
type LedgerWriterPort interface {
	Record(ctx context.Context, manifest *run.RunManifest, metrics []byte) error
}

// LedgerReaderPort provides read-only access to recorded runs
type LedgerReaderPort interface {
	List(ctx context.Context, limit int) ([]*run.LedgerEntry, error)
	Get(ctx context.Context, id core.RunID) (*run.LedgerEntry, error)
}

// LedgerPort combines read and write access
type LedgerPort interface {
	LedgerWriterPort
	LedgerReaderPort
	Close() error
}
