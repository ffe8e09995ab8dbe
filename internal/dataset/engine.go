package dataset

import "context"

// Engine defines the operations of a remote dataset query engine.
// All implementations must be safe for concurrent use.
type Engine interface {
	// Query runs a SQL statement against the dataset. The keyword DATASET in
	// the statement refers to the dataset's table.
	Query(ctx context.Context, datasetID, sql string) (*Payload, error)

	// Reset returns the dataset to its unmodified state.
	Reset(ctx context.Context, datasetID string) (*Payload, error)
}
