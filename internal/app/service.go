package app

import (
	"context"

	"github.com/joacominatel/dataconsole/internal/dataset"
)

const (
	OpQuery = "query"
	OpReset = "reset"
)

// Service coordinates dataset operations between the UI and the query engine.
type Service struct {
	engine    dataset.Engine
	datasetID string
}

// NewService creates a service bound to one dataset.
func NewService(engine dataset.Engine, datasetID string) *Service {
	return &Service{engine: engine, datasetID: datasetID}
}

// DatasetID returns the dataset the service queries.
func (s *Service) DatasetID() string {
	return s.datasetID
}

// Query runs a SQL statement against the dataset.
//
// A payload with its error flag set is returned together with an *ErrServer,
// so callers can still read the payload. Transport and decode failures return
// a nil payload and an *ErrTransport.
func (s *Service) Query(ctx context.Context, sql string) (*dataset.Payload, error) {
	p, err := s.engine.Query(ctx, s.datasetID, sql)
	return check(OpQuery, p, err)
}

// Reset restores the dataset to its unmodified state.
func (s *Service) Reset(ctx context.Context) (*dataset.Payload, error) {
	p, err := s.engine.Reset(ctx, s.datasetID)
	return check(OpReset, p, err)
}

func check(op string, p *dataset.Payload, err error) (*dataset.Payload, error) {
	if err != nil {
		return nil, &ErrTransport{Op: op, Cause: err}
	}
	if p == nil {
		return nil, &ErrTransport{Op: op, Cause: errEmptyPayload}
	}
	if p.Error {
		return p, &ErrServer{Op: op, Message: p.Message}
	}
	return p, nil
}
