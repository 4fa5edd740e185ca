// File: internal/flows/elsmart.go
package flows

import (
	"context"

	"go.uber.org/zap"
)

// TableReader is the slice of the document reader the source needs.
type TableReader interface {
	ReadTable(ctx context.Context) (map[string]string, error)
}

// ElsmartSource exposes the grid-portal document as a label → value
// payload. Every Payload call re-reads the live document, so no refresh
// bookkeeping is needed.
type ElsmartSource struct {
	reader TableReader
	logger *zap.Logger
}

// NewElsmartSource creates the document collaborator.
func NewElsmartSource(reader TableReader, logger *zap.Logger) *ElsmartSource {
	return &ElsmartSource{reader: reader, logger: logger.Named("elsmart")}
}

// Payload reads the current document rows.
func (s *ElsmartSource) Payload(ctx context.Context) (map[string]string, error) {
	return s.reader.ReadTable(ctx)
}

// ResetState is a no-op: the document is owned by the portal and re-read
// on the next Payload call.
func (s *ElsmartSource) ResetState(ctx context.Context) error {
	s.logger.Debug("Document source reset (no-op)")
	return nil
}
