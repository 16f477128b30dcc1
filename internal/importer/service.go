package importer

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
	enc "github.com/MrJamesThe3rd/invoicer/internal/encoding"
)

//go:generate mockgen -source=service.go -destination=importer_mock.go -package=importer
type ClientImporter interface {
	ImportBatch(ctx context.Context, companyID uuid.UUID, rows []client.ImportRow) (*client.ImportResult, error)
}

// Report describes what a CSV import did.
type Report struct {
	Profile string
	Charset enc.Charset
	*client.ImportResult
}

type Service struct {
	parser  *Parser
	clients ClientImporter
}

func NewService(clients ClientImporter) *Service {
	return &Service{parser: NewParser(), clients: clients}
}

// Import parses r and imports its rows as clients of the company.
func (s *Service) Import(ctx context.Context, companyID uuid.UUID, r io.Reader) (*Report, error) {
	parsed, err := s.parser.Parse(r)
	if err != nil {
		return nil, err
	}

	res, err := s.clients.ImportBatch(ctx, companyID, parsed.Rows)
	if err != nil {
		return nil, err
	}

	slog.Info("clients imported",
		"company_id", companyID,
		"profile", parsed.Profile,
		"charset", parsed.Charset,
		"imported", len(res.Imported),
		"duplicates", len(res.Duplicates),
		"rejected", len(res.Rejected),
	)

	return &Report{Profile: parsed.Profile, Charset: parsed.Charset, ImportResult: res}, nil
}
