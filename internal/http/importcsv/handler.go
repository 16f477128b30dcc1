package importcsv

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/client"
	"github.com/MrJamesThe3rd/invoicer/internal/http/middleware"
	"github.com/MrJamesThe3rd/invoicer/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicer/internal/importer"
)

const maxUploadSize = 5 << 20

type Handler struct {
	importSvc *importer.Service
}

func NewHandler(importSvc *importer.Service) *Handler {
	return &Handler{importSvc: importSvc}
}

// Routes must be mounted behind middleware.RequireCompany.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type clientResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type incomingDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type duplicateDTO struct {
	Line     int             `json:"line"`
	Incoming incomingDTO     `json:"incoming"`
	Existing *clientResponse `json:"existing,omitempty"`
}

type rejectedDTO struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type importResponse struct {
	Profile    string           `json:"profile"`
	Charset    string           `json:"charset"`
	Imported   int              `json:"imported"`
	Clients    []clientResponse `json:"clients"`
	Duplicates []duplicateDTO   `json:"duplicates"`
	Rejected   []rejectedDTO    `json:"rejected"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.Error(w, r, apperr.Validation("Failed to parse form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, apperr.Validation("file field is required"))
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		respond.Error(w, r, apperr.Validation("File must be smaller than %d MB", maxUploadSize>>20))
		return
	}

	report, err := h.importSvc.Import(r.Context(), middleware.CompanyID(r), file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	status := http.StatusCreated
	if len(report.Imported) == 0 {
		status = http.StatusOK
	}

	respond.JSON(w, status, toImportResponse(report))
}

func toImportResponse(report *importer.Report) importResponse {
	resp := importResponse{
		Profile:    report.Profile,
		Charset:    string(report.Charset),
		Imported:   len(report.Imported),
		Clients:    make([]clientResponse, 0, len(report.Imported)),
		Duplicates: make([]duplicateDTO, 0, len(report.Duplicates)),
		Rejected:   make([]rejectedDTO, 0, len(report.Rejected)),
	}

	for _, c := range report.Imported {
		resp.Clients = append(resp.Clients, toClientResponse(c))
	}

	for _, d := range report.Duplicates {
		dto := duplicateDTO{Line: d.Line, Incoming: incomingDTO{Name: d.Incoming.Name, Email: d.Incoming.Email}}
		if d.Existing != nil {
			dto.Existing = new(toClientResponse(d.Existing))
		}

		resp.Duplicates = append(resp.Duplicates, dto)
	}

	for _, rej := range report.Rejected {
		resp.Rejected = append(resp.Rejected, rejectedDTO{Line: rej.Line, Reason: rej.Reason})
	}

	return resp
}

func toClientResponse(c *client.Client) clientResponse {
	return clientResponse{ID: c.ID, Name: c.Name, Email: c.Email}
}
