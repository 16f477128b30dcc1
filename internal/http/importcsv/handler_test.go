package importcsv_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
	"github.com/MrJamesThe3rd/invoicer/internal/http/importcsv"
	"github.com/MrJamesThe3rd/invoicer/internal/importer"
	"github.com/MrJamesThe3rd/invoicer/internal/tenant"
)

func upload(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "clients.csv")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/clients/import/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func serve(t *testing.T, companyID uuid.UUID, setup func(m *importer.MockClientImporter), req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := importer.NewMockClientImporter(ctrl)
	if setup != nil {
		setup(m)
	}

	r := chi.NewRouter()
	r.Route("/clients/import", importcsv.NewHandler(importer.NewService(m)).Routes)

	req = req.WithContext(tenant.WithCompany(req.Context(), companyID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Import(t *testing.T) {
	companyID := uuid.New()
	existing := &client.Client{ID: uuid.New(), Details: client.Details{Name: "Old", Email: "b@beta.test"}}

	csv := []byte("Name;Email;City\nAcme;a@acme.test;Porto\nBeta;b@beta.test;Braga\nNoMail;;Faro\n")

	rec := serve(t, companyID, func(m *importer.MockClientImporter) {
		m.EXPECT().ImportBatch(gomock.Any(), companyID, gomock.Len(3)).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, rows []client.ImportRow) (*client.ImportResult, error) {
				assert.Equal(t, "Porto", rows[0].City)
				assert.Equal(t, 4, rows[2].Line)

				return &client.ImportResult{
					Imported:   []*client.Client{{ID: uuid.New(), Details: rows[0].Details}},
					Duplicates: []client.Duplicate{{Line: 3, Incoming: rows[1].Details, Existing: existing}},
					Rejected:   []client.Rejected{{Line: 4, Reason: "Client email is required"}},
				}, nil
			})
	}, upload(t, "file", csv))

	require.Equal(t, http.StatusCreated, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"imported":1`)
	assert.Contains(t, body, `"existing":{"id":"`+existing.ID.String())
	assert.Contains(t, body, `{"line":4,"reason":"Client email is required"}`)
	assert.Contains(t, body, `"profile":"invoicer"`)
}

func TestHandler_ImportNothingNew(t *testing.T) {
	rec := serve(t, uuid.New(), func(m *importer.MockClientImporter) {
		m.EXPECT().ImportBatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(&client.ImportResult{}, nil)
	}, upload(t, "file", []byte("name,email\n")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"clients":[]`)
}

func TestHandler_ImportRejectsUpload(t *testing.T) {
	rec := serve(t, uuid.New(), nil, upload(t, "document", []byte("name,email\n")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file field is required")

	rec = serve(t, uuid.New(), nil, upload(t, "file", []byte("foo,bar\n1,2\n")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No recognised header row")
}
