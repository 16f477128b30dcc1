package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/client"
	clientHandler "github.com/MrJamesThe3rd/invoicer/internal/http/client"
	"github.com/MrJamesThe3rd/invoicer/internal/tenant"
)

func serve(t *testing.T, companyID uuid.UUID, setup func(m *client.MockRepository), method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := client.NewMockRepository(ctrl)
	if setup != nil {
		setup(repo)
	}

	r := chi.NewRouter()
	r.Route("/clients", clientHandler.NewHandler(client.NewService(repo)).Routes)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(tenant.WithCompany(req.Context(), companyID))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Create(t *testing.T) {
	companyID := uuid.New()

	type testCase struct {
		name       string
		body       string
		setupMock  func(m *client.MockRepository)
		wantStatus int
		wantBody   string
	}

	tests := []testCase{
		{
			name: "Success",
			body: `{"name":" Acme ","email":"Billing@Acme.test","city":"Porto"}`,
			setupMock: func(m *client.MockRepository) {
				m.EXPECT().CreateClient(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *client.Client) error {
					assert.Equal(t, companyID, c.CompanyID)
					assert.Equal(t, "Acme", c.Name)
					assert.Equal(t, "billing@acme.test", c.Email)
					c.ID = uuid.New()

					return nil
				})
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"city":"Porto"`,
		},
		{
			name:       "MissingEmail",
			body:       `{"name":"Acme"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "email is required",
		},
		{
			name:       "MalformedBody",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, companyID, tt.setupMock, http.MethodPost, "/clients/", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestHandler_List(t *testing.T) {
	companyID := uuid.New()

	rec := serve(t, companyID, func(m *client.MockRepository) {
		m.EXPECT().ListClients(gomock.Any(), companyID).Return([]*client.Client{
			{ID: uuid.New(), Details: client.Details{Name: "Acme"}},
			{ID: uuid.New(), Details: client.Details{Name: "Beta"}},
		}, nil)
	}, http.MethodGet, "/clients/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Less(t, strings.Index(rec.Body.String(), "Acme"), strings.Index(rec.Body.String(), "Beta"))
}

func TestHandler_GetOtherTenant(t *testing.T) {
	companyID, id := uuid.New(), uuid.New()

	rec := serve(t, companyID, func(m *client.MockRepository) {
		m.EXPECT().GetClient(gomock.Any(), companyID, id).Return(nil, apperr.NotFound("Client not found"))
	}, http.MethodGet, "/clients/"+id.String(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Client not found")
}

func TestHandler_Update(t *testing.T) {
	companyID, id := uuid.New(), uuid.New()

	rec := serve(t, companyID, func(m *client.MockRepository) {
		m.EXPECT().GetClient(gomock.Any(), companyID, id).
			Return(&client.Client{ID: id, CompanyID: companyID, Details: client.Details{Name: "Acme", Email: "a@acme.test", Notes: "vip"}}, nil)
		m.EXPECT().UpdateClient(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *client.Client) error {
			assert.Equal(t, "Acme Ltd", c.Name)
			assert.Empty(t, c.Notes)
			assert.Equal(t, "a@acme.test", c.Email)

			return nil
		})
	}, http.MethodPatch, "/clients/"+id.String(), `{"name":"Acme Ltd","notes":null}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Delete(t *testing.T) {
	companyID, id := uuid.New(), uuid.New()

	rec := serve(t, companyID, func(m *client.MockRepository) {
		m.EXPECT().DeleteClient(gomock.Any(), companyID, id).Return(nil)
	}, http.MethodDelete, "/clients/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, companyID, nil, http.MethodDelete, "/clients/42", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
