package company_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/auth"
	"github.com/MrJamesThe3rd/invoicer/internal/company"
	companyHandler "github.com/MrJamesThe3rd/invoicer/internal/http/company"
	"github.com/MrJamesThe3rd/invoicer/internal/http/middleware"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type mocks struct {
	repo  *company.MockRepository
	blobs *company.MockBlobStore
}

func serve(t *testing.T, setup func(userID uuid.UUID, m mocks), req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := mocks{repo: company.NewMockRepository(ctrl), blobs: company.NewMockBlobStore(ctrl)}
	userID := uuid.New()

	if setup != nil {
		setup(userID, m)
	}

	r := chi.NewRouter()
	r.Route("/company", companyHandler.NewHandler(company.NewService(m.repo, m.blobs)).Routes)

	req = req.WithContext(middleware.WithPrincipal(req.Context(), auth.Principal{UserID: userID}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/company/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func TestHandler_Get(t *testing.T) {
	rec := serve(t, func(userID uuid.UUID, m mocks) {
		m.repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(nil, apperr.NotFound("company not found"))
	}, httptest.NewRequest(http.MethodGet, "/company/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Company not found")
}

func TestHandler_Create(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		setupMock  func(userID uuid.UUID, m mocks)
		wantStatus int
		wantBody   string
	}

	tests := []testCase{
		{
			name: "Success",
			body: `{"name":"Finch Studio","email":"hello@finch.test","invoicePrefix":"FS-"}`,
			setupMock: func(userID uuid.UUID, m mocks) {
				m.repo.EXPECT().CreateCompany(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *company.Company) error {
					assert.Equal(t, userID, c.UserID)
					assert.Equal(t, "FS-", c.InvoicePrefix)
					c.ID = uuid.New()

					return nil
				})
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"invoicePrefix":"FS-"`,
		},
		{
			name:       "MissingName",
			body:       `{"email":"hello@finch.test"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "name is required",
		},
		{
			name:       "InvalidEmail",
			body:       `{"name":"Finch","email":"nope"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "email must be a valid email",
		},
		{
			name: "SecondCompany",
			body: `{"name":"Finch"}`,
			setupMock: func(_ uuid.UUID, m mocks) {
				m.repo.EXPECT().CreateCompany(gomock.Any(), gomock.Any()).Return(apperr.Validation("Company already exists for this user"))
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   "already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.setupMock, jsonRequest(http.MethodPost, tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestHandler_Update(t *testing.T) {
	rec := serve(t, func(userID uuid.UUID, m mocks) {
		c := &company.Company{ID: uuid.New(), UserID: userID, Details: company.Details{Name: "Finch", Phone: "123", City: "Lisboa"}}

		m.repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(c, nil)
		m.repo.EXPECT().UpdateCompany(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *company.Company) error {
			assert.Equal(t, "Porto", c.City)
			assert.Empty(t, c.Phone)
			assert.Equal(t, "Finch", c.Name)

			return nil
		})
	}, jsonRequest(http.MethodPatch, `{"city":"Porto","phone":null}`))

	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, func(userID uuid.UUID, m mocks) {
		m.repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(&company.Company{Details: company.Details{Name: "Finch"}}, nil)
	}, jsonRequest(http.MethodPatch, `{"name":null}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, func(userID uuid.UUID, m mocks) {
		m.repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(&company.Company{Details: company.Details{Name: "Finch"}}, nil)
	}, jsonRequest(http.MethodPatch, `{"email":"a@x.test\r\nReply-To: evil@y.test"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid company email")
}

func TestHandler_Replace(t *testing.T) {
	rec := serve(t, func(userID uuid.UUID, m mocks) {
		c := &company.Company{ID: uuid.New(), UserID: userID, Details: company.Details{Name: "Finch", Phone: "123", City: "Lisboa"}}

		m.repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(c, nil)
		m.repo.EXPECT().UpdateCompany(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *company.Company) error {
			assert.Equal(t, "Finch Studio", c.Name)
			assert.Equal(t, "Porto", c.City)
			assert.Empty(t, c.Phone)

			return nil
		})
	}, jsonRequest(http.MethodPut, `{"name":"Finch Studio","city":"Porto"}`))

	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, nil, jsonRequest(http.MethodPut, `{"city":"Porto"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
}

func multipartLogo(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "logo.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/company/logo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestHandler_UploadLogo(t *testing.T) {
	rec := serve(t, func(userID uuid.UUID, m mocks) {
		c := &company.Company{ID: uuid.New(), UserID: userID, Details: company.Details{Name: "Finch"}}

		m.repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(c, nil)
		m.blobs.EXPECT().Put(gomock.Any(), gomock.Any(), pngHeader, "image/png").Return("https://cdn.test/logos/x.png", nil)
		m.repo.EXPECT().UpdateLogo(gomock.Any(), c.ID, gomock.Any(), "https://cdn.test/logos/x.png").Return(nil)
	}, multipartLogo(t, "logo", pngHeader))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"logoUrl":"https://cdn.test/logos/x.png"`)

	rec = serve(t, nil, multipartLogo(t, "other", pngHeader))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, nil, multipartLogo(t, "logo", []byte("plain text, not an image")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RemoveLogo(t *testing.T) {
	rec := serve(t, func(userID uuid.UUID, m mocks) {
		c := &company.Company{ID: uuid.New(), UserID: userID, LogoKey: "logos/a.png", LogoURL: "https://cdn.test/logos/a.png"}

		m.repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(c, nil)
		m.blobs.EXPECT().Delete(gomock.Any(), "logos/a.png").Return(nil)
		m.repo.EXPECT().UpdateLogo(gomock.Any(), c.ID, "", "").Return(nil)
	}, httptest.NewRequest(http.MethodDelete, "/company/logo", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "logoUrl")
}
