package user_test

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

	"github.com/MrJamesThe3rd/invoicer/internal/auth"
	"github.com/MrJamesThe3rd/invoicer/internal/http/middleware"
	userHandler "github.com/MrJamesThe3rd/invoicer/internal/http/user"
	"github.com/MrJamesThe3rd/invoicer/internal/user"
)

type registrarFunc func(ctx context.Context, p auth.RegisterParams) (*user.User, error)

func (f registrarFunc) Register(ctx context.Context, p auth.RegisterParams) (*user.User, error) {
	return f(ctx, p)
}

func serve(t *testing.T, repo user.Repository, reg userHandler.Registrar, caller auth.Principal, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Route("/users", userHandler.NewHandler(user.NewService(repo), reg).Routes)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithPrincipal(req.Context(), caller))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Profile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	me := &user.User{ID: uuid.New(), Email: "ana@example.com", Role: user.RoleUser}
	repo.EXPECT().GetUser(gomock.Any(), me.ID).Return(me, nil)

	rec := serve(t, repo, nil, auth.Principal{UserID: me.ID, Role: user.RoleUser}, http.MethodGet, "/users/profile", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ana@example.com")
}

func TestHandler_AdminRoutes(t *testing.T) {
	type testCase struct {
		name       string
		role       user.Role
		method     string
		body       string
		setupMock  func(m *user.MockRepository)
		wantStatus int
	}

	tests := []testCase{
		{
			name:   "AdminLists",
			role:   user.RoleAdmin,
			method: http.MethodGet,
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().ListUsers(gomock.Any()).Return([]*user.User{{ID: uuid.New()}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "UserCannotList",
			role:       user.RoleUser,
			method:     http.MethodGet,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "AdminCreates",
			role:       user.RoleAdmin,
			method:     http.MethodPost,
			body:       `{"email":"new@example.com","password":"Sup3r$ecret","firstName":"New","lastName":"Admin","role":"Admin"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "InvalidRole",
			role:       user.RoleAdmin,
			method:     http.MethodPost,
			body:       `{"email":"new@example.com","password":"Sup3r$ecret","firstName":"New","lastName":"Admin","role":"root"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "UserCannotCreate",
			role:       user.RoleUser,
			method:     http.MethodPost,
			body:       `{}`,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := user.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			reg := registrarFunc(func(_ context.Context, p auth.RegisterParams) (*user.User, error) {
				assert.True(t, p.Admin)
				return &user.User{ID: uuid.New(), Email: p.Email, Role: user.RoleAdmin}, nil
			})

			rec := serve(t, repo, reg, auth.Principal{UserID: uuid.New(), Role: tt.role}, tt.method, "/users/", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandler_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	me := &user.User{ID: uuid.New(), Email: "ana@example.com", FirstName: "Ana", LastName: "Silva"}

	repo.EXPECT().GetUser(gomock.Any(), me.ID).Return(me, nil)
	repo.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *user.User) error {
		assert.Equal(t, "Joana", u.FirstName)
		assert.Empty(t, u.LastName)
		assert.Equal(t, "ana@example.com", u.Email)

		return nil
	})

	rec := serve(t, repo, nil, auth.Principal{UserID: me.ID, Role: user.RoleUser},
		http.MethodPatch, "/users/"+me.ID.String(), `{"firstName":"Joana","lastName":null}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, repo, nil, auth.Principal{UserID: me.ID, Role: user.RoleUser},
		http.MethodPatch, "/users/"+uuid.NewString(), `{"firstName":"X"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	id := uuid.New()
	repo.EXPECT().DeleteUser(gomock.Any(), id).Return(nil)

	rec := serve(t, repo, nil, auth.Principal{UserID: uuid.New(), Role: user.RoleAdmin}, http.MethodDelete, "/users/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, repo, nil, auth.Principal{UserID: uuid.New(), Role: user.RoleAdmin}, http.MethodDelete, "/users/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
