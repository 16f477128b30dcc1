package company_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/company"
	"github.com/MrJamesThe3rd/invoicer/internal/patch"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestCompany_Prefix(t *testing.T) {
	assert.Equal(t, "INV", (&company.Company{}).Prefix())
	assert.Equal(t, "INV", (&company.Company{Details: company.Details{InvoicePrefix: "  "}}).Prefix())
	assert.Equal(t, "ACME-", (&company.Company{Details: company.Details{InvoicePrefix: "ACME-"}}).Prefix())
}

func TestDetails_AddressLines(t *testing.T) {
	d := company.Details{AddressLine1: "1 Main St", City: "Lisbon", PostalCode: "1000-001", Country: "Portugal"}
	assert.Equal(t, []string{"1 Main St", "Lisbon 1000-001", "Portugal"}, d.AddressLines())
}

func TestService_Create(t *testing.T) {
	userID := uuid.New()

	type testCase struct {
		name      string
		details   company.Details
		setupMock func(m *company.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:    "Success",
			details: company.Details{Name: "Acme"},
			setupMock: func(m *company.MockRepository) {
				m.EXPECT().CreateCompany(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *company.Company) error {
					assert.Equal(t, userID, c.UserID)
					c.ID = uuid.New()

					return nil
				})
			},
		},
		{
			name:    "MissingName",
			details: company.Details{Email: "a@b.c"},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "InvalidEmail",
			details: company.Details{Name: "Acme", Email: "billing@acme.test\r\nBcc: x@y.test"},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "PrefixTooLong",
			details: company.Details{Name: "Acme", InvoicePrefix: strings.Repeat("P", 21)},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "SecondCompany",
			details: company.Details{Name: "Acme"},
			setupMock: func(m *company.MockRepository) {
				m.EXPECT().CreateCompany(gomock.Any(), gomock.Any()).
					Return(apperr.Validation("Company already exists for this user"))
			},
			wantErr: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := company.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := company.NewService(repo, nil).Create(context.Background(), userID, tt.details)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
		})
	}
}

func TestService_Update(t *testing.T) {
	userID := uuid.New()

	existing := func() *company.Company {
		return &company.Company{ID: uuid.New(), UserID: userID, Details: company.Details{
			Name: "Acme", Email: "billing@acme.test", Website: "acme.test", InvoicePrefix: "AC",
		}}
	}

	t.Run("PartialMerge", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := company.NewMockRepository(ctrl)
		repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(existing(), nil)
		repo.EXPECT().UpdateCompany(gomock.Any(), gomock.Any()).Return(nil)

		got, err := company.NewService(repo, nil).Update(context.Background(), userID, company.UpdateParams{
			Phone:   patch.Set("+351 123"),
			Website: patch.Clear[string](),
		})
		require.NoError(t, err)

		assert.Equal(t, "Acme", got.Name)
		assert.Equal(t, "+351 123", got.Phone)
		assert.Empty(t, got.Website)
		assert.Equal(t, "AC", got.InvoicePrefix)
	})

	t.Run("ClearName", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := company.NewMockRepository(ctrl)
		repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(existing(), nil)

		_, err := company.NewService(repo, nil).Update(context.Background(), userID, company.UpdateParams{
			Name: patch.Clear[string](),
		})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("NoCompany", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := company.NewMockRepository(ctrl)
		repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(nil, apperr.NotFound("Company not found"))

		_, err := company.NewService(repo, nil).Update(context.Background(), userID, company.UpdateParams{})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	type testCase struct {
		name      string
		params    company.UpdateParams
		wantErr   error
		wantEmail string
	}

	tests := []testCase{
		{
			name:    "EmailWithHeaderInjection",
			params:  company.UpdateParams{Email: patch.Set("a@x.test\r\nReply-To: evil@y.test")},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "EmailNotAnAddress",
			params:  company.UpdateParams{Email: patch.Set("not-an-email")},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "PrefixTooLong",
			params:  company.UpdateParams{InvoicePrefix: patch.Set(strings.Repeat("P", 21))},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "NameTooLong",
			params:  company.UpdateParams{Name: patch.Set(strings.Repeat("n", 201))},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "BlankName",
			params:  company.UpdateParams{Name: patch.Set("   ")},
			wantErr: apperr.ErrValidation,
		},
		{
			name:      "EmailDisplayFormStoredBare",
			params:    company.UpdateParams{Email: patch.Set("Acme Billing <billing@acme.test>")},
			wantEmail: "billing@acme.test",
		},
		{
			name:      "EmailCleared",
			params:    company.UpdateParams{Email: patch.Clear[string]()},
			wantEmail: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := company.NewMockRepository(ctrl)
			repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(existing(), nil)

			if tt.wantErr == nil {
				repo.EXPECT().UpdateCompany(gomock.Any(), gomock.Any()).Return(nil)
			}

			got, err := company.NewService(repo, nil).Update(context.Background(), userID, tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, got.Email)
		})
	}
}

func TestService_Replace(t *testing.T) {
	userID := uuid.New()

	t.Run("OverwritesEveryField", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		c := &company.Company{ID: uuid.New(), UserID: userID, LogoKey: "logos/a.png", Details: company.Details{
			Name: "Acme", Phone: "123", Website: "acme.test", InvoicePrefix: "AC",
		}}

		repo := company.NewMockRepository(ctrl)
		repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(c, nil)
		repo.EXPECT().UpdateCompany(gomock.Any(), gomock.Any()).Return(nil)

		got, err := company.NewService(repo, nil).Replace(context.Background(), userID, company.Details{
			Name:  " Finch ",
			Email: "hello@finch.test",
		})
		require.NoError(t, err)

		assert.Equal(t, "Finch", got.Name)
		assert.Equal(t, "hello@finch.test", got.Email)
		assert.Empty(t, got.Phone)
		assert.Empty(t, got.Website)
		assert.Empty(t, got.InvoicePrefix)
		assert.Equal(t, "logos/a.png", got.LogoKey)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := company.NewMockRepository(ctrl)
		repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(&company.Company{ID: uuid.New()}, nil)

		_, err := company.NewService(repo, nil).Replace(context.Background(), userID, company.Details{
			Name:  "Finch",
			Email: "hello@finch.test\nBcc: x@y.test",
		})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestService_UpdateLogo(t *testing.T) {
	userID := uuid.New()

	type testCase struct {
		name      string
		data      []byte
		setupMock func(repo *company.MockRepository, blobs *company.MockBlobStore)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "ReplacesOldLogoEvenIfDeleteFails",
			data: pngHeader,
			setupMock: func(repo *company.MockRepository, blobs *company.MockBlobStore) {
				c := &company.Company{ID: uuid.New(), UserID: userID, LogoKey: "logos/old.png"}
				repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(c, nil)
				blobs.EXPECT().Delete(gomock.Any(), "logos/old.png").Return(errors.New("s3 unavailable"))
				blobs.EXPECT().
					Put(gomock.Any(), gomock.Any(), pngHeader, "image/png").
					DoAndReturn(func(_ context.Context, key string, _ []byte, _ string) (string, error) {
						assert.True(t, strings.HasPrefix(key, "logos/"))
						assert.True(t, strings.HasSuffix(key, ".png"))

						return "https://bucket.s3.amazonaws.com/" + key, nil
					})
				repo.EXPECT().UpdateLogo(gomock.Any(), c.ID, gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:    "NotAnImage",
			data:    []byte("%PDF-1.4 not a logo"),
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "Empty",
			wantErr: apperr.ErrValidation,
		},
		{
			name: "UploadFails",
			data: pngHeader,
			setupMock: func(repo *company.MockRepository, blobs *company.MockBlobStore) {
				repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(&company.Company{ID: uuid.New()}, nil)
				blobs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("denied"))
			},
			wantErr: errors.New("uploading logo: denied"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := company.NewMockRepository(ctrl)
			blobs := company.NewMockBlobStore(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo, blobs)
			}

			got, err := company.NewService(repo, blobs).UpdateLogo(context.Background(), userID, tt.data)
			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, apperr.ErrValidation) {
					assert.ErrorIs(t, err, apperr.ErrValidation)
				} else {
					assert.EqualError(t, err, tt.wantErr.Error())
				}

				return
			}

			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(got.LogoURL, "https://bucket.s3.amazonaws.com/logos/"))
		})
	}
}

func TestService_RemoveLogo(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()
	c := &company.Company{ID: uuid.New(), LogoURL: "https://bucket.s3.amazonaws.com/logos/abc.png"}

	repo := company.NewMockRepository(ctrl)
	blobs := company.NewMockBlobStore(ctrl)

	repo.EXPECT().GetCompanyByUser(gomock.Any(), userID).Return(c, nil)
	blobs.EXPECT().Delete(gomock.Any(), "logos/abc.png").Return(nil)
	repo.EXPECT().UpdateLogo(gomock.Any(), c.ID, "", "").Return(nil)

	got, err := company.NewService(repo, blobs).RemoveLogo(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, got.LogoURL)
}
