package settings

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type memorySettingsRepo struct {
	settings CompanySettings
}

func newMemorySettingsRepo() *memorySettingsRepo {
	return &memorySettingsRepo{
		settings: CompanySettings{
			ID:                1,
			CompanyName:       "Meine Firma",
			InvoicePrefix:     "RE",
			NextInvoiceNumber: 1,
			QuotePrefix:       "AN",
			NextQuoteNumber:   1,
		},
	}
}

func (r *memorySettingsRepo) Get(ctx context.Context) (*CompanySettings, error) {
	s := r.settings
	return &s, nil
}

func (r *memorySettingsRepo) Update(ctx context.Context, updates map[string]interface{}) (*CompanySettings, error) {
	if v, ok := updates["company_name"]; ok {
		r.settings.CompanyName = v.(string)
	}
	if v, ok := updates["is_small_business"]; ok {
		r.settings.IsSmallBusiness = v.(bool)
	}
	if v, ok := updates["logo_url"]; ok {
		url := v.(string)
		r.settings.LogoURL = &url
	}
	s := r.settings
	return &s, nil
}

func (r *memorySettingsRepo) ReserveNumber(ctx context.Context, kind DocumentKind) (string, int64, error) {
	switch kind {
	case KindInvoice:
		seq := r.settings.NextInvoiceNumber
		r.settings.NextInvoiceNumber++
		return r.settings.InvoicePrefix, seq, nil
	case KindQuote:
		seq := r.settings.NextQuoteNumber
		r.settings.NextQuoteNumber++
		return r.settings.QuotePrefix, seq, nil
	}
	return "", 0, nil
}

type fakeBlobStore struct {
	saved []string
}

func (s *fakeBlobStore) Save(name string, content io.Reader) (string, error) {
	s.saved = append(s.saved, name)
	return "/uploads/" + name, nil
}

func newTestService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		store:    &fakeBlobStore{},
		validate: validator.New(),
		now:      func() time.Time { return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC) },
	}
}

func TestNextInvoiceNumberSequence(t *testing.T) {
	svc := newTestService(newMemorySettingsRepo())

	ctx := context.Background()
	var numbers []string
	for i := 0; i < 3; i++ {
		n, err := svc.NextInvoiceNumber(ctx)
		require.NoError(t, err)
		numbers = append(numbers, n)
	}

	require.Equal(t, []string{"RE2026-001", "RE2026-002", "RE2026-003"}, numbers)
}

func TestInvoiceAndQuoteCountersIndependent(t *testing.T) {
	svc := newTestService(newMemorySettingsRepo())
	ctx := context.Background()

	inv, err := svc.NextInvoiceNumber(ctx)
	require.NoError(t, err)
	qt, err := svc.NextQuoteNumber(ctx)
	require.NoError(t, err)

	require.Equal(t, "RE2026-001", inv)
	require.Equal(t, "AN2026-001", qt)
}

func TestUpdateRejectsInvalidEmail(t *testing.T) {
	svc := newTestService(newMemorySettingsRepo())

	bad := "not-an-email"
	_, err := svc.Update(context.Background(), UpdateSettingsRequest{Email: &bad})
	require.Error(t, err)
}

func TestUploadLogoRecordsURL(t *testing.T) {
	repo := newMemorySettingsRepo()
	store := &fakeBlobStore{}
	svc := &Service{repo: repo, store: store, validate: validator.New(), now: time.Now}

	url, err := svc.UploadLogo(context.Background(), "logo.png", nil)
	require.NoError(t, err)
	require.Equal(t, "/uploads/logo.png", url)
	require.NotNil(t, repo.settings.LogoURL)
	require.Equal(t, url, *repo.settings.LogoURL)
}
