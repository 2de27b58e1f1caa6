package mocks

import (
	"context"

	"github.com/strip-admin-api/internal/models"
	"github.com/strip-admin-api/internal/service"
	"github.com/strip-admin-api/internal/store"
)

// MockSessionService accepts a fixed secret and token
type MockSessionService struct {
	Secret string
	Token  string
	Active map[string]bool
}

// Verify interface compliance
var _ service.SessionService = (*MockSessionService)(nil)

func NewMockSessionService(secret, token string) *MockSessionService {
	return &MockSessionService{
		Secret: secret,
		Token:  token,
		Active: make(map[string]bool),
	}
}

func (m *MockSessionService) Authenticate(secret string) (string, bool) {
	if secret != m.Secret {
		return "", false
	}
	m.Active[m.Token] = true
	return m.Token, true
}

func (m *MockSessionService) IsActive(token string) bool {
	return m.Active[token]
}

func (m *MockSessionService) Logout(token string) {
	delete(m.Active, token)
}

// MockStripService is a mock implementation of StripService
type MockStripService struct {
	Strips     []models.StripRecord
	ListErr    error
	UploadFunc func(ctx context.Context, req *models.UploadRequest) (*models.StripRecord, error)
	DeleteErr  error
	Uploads    []*models.UploadRequest
	Deletes    []models.StripRecord
}

// Verify interface compliance
var _ service.StripService = (*MockStripService)(nil)

func NewMockStripService(strips ...models.StripRecord) *MockStripService {
	return &MockStripService{Strips: strips}
}

func (m *MockStripService) List(ctx context.Context) ([]models.StripRecord, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Strips, nil
}

func (m *MockStripService) Get(ctx context.Context, id string) (*models.StripRecord, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	for i := range m.Strips {
		if m.Strips[i].ID == id {
			record := m.Strips[i]
			return &record, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MockStripService) Upload(ctx context.Context, req *models.UploadRequest) (*models.StripRecord, error) {
	m.Uploads = append(m.Uploads, req)
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, req)
	}
	record := &models.StripRecord{
		ID:          "strip-001",
		MediaType:   models.MediaTypeImage,
		ImageURL:    "/strips/" + req.Filename,
		PublishDate: req.PublishDate,
	}
	return record, nil
}

func (m *MockStripService) Delete(ctx context.Context, record models.StripRecord) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Deletes = append(m.Deletes, record)
	return nil
}

// MockPublicReader returns a canned index
type MockPublicReader struct {
	Index models.StripIndex
	Err   error
	Calls int
}

// Verify interface compliance
var _ service.PublicReader = (*MockPublicReader)(nil)

func (m *MockPublicReader) FetchIndex(ctx context.Context) (models.StripIndex, error) {
	m.Calls++
	if m.Err != nil {
		return models.StripIndex{}, m.Err
	}
	return m.Index, nil
}
