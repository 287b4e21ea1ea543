package supplier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/memphis-pe/oc-api/internal/domain"
)

type mockSupplierStore struct {
	mock.Mock
}

func (m *mockSupplierStore) Put(ctx context.Context, s *domain.Supplier) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSupplierStore) Get(ctx context.Context, supplierID string) (*domain.Supplier, error) {
	args := m.Called(ctx, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Supplier), args.Error(1)
}

func (m *mockSupplierStore) GetByRUC(ctx context.Context, ruc string) (*domain.Supplier, error) {
	args := m.Called(ctx, ruc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Supplier), args.Error(1)
}

func (m *mockSupplierStore) Scan(ctx context.Context) ([]domain.Supplier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Supplier), args.Error(1)
}

func (m *mockSupplierStore) Update(ctx context.Context, supplierID string, updates map[string]interface{}) error {
	args := m.Called(ctx, supplierID, updates)
	return args.Error(0)
}

func (m *mockSupplierStore) SoftDelete(ctx context.Context, supplierID string) error {
	args := m.Called(ctx, supplierID)
	return args.Error(0)
}

func TestCreate_NewSupplier(t *testing.T) {
	repo := new(mockSupplierStore)
	repo.On("GetByRUC", mock.Anything, "20123456789").Return(nil, domain.ErrNotFound)
	repo.On("Put", mock.Anything, mock.MatchedBy(func(s *domain.Supplier) bool {
		return s.RUC == "20123456789" && s.Enable && s.SupplierID != ""
	})).Return(nil)

	svc := NewService(repo)
	s, err := svc.Create(context.Background(), domain.CreateSupplierRequest{
		RUC:         "20123456789",
		RazonSocial: "ACME SAC",
	})

	require.NoError(t, err)
	assert.Equal(t, "ACME SAC", s.RazonSocial)
	repo.AssertExpectations(t)
}

func TestCreate_DuplicateRUC(t *testing.T) {
	repo := new(mockSupplierStore)
	repo.On("GetByRUC", mock.Anything, "20123456789").
		Return(&domain.Supplier{SupplierID: "existing"}, nil)

	svc := NewService(repo)
	_, err := svc.Create(context.Background(), domain.CreateSupplierRequest{
		RUC:         "20123456789",
		RazonSocial: "ACME SAC",
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestUpdate_BuildsFieldMap(t *testing.T) {
	repo := new(mockSupplierStore)
	razon := "ACME PERU SAC"
	repo.On("Update", mock.Anything, "s1", map[string]interface{}{
		"razon_social": razon,
	}).Return(nil)
	repo.On("Get", mock.Anything, "s1").Return(&domain.Supplier{SupplierID: "s1", RazonSocial: razon}, nil)

	svc := NewService(repo)
	got, err := svc.Update(context.Background(), "s1", domain.UpdateSupplierRequest{RazonSocial: &razon})

	require.NoError(t, err)
	assert.Equal(t, razon, got.RazonSocial)
	repo.AssertExpectations(t)
}
