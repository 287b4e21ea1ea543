package supplier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/memphis-pe/oc-api/internal/domain"
	"github.com/memphis-pe/oc-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, req domain.CreateSupplierRequest) (*domain.Supplier, error)
	Get(ctx context.Context, supplierID string) (*domain.Supplier, error)
	GetByRUC(ctx context.Context, ruc string) (*domain.Supplier, error)
	List(ctx context.Context) ([]domain.Supplier, error)
	Update(ctx context.Context, supplierID string, req domain.UpdateSupplierRequest) (*domain.Supplier, error)
	Delete(ctx context.Context, supplierID string) error
}

type supplierStore interface {
	Put(ctx context.Context, s *domain.Supplier) error
	Get(ctx context.Context, supplierID string) (*domain.Supplier, error)
	GetByRUC(ctx context.Context, ruc string) (*domain.Supplier, error)
	Scan(ctx context.Context) ([]domain.Supplier, error)
	Update(ctx context.Context, supplierID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, supplierID string) error
}

type service struct {
	repo supplierStore
}

func NewService(repo supplierStore) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req domain.CreateSupplierRequest) (*domain.Supplier, error) {
	if _, err := s.repo.GetByRUC(ctx, req.RUC); err == nil {
		return nil, fmt.Errorf("ruc %s already registered: %w", req.RUC, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	sup := &domain.Supplier{
		SupplierID:  id.New(),
		RUC:         req.RUC,
		RazonSocial: req.RazonSocial,
		Direccion:   req.Direccion,
		Contacto:    req.Contacto,
		Email:       req.Email,
		Enable:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Put(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

func (s *service) Get(ctx context.Context, supplierID string) (*domain.Supplier, error) {
	return s.repo.Get(ctx, supplierID)
}

func (s *service) GetByRUC(ctx context.Context, ruc string) (*domain.Supplier, error) {
	return s.repo.GetByRUC(ctx, ruc)
}

func (s *service) List(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.Scan(ctx)
}

func (s *service) Update(ctx context.Context, supplierID string, req domain.UpdateSupplierRequest) (*domain.Supplier, error) {
	updates := map[string]interface{}{}
	if req.RazonSocial != nil {
		updates["razon_social"] = *req.RazonSocial
	}
	if req.Direccion != nil {
		updates["direccion"] = *req.Direccion
	}
	if req.Contacto != nil {
		updates["contacto"] = *req.Contacto
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, supplierID)
	}
	if err := s.repo.Update(ctx, supplierID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, supplierID)
}

func (s *service) Delete(ctx context.Context, supplierID string) error {
	return s.repo.SoftDelete(ctx, supplierID)
}
