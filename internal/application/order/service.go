package order

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/memphis-pe/oc-api/internal/domain"
	"github.com/memphis-pe/oc-api/internal/pkg/id"
)

const exportURLTTL = 15 * time.Minute

type Service interface {
	Create(ctx context.Context, req domain.CreateOrderRequest, createdBy string) (*domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	// List returns enabled orders, optionally filtered by workflow state.
	List(ctx context.Context, estado string) ([]domain.Order, error)
	Update(ctx context.Context, orderID string, req domain.UpdateOrderRequest) (*domain.Order, error)
	Delete(ctx context.Context, orderID string) error
	// ExportCSV writes all enabled orders to a CSV in object storage and
	// returns a time-limited download URL.
	ExportCSV(ctx context.Context) (string, error)
}

type orderStore interface {
	Put(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	GetByNumero(ctx context.Context, numero string) (*domain.Order, error)
	ListByEstado(ctx context.Context, estado string) ([]domain.Order, error)
	Scan(ctx context.Context) ([]domain.Order, error)
	Update(ctx context.Context, orderID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, orderID string) error
}

type exportStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type service struct {
	repo    orderStore
	exports exportStore
}

func NewService(repo orderStore, exports exportStore) Service {
	return &service{repo: repo, exports: exports}
}

func (s *service) Create(ctx context.Context, req domain.CreateOrderRequest, createdBy string) (*domain.Order, error) {
	if _, err := s.repo.GetByNumero(ctx, req.Numero); err == nil {
		return nil, fmt.Errorf("numero %s already exists: %w", req.Numero, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	o := &domain.Order{
		OrderID:    id.New(),
		Numero:     req.Numero,
		Estado:     domain.EstadoCreado,
		AsignadoA:  req.AsignadoA,
		Comprador:  req.Comprador,
		CreadoPor:  createdBy,
		SupplierID: req.SupplierID,
		Moneda:     req.Moneda,
		Total:      req.Total,
		Enable:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.Get(ctx, orderID)
}

func (s *service) List(ctx context.Context, estado string) ([]domain.Order, error) {
	if estado == "" {
		return s.repo.Scan(ctx)
	}
	if !domain.ValidEstado(estado) {
		return nil, fmt.Errorf("unknown estado %q: %w", estado, domain.ErrBadRequest)
	}
	return s.repo.ListByEstado(ctx, estado)
}

func (s *service) Update(ctx context.Context, orderID string, req domain.UpdateOrderRequest) (*domain.Order, error) {
	updates := map[string]interface{}{}
	if req.Estado != nil {
		if !domain.ValidEstado(*req.Estado) {
			return nil, fmt.Errorf("unknown estado %q: %w", *req.Estado, domain.ErrBadRequest)
		}
		updates["estado"] = *req.Estado
	}
	if req.AsignadoA != nil {
		updates["asignado_a"] = *req.AsignadoA
	}
	if req.Comprador != nil {
		updates["comprador"] = *req.Comprador
	}
	if req.SupplierID != nil {
		updates["supplier_id"] = *req.SupplierID
	}
	if req.Moneda != nil {
		updates["moneda"] = *req.Moneda
	}
	if req.Total != nil {
		updates["total"] = *req.Total
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, orderID)
	}
	if err := s.repo.Update(ctx, orderID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, orderID)
}

func (s *service) Delete(ctx context.Context, orderID string) error {
	return s.repo.SoftDelete(ctx, orderID)
}

func (s *service) ExportCSV(ctx context.Context) (string, error) {
	orders, err := s.repo.Scan(ctx)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"numero", "estado", "asignado_a", "comprador", "creado_por", "moneda", "total", "creada"})
	for i := range orders {
		o := &orders[i]
		_ = w.Write([]string{
			o.Numero,
			o.Estado,
			o.AsignadoA,
			o.Comprador,
			o.CreadoPor,
			o.Moneda,
			strconv.FormatFloat(o.Total, 'f', 2, 64),
			o.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write export csv: %w", err)
	}

	key := fmt.Sprintf("exports/ordenes-%s.csv", id.New())
	if _, err := s.exports.Upload(ctx, key, bytes.NewReader(buf.Bytes()), "text/csv"); err != nil {
		return "", err
	}
	return s.exports.PresignedURL(ctx, key, exportURLTTL)
}
