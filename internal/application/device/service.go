package device

import (
	"context"
	"time"

	"github.com/memphis-pe/oc-api/internal/domain"
	"github.com/memphis-pe/oc-api/internal/pkg/id"
)

type Service interface {
	// Register exchanges a raw client push token for a platform endpoint,
	// stores one device record, and mirrors the endpoint into the legacy
	// singleton record so older readers keep working.
	Register(ctx context.Context, req domain.RegisterDeviceRequest) (*domain.DeviceToken, error)
	List(ctx context.Context, email string) ([]domain.DeviceToken, error)
	Deactivate(ctx context.Context, email, deviceID string) error
}

type tokenStore interface {
	PutDevice(ctx context.Context, d *domain.DeviceToken) error
	ListDevices(ctx context.Context, email string) ([]domain.DeviceToken, error)
	DeactivateDevice(ctx context.Context, email, deviceID string) error
	PutSingleton(ctx context.Context, t *domain.PushToken) error
}

type endpointRegistrar interface {
	Register(ctx context.Context, deviceToken string) (string, error)
}

type service struct {
	tokens    tokenStore
	registrar endpointRegistrar
}

func NewService(tokens tokenStore, registrar endpointRegistrar) Service {
	return &service{tokens: tokens, registrar: registrar}
}

func (s *service) Register(ctx context.Context, req domain.RegisterDeviceRequest) (*domain.DeviceToken, error) {
	endpointARN, err := s.registrar.Register(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	platform := req.Platform
	if platform == "" {
		platform = "web"
	}

	active := true
	now := time.Now().UTC()
	d := &domain.DeviceToken{
		Email:     req.Email,
		DeviceID:  id.New(),
		Token:     endpointARN,
		Activo:    &active,
		Platform:  platform,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tokens.PutDevice(ctx, d); err != nil {
		return nil, err
	}

	// Most recent registration wins the singleton slot.
	if err := s.tokens.PutSingleton(ctx, &domain.PushToken{Email: req.Email, Token: endpointARN}); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) List(ctx context.Context, email string) ([]domain.DeviceToken, error) {
	return s.tokens.ListDevices(ctx, email)
}

func (s *service) Deactivate(ctx context.Context, email, deviceID string) error {
	return s.tokens.DeactivateDevice(ctx, email, deviceID)
}
