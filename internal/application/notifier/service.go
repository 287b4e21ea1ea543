package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/memphis-pe/oc-api/internal/domain"
)

// tokenStore is the slice of the token directory the notifier needs: reads
// for resolution, cross-user scans and deletes for purging.
type tokenStore interface {
	GetSingleton(ctx context.Context, email string) (*domain.PushToken, error)
	ListDevices(ctx context.Context, email string) ([]domain.DeviceToken, error)
	ScanSingletonsByToken(ctx context.Context, token string) ([]domain.PushToken, error)
	ScanDevicesByToken(ctx context.Context, token string) ([]domain.DeviceToken, error)
	DeleteSingleton(ctx context.Context, email string) error
	DeleteDevice(ctx context.Context, email, deviceID string) error
}

type pushSender interface {
	Send(ctx context.Context, msg domain.PushMessage) error
}

type mailSender interface {
	SendEmail(to, subject, body string) error
}

// TestSendRequest is the payload of the manual test entry point.
type TestSendRequest struct {
	Email   string `json:"email" validate:"required,email"`
	OrderID string `json:"orderId"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

const (
	testTitleDefault = "Notificación de prueba"
	testBodyDefault  = "Mensaje de prueba del sistema de OC"
)

// Service reacts to order change events and exposes the manual test send.
type Service interface {
	OrderCreated(ctx context.Context, after *domain.Order)
	OrderModified(ctx context.Context, before, after *domain.Order)
	SendTest(ctx context.Context, req TestSendRequest) (*domain.DispatchResult, error)
}

// Options is the startup configuration of the notifier.
type Options struct {
	Lists      DistributionLists
	WebBaseURL string
	MailCopies bool // also mail distribution lists a copy of each event
}

type service struct {
	tokens tokenStore
	sender pushSender
	mailer mailSender
	opts   Options
}

// NewService wires the notification pipeline. mailer may be nil; mail copies
// are then skipped regardless of Options.MailCopies.
func NewService(tokens tokenStore, sender pushSender, mailer mailSender, opts Options) Service {
	return &service{tokens: tokens, sender: sender, mailer: mailer, opts: opts}
}

// OrderCreated fires once per new order document.
func (s *service) OrderCreated(ctx context.Context, after *domain.Order) {
	title := "OC creada"
	body := fmt.Sprintf("La OC %s fue creada por %s", after.Numero, after.CreadoPor)
	s.notify(ctx, after, title, body)
}

// OrderModified fires on every document modification and short-circuits
// unless the workflow state changed.
func (s *service) OrderModified(ctx context.Context, before, after *domain.Order) {
	if before.Estado == after.Estado {
		return
	}
	title := "Estado actualizado"
	body := fmt.Sprintf("La OC %s pasó a %s", after.Numero, after.Estado)
	s.notify(ctx, after, title, body)
}

// SendTest resolves one user's tokens and dispatches a test message.
func (s *service) SendTest(ctx context.Context, req TestSendRequest) (*domain.DispatchResult, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("email requerido: %w", domain.ErrBadRequest)
	}
	if req.Title == "" {
		req.Title = testTitleDefault
	}
	if req.Body == "" {
		req.Body = testBodyDefault
	}
	tokens, err := s.tokensFor(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, req.OrderID, req.Title, req.Body, tokens), nil
}

// notify runs the full pipeline for one event: recipients → tokens →
// dispatch. Directory failures are logged, never propagated — the document
// change already committed.
func (s *service) notify(ctx context.Context, o *domain.Order, title, body string) {
	recipients := Recipients(o, s.opts.Lists)
	if len(recipients) == 0 {
		slog.Info("no recipients for order event", "order_id", o.OrderID, "estado", o.Estado)
		return
	}

	tokens, err := s.tokensForAll(ctx, recipients)
	if err != nil {
		slog.Error("resolve recipient tokens", "order_id", o.OrderID, "err", err)
		return
	}

	res := s.dispatch(ctx, o.OrderID, title, body, tokens)
	slog.Info("order event dispatched",
		"order_id", o.OrderID,
		"title", title,
		"recipients", len(recipients),
		"tokens", len(tokens),
		"sent", res.Sent,
		"failed", len(res.Errors),
	)

	s.mailCopies(recipients, title, body)
}

// tokensFor resolves one user to the deduplicated union of the legacy
// singleton token and the active per-device tokens. Either shape may be
// absent without error.
func (s *service) tokensFor(ctx context.Context, email string) ([]string, error) {
	seen := make(map[string]struct{})
	var tokens []string
	add := func(t string) {
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}

	single, err := s.tokens.GetSingleton(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if single != nil {
		add(single.Token)
	}

	devices, err := s.tokens.ListDevices(ctx, email)
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].Active() {
			add(devices[i].Token)
		}
	}
	return tokens, nil
}

// tokensForAll merges token sets across recipients, deduplicated.
func (s *service) tokensForAll(ctx context.Context, emails []string) ([]string, error) {
	seen := make(map[string]struct{})
	var tokens []string
	for _, email := range emails {
		ts, err := s.tokensFor(ctx, email)
		if err != nil {
			return nil, err
		}
		for _, t := range ts {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			tokens = append(tokens, t)
		}
	}
	return tokens, nil
}

// dispatch sends one message per token concurrently. One failure never aborts
// sibling sends; every outcome is settled before dispatch returns. Tokens the
// provider reports as permanently invalid are purged, and those purges are
// also awaited.
func (s *service) dispatch(ctx context.Context, orderID, title, body string, tokens []string) *domain.DispatchResult {
	res := &domain.DispatchResult{Errors: []domain.SendError{}}
	if len(tokens) == 0 {
		return res
	}

	var mu sync.Mutex
	var sends sync.WaitGroup
	var purges sync.WaitGroup

	for _, tk := range tokens {
		sends.Add(1)
		go func(tk string) {
			defer sends.Done()
			msg := BuildMessage(tk, orderID, title, body, s.opts.WebBaseURL)
			err := s.sender.Send(ctx, msg)

			mu.Lock()
			if err == nil {
				res.Sent++
			} else {
				res.Errors = append(res.Errors, domain.SendError{Token: tk, Error: err.Error()})
			}
			mu.Unlock()

			if err != nil && errors.Is(err, domain.ErrTokenInvalid) {
				purges.Add(1)
				// Cleanup must survive a cancelled request context.
				purgeCtx := context.WithoutCancel(ctx)
				go func() {
					defer purges.Done()
					s.purgeToken(purgeCtx, tk)
				}()
			}
		}(tk)
	}

	sends.Wait()
	purges.Wait()
	return res
}

// purgeToken removes a stale token from every storage location it appears in,
// across all users. Tokens can end up under a different account after a
// re-login on a shared device, so the scan is deliberately exhaustive.
// Best effort: failures are logged, not surfaced.
func (s *service) purgeToken(ctx context.Context, token string) {
	var wg sync.WaitGroup

	singles, err := s.tokens.ScanSingletonsByToken(ctx, token)
	if err != nil {
		slog.Warn("purge: scan singleton tokens", "err", err)
	}
	for _, st := range singles {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			if err := s.tokens.DeleteSingleton(ctx, email); err != nil {
				slog.Warn("purge: delete singleton token", "email", email, "err", err)
			}
		}(st.Email)
	}

	devices, err := s.tokens.ScanDevicesByToken(ctx, token)
	if err != nil {
		slog.Warn("purge: scan device tokens", "err", err)
	}
	for _, d := range devices {
		wg.Add(1)
		go func(email, deviceID string) {
			defer wg.Done()
			if err := s.tokens.DeleteDevice(ctx, email, deviceID); err != nil {
				slog.Warn("purge: delete device token", "email", email, "device_id", deviceID, "err", err)
			}
		}(d.Email, d.DeviceID)
	}

	wg.Wait()
	slog.Info("purged invalid token", "singletons", len(singles), "devices", len(devices))
}

// mailCopies sends the event text to the recipients that are distribution
// lists. Best effort; individual users never get the mail copy.
func (s *service) mailCopies(recipients []string, title, body string) {
	if !s.opts.MailCopies || s.mailer == nil {
		return
	}
	lists := map[string]struct{}{
		s.opts.Lists.Operaciones: {},
		s.opts.Lists.Gerencia:    {},
		s.opts.Lists.Finanzas:    {},
	}
	for _, r := range recipients {
		if _, isList := lists[r]; !isList {
			continue
		}
		if err := s.mailer.SendEmail(r, title, body); err != nil {
			slog.Warn("mail copy failed", "to", r, "err", err)
		}
	}
}
