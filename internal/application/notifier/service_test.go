package notifier

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/memphis-pe/oc-api/internal/domain"
)

// --- mocks ---

type mockTokenStore struct{ mock.Mock }

func (m *mockTokenStore) GetSingleton(ctx context.Context, email string) (*domain.PushToken, error) {
	args := m.Called(ctx, email)
	if t, _ := args.Get(0).(*domain.PushToken); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenStore) ListDevices(ctx context.Context, email string) ([]domain.DeviceToken, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]domain.DeviceToken), args.Error(1)
}
func (m *mockTokenStore) ScanSingletonsByToken(ctx context.Context, token string) ([]domain.PushToken, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]domain.PushToken), args.Error(1)
}
func (m *mockTokenStore) ScanDevicesByToken(ctx context.Context, token string) ([]domain.DeviceToken, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]domain.DeviceToken), args.Error(1)
}
func (m *mockTokenStore) DeleteSingleton(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockTokenStore) DeleteDevice(ctx context.Context, email, deviceID string) error {
	return m.Called(ctx, email, deviceID).Error(0)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, msg domain.PushMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

// --- helpers ---

func activo(b bool) *bool { return &b }

func newTestService(ts *mockTokenStore, snd *mockSender) *service {
	return &service{
		tokens: ts,
		sender: snd,
		opts: Options{
			Lists:      testLists,
			WebBaseURL: "https://oc.memphis.pe",
		},
	}
}

func noTokens(ts *mockTokenStore, email string) {
	ts.On("GetSingleton", mock.Anything, email).Return(nil, fmt.Errorf("push token not found: %w", domain.ErrNotFound))
	ts.On("ListDevices", mock.Anything, email).Return([]domain.DeviceToken{}, nil)
}

func sendTo(snd *mockSender, token string) *mock.Call {
	return snd.On("Send", mock.Anything, mock.MatchedBy(func(msg domain.PushMessage) bool {
		return msg.Token == token
	}))
}

// --- token directory reader ---

func TestTokensFor_UnionOfBothShapes_Deduplicated(t *testing.T) {
	ts := &mockTokenStore{}
	ts.On("GetSingleton", mock.Anything, "kevin@x.com").Return(&domain.PushToken{Email: "kevin@x.com", Token: "tokA"}, nil)
	ts.On("ListDevices", mock.Anything, "kevin@x.com").Return([]domain.DeviceToken{
		{Email: "kevin@x.com", DeviceID: "d1", Token: "tokA"},                      // duplicate of the singleton
		{Email: "kevin@x.com", DeviceID: "d2", Token: "tokB", Activo: activo(true)},
		{Email: "kevin@x.com", DeviceID: "d3", Token: "tokC", Activo: activo(false)}, // inactive
		{Email: "kevin@x.com", DeviceID: "d4", Token: ""},                            // empty token
	}, nil)

	svc := newTestService(ts, &mockSender{})
	tokens, err := svc.tokensFor(context.Background(), "kevin@x.com")

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tokA", "tokB"}, tokens)
}

func TestTokensFor_BothShapesAbsent(t *testing.T) {
	ts := &mockTokenStore{}
	noTokens(ts, "nadie@x.com")

	svc := newTestService(ts, &mockSender{})
	tokens, err := svc.tokensFor(context.Background(), "nadie@x.com")

	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestTokensFor_StorageFailurePropagates(t *testing.T) {
	ts := &mockTokenStore{}
	ts.On("GetSingleton", mock.Anything, "kevin@x.com").Return(nil, errors.New("dynamo unavailable"))

	svc := newTestService(ts, &mockSender{})
	_, err := svc.tokensFor(context.Background(), "kevin@x.com")

	require.Error(t, err)
	ts.AssertNotCalled(t, "ListDevices", mock.Anything, mock.Anything)
}

// --- dispatcher ---

func TestDispatch_EmptyTokenSet_ShortCircuits(t *testing.T) {
	snd := &mockSender{}
	svc := newTestService(&mockTokenStore{}, snd)

	res := svc.dispatch(context.Background(), "OC1", "t", "b", nil)

	assert.Equal(t, 0, res.Sent)
	assert.Empty(t, res.Errors)
	assert.NotNil(t, res.Errors)
	snd.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatch_AllSucceed(t *testing.T) {
	snd := &mockSender{}
	snd.On("Send", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(&mockTokenStore{}, snd)
	res := svc.dispatch(context.Background(), "OC1", "t", "b", []string{"t1", "t2", "t3"})

	assert.Equal(t, 3, res.Sent)
	assert.Empty(t, res.Errors)
	snd.AssertNumberOfCalls(t, "Send", 3)
}

func TestDispatch_InvalidToken_PurgedEverywhere(t *testing.T) {
	ts := &mockTokenStore{}
	snd := &mockSender{}

	sendTo(snd, "good").Return(nil)
	sendTo(snd, "stale").Return(fmt.Errorf("publish: endpoint disabled: %w", domain.ErrTokenInvalid))

	// The stale token lives under two different users: one singleton, one device.
	ts.On("ScanSingletonsByToken", mock.Anything, "stale").Return([]domain.PushToken{
		{Email: "old-owner@x.com", Token: "stale"},
	}, nil)
	ts.On("ScanDevicesByToken", mock.Anything, "stale").Return([]domain.DeviceToken{
		{Email: "new-owner@x.com", DeviceID: "d9", Token: "stale"},
	}, nil)
	ts.On("DeleteSingleton", mock.Anything, "old-owner@x.com").Return(nil)
	ts.On("DeleteDevice", mock.Anything, "new-owner@x.com", "d9").Return(nil)

	svc := newTestService(ts, snd)
	res := svc.dispatch(context.Background(), "OC1", "t", "b", []string{"good", "stale"})

	assert.Equal(t, 1, res.Sent)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "stale", res.Errors[0].Token)
	assert.Contains(t, res.Errors[0].Error, "endpoint disabled")
	ts.AssertExpectations(t)
}

func TestDispatch_TransientFailure_NotPurged(t *testing.T) {
	ts := &mockTokenStore{}
	snd := &mockSender{}
	sendTo(snd, "flaky").Return(errors.New("network timeout"))

	svc := newTestService(ts, snd)
	res := svc.dispatch(context.Background(), "OC1", "t", "b", []string{"flaky"})

	assert.Equal(t, 0, res.Sent)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "flaky", res.Errors[0].Token)
	ts.AssertNotCalled(t, "ScanSingletonsByToken", mock.Anything, mock.Anything)
	ts.AssertNotCalled(t, "ScanDevicesByToken", mock.Anything, mock.Anything)
}

func TestDispatch_PurgeFailureNotSurfaced(t *testing.T) {
	ts := &mockTokenStore{}
	snd := &mockSender{}
	sendTo(snd, "stale").Return(fmt.Errorf("gone: %w", domain.ErrTokenInvalid))

	ts.On("ScanSingletonsByToken", mock.Anything, "stale").Return([]domain.PushToken{{Email: "a@x.com", Token: "stale"}}, nil)
	ts.On("ScanDevicesByToken", mock.Anything, "stale").Return([]domain.DeviceToken{}, nil)
	ts.On("DeleteSingleton", mock.Anything, "a@x.com").Return(errors.New("dynamo unavailable"))

	svc := newTestService(ts, snd)
	res := svc.dispatch(context.Background(), "OC1", "t", "b", []string{"stale"})

	// Cleanup is best effort: the dispatch result only reflects the send.
	assert.Equal(t, 0, res.Sent)
	assert.Len(t, res.Errors, 1)
	ts.AssertExpectations(t)
}

// --- triggers ---

func TestOrderCreated_NotifiesAssignee(t *testing.T) {
	ts := &mockTokenStore{}
	snd := &mockSender{}

	ts.On("GetSingleton", mock.Anything, "kevin@x.com").Return(&domain.PushToken{Email: "kevin@x.com", Token: "tokK"}, nil)
	ts.On("ListDevices", mock.Anything, "kevin@x.com").Return([]domain.DeviceToken{}, nil)
	snd.On("Send", mock.Anything, mock.MatchedBy(func(msg domain.PushMessage) bool {
		return msg.Token == "tokK" && msg.Title == "OC creada" && msg.Data["ocId"] == "OC9"
	})).Return(nil)

	svc := newTestService(ts, snd)
	svc.OrderCreated(context.Background(), &domain.Order{
		OrderID:   "OC9",
		Numero:    "2024-0042",
		AsignadoA: "kevin@x.com",
		CreadoPor: "ana@x.com",
	})

	snd.AssertNumberOfCalls(t, "Send", 1)
}

func TestOrderModified_UnchangedEstado_NoDispatch(t *testing.T) {
	ts := &mockTokenStore{}
	snd := &mockSender{}

	svc := newTestService(ts, snd)
	before := &domain.Order{OrderID: "OC9", Estado: domain.EstadoCreado, AsignadoA: "kevin@x.com"}
	after := &domain.Order{OrderID: "OC9", Estado: domain.EstadoCreado, AsignadoA: "kevin@x.com", Total: 500}
	svc.OrderModified(context.Background(), before, after)

	snd.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	ts.AssertNotCalled(t, "GetSingleton", mock.Anything, mock.Anything)
}

func TestOrderModified_EstadoChange_NotifiesOperationsList(t *testing.T) {
	ts := &mockTokenStore{}
	snd := &mockSender{}

	ts.On("GetSingleton", mock.Anything, "kevin@x.com").Return(&domain.PushToken{Email: "kevin@x.com", Token: "tokK"}, nil)
	ts.On("ListDevices", mock.Anything, "kevin@x.com").Return([]domain.DeviceToken{}, nil)
	ts.On("GetSingleton", mock.Anything, "operaciones@memphis.pe").Return(nil, fmt.Errorf("push token not found: %w", domain.ErrNotFound))
	ts.On("ListDevices", mock.Anything, "operaciones@memphis.pe").Return([]domain.DeviceToken{
		{Email: "operaciones@memphis.pe", DeviceID: "d1", Token: "tokOps"},
	}, nil)
	snd.On("Send", mock.Anything, mock.MatchedBy(func(msg domain.PushMessage) bool {
		return msg.Title == "Estado actualizado"
	})).Return(nil)

	svc := newTestService(ts, snd)
	before := &domain.Order{OrderID: "OC9", Numero: "2024-0042", Estado: domain.EstadoCreado, AsignadoA: "kevin@x.com"}
	after := &domain.Order{OrderID: "OC9", Numero: "2024-0042", Estado: domain.EstadoPendienteOperaciones, AsignadoA: "kevin@x.com"}
	svc.OrderModified(context.Background(), before, after)

	snd.AssertNumberOfCalls(t, "Send", 2)
	ts.AssertExpectations(t)
}

func TestOrderModified_MailCopyGoesToListOnly(t *testing.T) {
	ts := &mockTokenStore{}
	snd := &mockSender{}
	ml := &mockMailer{}

	noTokens(ts, "kevin@x.com")
	noTokens(ts, "operaciones@memphis.pe")
	ml.On("SendEmail", "operaciones@memphis.pe", "Estado actualizado", mock.Anything).Return(nil)

	svc := newTestService(ts, snd)
	svc.mailer = ml
	svc.opts.MailCopies = true

	before := &domain.Order{OrderID: "OC9", Numero: "42", Estado: domain.EstadoCreado, AsignadoA: "kevin@x.com"}
	after := &domain.Order{OrderID: "OC9", Numero: "42", Estado: domain.EstadoPendienteOperaciones, AsignadoA: "kevin@x.com"}
	svc.OrderModified(context.Background(), before, after)

	ml.AssertExpectations(t)
	ml.AssertNumberOfCalls(t, "SendEmail", 1)
}

// --- manual test entry point ---

func TestSendTest_MissingEmail_ValidationError(t *testing.T) {
	ts := &mockTokenStore{}
	svc := newTestService(ts, &mockSender{})

	_, err := svc.SendTest(context.Background(), TestSendRequest{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	ts.AssertNotCalled(t, "GetSingleton", mock.Anything, mock.Anything)
}

func TestSendTest_DefaultsAndResultShape(t *testing.T) {
	ts := &mockTokenStore{}
	snd := &mockSender{}

	ts.On("GetSingleton", mock.Anything, "kevin@x.com").Return(&domain.PushToken{Email: "kevin@x.com", Token: "tokK"}, nil)
	ts.On("ListDevices", mock.Anything, "kevin@x.com").Return([]domain.DeviceToken{}, nil)
	snd.On("Send", mock.Anything, mock.MatchedBy(func(msg domain.PushMessage) bool {
		return msg.Title == testTitleDefault && msg.Body == testBodyDefault
	})).Return(nil)

	svc := newTestService(ts, snd)
	res, err := svc.SendTest(context.Background(), TestSendRequest{Email: "kevin@x.com"})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Empty(t, res.Errors)
}

func TestSendTest_NoTokens_ZeroResult(t *testing.T) {
	ts := &mockTokenStore{}
	snd := &mockSender{}
	noTokens(ts, "kevin@x.com")

	svc := newTestService(ts, snd)
	res, err := svc.SendTest(context.Background(), TestSendRequest{Email: "kevin@x.com"})

	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
	assert.Empty(t, res.Errors)
	snd.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
