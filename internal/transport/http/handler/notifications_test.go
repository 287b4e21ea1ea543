package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/memphis-pe/oc-api/internal/application/notifier"
	"github.com/memphis-pe/oc-api/internal/domain"
)

type mockNotifierSvc struct{ mock.Mock }

func (m *mockNotifierSvc) OrderCreated(ctx context.Context, after *domain.Order) {
	m.Called(ctx, after)
}

func (m *mockNotifierSvc) OrderModified(ctx context.Context, before, after *domain.Order) {
	m.Called(ctx, before, after)
}

func (m *mockNotifierSvc) SendTest(ctx context.Context, req notifier.TestSendRequest) (*domain.DispatchResult, error) {
	args := m.Called(ctx, req)
	if res, _ := args.Get(0).(*domain.DispatchResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSendTest_InvalidBody(t *testing.T) {
	h := NewNotificationHandler(&mockNotifierSvc{})
	r := httptest.NewRequest(http.MethodPost, "/v1/notifications/test", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.SendTest(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSendTest_MissingEmail(t *testing.T) {
	h := NewNotificationHandler(&mockNotifierSvc{})
	body, _ := json.Marshal(notifier.TestSendRequest{Title: "Hola"})
	r := httptest.NewRequest(http.MethodPost, "/v1/notifications/test", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.SendTest(rr, r)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestSendTest_ReportsDispatchOutcome(t *testing.T) {
	svc := &mockNotifierSvc{}
	svc.On("SendTest", mock.Anything, mock.MatchedBy(func(req notifier.TestSendRequest) bool {
		return req.Email == "maria@memphis.pe"
	})).Return(&domain.DispatchResult{
		Sent:   2,
		Errors: []domain.SendError{{Token: "arn:dead", Error: "endpoint disabled"}},
	}, nil)
	h := NewNotificationHandler(svc)

	body, _ := json.Marshal(notifier.TestSendRequest{Email: "maria@memphis.pe"})
	r := httptest.NewRequest(http.MethodPost, "/v1/notifications/test", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.SendTest(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp DispatchEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Sent)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "arn:dead", resp.Errors[0].Token)
	svc.AssertExpectations(t)
}

func TestSendTest_NoRegisteredTokens(t *testing.T) {
	svc := &mockNotifierSvc{}
	svc.On("SendTest", mock.Anything, mock.Anything).Return(&domain.DispatchResult{Sent: 0}, nil)
	h := NewNotificationHandler(svc)

	body, _ := json.Marshal(notifier.TestSendRequest{Email: "nadie@memphis.pe"})
	r := httptest.NewRequest(http.MethodPost, "/v1/notifications/test", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.SendTest(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp DispatchEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 0, resp.Sent)
	assert.Empty(t, resp.Errors)
}
