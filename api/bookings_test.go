package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FikranSE/bookingapp/internal/auth"
	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/FikranSE/bookingapp/internal/logger"
	"github.com/FikranSE/bookingapp/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, caller auth.Principal, kind domain.ResourceKind, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, caller, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context, caller auth.Principal, kind domain.ResourceKind, input booking.ListInput) ([]domain.Booking, error) {
	args := m.Called(ctx, caller, kind, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) UpdateStatus(ctx context.Context, adminID int64, kind domain.ResourceKind, id int64, status domain.BookingStatus) (*booking.UpdateResult, error) {
	args := m.Called(ctx, adminID, kind, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.UpdateResult), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, caller auth.Principal, kind domain.ResourceKind, id int64) (*booking.UpdateResult, error) {
	args := m.Called(ctx, caller, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.UpdateResult), args.Error(1)
}

func (m *MockBookingUseCase) DeleteBooking(ctx context.Context, kind domain.ResourceKind, id int64) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

var (
	userPrincipal  = auth.Principal{ID: 7, Role: domain.RoleUser}
	adminPrincipal = auth.Principal{ID: 1, Role: domain.RoleAdmin}
)

func newTestContext(method, target string, body any, p auth.Principal) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(principalKey, p)
	return c, w
}

func sampleBooking(status domain.BookingStatus, effective domain.EffectiveStatus) *domain.Booking {
	return &domain.Booking{
		ID:          1,
		Kind:        domain.ResourceRoom,
		UserID:      7,
		ResourceID:  3,
		BookingDate: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		StartTime:   "10:00",
		EndTime:     "11:00",
		Status:      status,
		Effective:   effective,
		Agenda:      "Sprint review",
	}
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, domain.ResourceRoom, logger.Discard())

	c, w := newTestContext("POST", "/api/room-bookings", map[string]any{
		"room_id":      3,
		"booking_date": "2026-03-10",
		"start_time":   "10:00",
		"end_time":     "11:00",
		"agenda":       "Sprint review",
	}, userPrincipal)

	input := booking.CreateBookingInput{
		Kind:        domain.ResourceRoom,
		UserID:      7,
		ResourceID:  3,
		BookingDate: "2026-03-10",
		StartTime:   "10:00",
		EndTime:     "11:00",
		Agenda:      "Sprint review",
	}
	mockService.On("CreateBooking", c.Request.Context(), input).
		Return(sampleBooking(domain.BookingStatusPending, domain.EffectivePending), nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "PENDING", response.Status)
	assert.Equal(t, "2026-03-10", response.BookingDate)
	assert.Equal(t, int64(3), response.ResourceID)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_validationError(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, domain.ResourceTransport, logger.Discard())

	c, w := newTestContext("POST", "/api/transport-bookings", map[string]any{
		"transport_id": 2,
		"booking_date": "2026-03-10",
		"start_time":   "10:00",
		"end_time":     "09:00",
	}, userPrincipal)

	mockService.On("CreateBooking", c.Request.Context(), mock.MatchedBy(func(in booking.CreateBookingInput) bool {
		return in.Kind == domain.ResourceTransport && in.ResourceID == 2
	})).Return(nil, domain.ErrValidation)

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_create_missingFields(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, domain.ResourceRoom, logger.Discard())

	c, w := newTestContext("POST", "/api/room-bookings", map[string]any{"room_id": 3}, userPrincipal)

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestBookingHandler_updateStatus(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, domain.ResourceRoom, logger.Discard())

	c, w := newTestContext("PUT", "/api/room-bookings/1", map[string]string{"status": "APPROVED"}, adminPrincipal)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	result := &booking.UpdateResult{
		Booking:   sampleBooking(domain.BookingStatusApproved, domain.EffectiveApproved),
		EmailSent: false,
	}
	mockService.On("UpdateStatus", c.Request.Context(), int64(1), domain.ResourceRoom, int64(1), domain.BookingStatusApproved).
		Return(result, nil)

	handler.updateStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response updateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "APPROVED", response.Booking.Status)
	assert.False(t, response.EmailSent)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_updateStatus_errors(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", domain.ErrBookingNotFound, http.StatusNotFound},
		{"already decided", domain.ErrInvalidTransition, http.StatusConflict},
		{"expired", domain.ErrBookingExpired, http.StatusConflict},
		{"bad status", domain.ErrValidation, http.StatusBadRequest},
		{"database", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			handler := NewBookingHandler(mockService, domain.ResourceRoom, logger.Discard())

			c, w := newTestContext("PUT", "/api/room-bookings/9", map[string]string{"status": "rejected"}, adminPrincipal)
			c.Params = gin.Params{{Key: "id", Value: "9"}}

			mockService.On("UpdateStatus", c.Request.Context(), int64(1), domain.ResourceRoom, int64(9), domain.BookingStatusRejected).
				Return(nil, tc.err)

			handler.updateStatus(c)

			assert.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), assert.AnError.Error())
			}
		})
	}
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, domain.ResourceRoom, logger.Discard())

	c, w := newTestContext("POST", "/api/room-bookings/1/cancel", nil, userPrincipal)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	result := &booking.UpdateResult{
		Booking:   sampleBooking(domain.BookingStatusCancelled, domain.EffectiveCancelled),
		EmailSent: true,
	}
	mockService.On("CancelBooking", c.Request.Context(), userPrincipal, domain.ResourceRoom, int64(1)).Return(result, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response updateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "CANCELLED", response.Booking.Status)
	assert.True(t, response.EmailSent)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_get_forbidden(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, domain.ResourceRoom, logger.Discard())

	c, w := newTestContext("GET", "/api/room-bookings/1", nil, userPrincipal)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	mockService.On("GetBooking", c.Request.Context(), userPrincipal, domain.ResourceRoom, int64(1)).Return(nil, domain.ErrForbidden)

	handler.get(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookingHandler_get_invalidID(t *testing.T) {
	handler := NewBookingHandler(&MockBookingUseCase{}, domain.ResourceRoom, logger.Discard())

	c, w := newTestContext("GET", "/api/room-bookings/abc", nil, userPrincipal)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_list(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, domain.ResourceRoom, logger.Discard())

	c, w := newTestContext("GET", "/api/room-bookings?status=expired&from=2026-03-01", nil, adminPrincipal)

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	mockService.On("ListBookings", c.Request.Context(), adminPrincipal, domain.ResourceRoom, booking.ListInput{Status: "expired", DateFrom: &from}).
		Return([]domain.Booking{*sampleBooking(domain.BookingStatusPending, domain.EffectiveExpired)}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "EXPIRED", response[0].Status)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_list_badDate(t *testing.T) {
	handler := NewBookingHandler(&MockBookingUseCase{}, domain.ResourceRoom, logger.Discard())

	c, w := newTestContext("GET", "/api/room-bookings?to=03/10/2026", nil, adminPrincipal)

	handler.list(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_delete(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, domain.ResourceTransport, logger.Discard())

	c, w := newTestContext("DELETE", "/api/transport-bookings/4", nil, adminPrincipal)
	c.Params = gin.Params{{Key: "id", Value: "4"}}

	mockService.On("DeleteBooking", c.Request.Context(), domain.ResourceTransport, int64(4)).Return(nil)

	handler.delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}
