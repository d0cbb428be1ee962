package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/FikranSE/bookingapp/internal/service/booking"
	"github.com/gin-gonic/gin"
)

// BookingHandler serves one booking collection. Rooms and transports each
// get their own handler instance.
type BookingHandler struct {
	service booking.BookingUseCase
	kind    domain.ResourceKind
	log     *slog.Logger
}

type createBookingRequest struct {
	ResourceID  int64  `json:"resource_id"`
	RoomID      int64  `json:"room_id"`
	TransportID int64  `json:"transport_id"`
	BookingDate string `json:"booking_date" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
	PIC         string `json:"pic"`
	Section     string `json:"section"`
	Agenda      string `json:"agenda"`
	Destination string `json:"destination"`
	Notes       string `json:"notes"`
}

func (r createBookingRequest) resourceID(kind domain.ResourceKind) int64 {
	if r.ResourceID != 0 {
		return r.ResourceID
	}
	if kind == domain.ResourceTransport {
		return r.TransportID
	}
	return r.RoomID
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type bookingResponse struct {
	ID             int64      `json:"id"`
	Kind           string     `json:"kind"`
	UserID         int64      `json:"user_id"`
	UserEmail      string     `json:"user_email,omitempty"`
	ResourceID     int64      `json:"resource_id"`
	ResourceName   string     `json:"resource_name,omitempty"`
	ResourceDetail string     `json:"resource_detail,omitempty"`
	BookingDate    string     `json:"booking_date"`
	StartTime      string     `json:"start_time"`
	EndTime        string     `json:"end_time"`
	Status         string     `json:"status"`
	PIC            string     `json:"pic,omitempty"`
	Section        string     `json:"section,omitempty"`
	Agenda         string     `json:"agenda,omitempty"`
	Destination    string     `json:"destination,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	ApproverID     *int64     `json:"approver_id,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type updateResponse struct {
	Booking   bookingResponse `json:"booking"`
	EmailSent bool            `json:"email_sent"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:             b.ID,
		Kind:           string(b.Kind),
		UserID:         b.UserID,
		UserEmail:      b.UserEmail,
		ResourceID:     b.ResourceID,
		ResourceName:   b.ResourceName,
		ResourceDetail: b.ResourceDetail,
		BookingDate:    b.BookingDate.Format(domain.DateLayout),
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		Status:         string(b.Effective),
		PIC:            b.PIC,
		Section:        b.Section,
		Agenda:         b.Agenda,
		Destination:    b.Destination,
		Notes:          b.Notes,
		ApproverID:     b.ApproverID,
		ApprovedAt:     b.ApprovedAt,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func NewBookingHandler(service booking.BookingUseCase, kind domain.ResourceKind, log *slog.Logger) *BookingHandler {
	return &BookingHandler{service: service, kind: kind, log: log}
}

// Register expects router to already authenticate callers.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", RequireUser(), h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.PUT("/:id", RequireAdmin(), h.updateStatus)
	router.POST("/:id/cancel", RequireUser(), h.cancel)
	router.DELETE("/:id", RequireAdmin(), h.delete)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		Kind:        h.kind,
		UserID:      principal(c).ID,
		ResourceID:  req.resourceID(h.kind),
		BookingDate: req.BookingDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		PIC:         req.PIC,
		Section:     req.Section,
		Agenda:      req.Agenda,
		Destination: req.Destination,
		Notes:       req.Notes,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) list(c *gin.Context) {
	input := booking.ListInput{Status: c.Query("status")}

	var err error
	if input.DateFrom, err = parseDateQuery(c, "from"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.DateTo, err = parseDateQuery(c, "to"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), principal(c), h.kind, input)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), principal(c), h.kind, id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := domain.BookingStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	result, err := h.service.UpdateStatus(c.Request.Context(), principal(c).ID, h.kind, id, status)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updateResponse{Booking: toBookingResponse(result.Booking), EmailSent: result.EmailSent})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.service.CancelBooking(c.Request.Context(), principal(c), h.kind, id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updateResponse{Booking: toBookingResponse(result.Booking), EmailSent: result.EmailSent})
}

func (h *BookingHandler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteBooking(c.Request.Context(), h.kind, id); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func parseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD", key)
	}
	return &t, nil
}
