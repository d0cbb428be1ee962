package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/FikranSE/bookingapp/internal/clock"
	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/FikranSE/bookingapp/internal/export"
	"github.com/FikranSE/bookingapp/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	service booking.BookingUseCase
	clock   clock.Clock
	log     *slog.Logger
}

func NewExportHandler(service booking.BookingUseCase, clk clock.Clock, log *slog.Logger) *ExportHandler {
	return &ExportHandler{service: service, clock: clk, log: log}
}

func (h *ExportHandler) Register(router *gin.RouterGroup) {
	router.GET("/admin/bookings/export", RequireAdmin(), h.export)
}

// export streams an XLSX report. The range defaults to the current month.
func (h *ExportHandler) export(c *gin.Context) {
	kind := domain.ResourceKind(c.DefaultQuery("kind", string(domain.ResourceRoom)))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown kind %q", kind)})
		return
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	today := domain.DayOf(h.clock.Now())
	if from == nil {
		first := today.AddDate(0, 0, 1-today.Day())
		from = &first
	}
	if to == nil {
		last := from.AddDate(0, 1, -from.Day())
		to = &last
	}
	if to.Before(*from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), principal(c), kind, booking.ListInput{
		Status:   c.Query("status"),
		DateFrom: from,
		DateTo:   to,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	report := export.Report{Kind: kind, From: *from, To: *to, Bookings: bookings}
	var buf bytes.Buffer
	if err := export.Write(&buf, report); err != nil {
		handleError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.FileName()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
