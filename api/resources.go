package api

import (
	"log/slog"
	"net/http"

	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/FikranSE/bookingapp/internal/service/resources"
	"github.com/gin-gonic/gin"
)

type ResourceHandler struct {
	service resources.ResourceUseCase
	log     *slog.Logger
}

func NewResourceHandler(service resources.ResourceUseCase, log *slog.Logger) *ResourceHandler {
	return &ResourceHandler{service: service, log: log}
}

// Register mounts /rooms and /transports. Reads are open to any
// authenticated caller and writes need an admin.
func (h *ResourceHandler) Register(router *gin.RouterGroup) {
	rooms := router.Group("/rooms")
	rooms.GET("", h.listRooms)
	rooms.GET("/:id", h.getRoom)
	rooms.POST("", RequireAdmin(), h.createRoom)
	rooms.PUT("/:id", RequireAdmin(), h.updateRoom)
	rooms.DELETE("/:id", RequireAdmin(), h.deleteRoom)

	transports := router.Group("/transports")
	transports.GET("", h.listTransports)
	transports.GET("/:id", h.getTransport)
	transports.POST("", RequireAdmin(), h.createTransport)
	transports.PUT("/:id", RequireAdmin(), h.updateTransport)
	transports.DELETE("/:id", RequireAdmin(), h.deleteTransport)
}

func (h *ResourceHandler) listRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *ResourceHandler) getRoom(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	room, err := h.service.GetRoom(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *ResourceHandler) createRoom(c *gin.Context) {
	var room domain.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room.ID = 0
	if err := h.service.CreateRoom(c.Request.Context(), &room); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *ResourceHandler) updateRoom(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var room domain.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room.ID = id
	if err := h.service.UpdateRoom(c.Request.Context(), &room); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *ResourceHandler) deleteRoom(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteRoom(c.Request.Context(), id); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ResourceHandler) listTransports(c *gin.Context) {
	transports, err := h.service.ListTransports(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, transports)
}

func (h *ResourceHandler) getTransport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	transport, err := h.service.GetTransport(c.Request.Context(), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, transport)
}

func (h *ResourceHandler) createTransport(c *gin.Context) {
	var transport domain.Transport
	if err := c.ShouldBindJSON(&transport); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	transport.ID = 0
	if err := h.service.CreateTransport(c.Request.Context(), &transport); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, transport)
}

func (h *ResourceHandler) updateTransport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var transport domain.Transport
	if err := c.ShouldBindJSON(&transport); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	transport.ID = id
	if err := h.service.UpdateTransport(c.Request.Context(), &transport); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, transport)
}

func (h *ResourceHandler) deleteTransport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteTransport(c.Request.Context(), id); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
