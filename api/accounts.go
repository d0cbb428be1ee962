package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/FikranSE/bookingapp/internal/service/account"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	service account.AccountUseCase
	log     *slog.Logger
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type adminResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type sessionResponse struct {
	Token string         `json:"token"`
	User  *userResponse  `json:"user,omitempty"`
	Admin *adminResponse `json:"admin,omitempty"`
}

func toSessionResponse(s *account.Session) sessionResponse {
	resp := sessionResponse{Token: s.Token}
	if s.User != nil {
		resp.User = &userResponse{ID: s.User.ID, Name: s.User.Name, Email: s.User.Email, Phone: s.User.Phone, CreatedAt: s.User.CreatedAt}
	}
	if s.Admin != nil {
		resp.Admin = &adminResponse{ID: s.Admin.ID, Username: s.Admin.Username, Email: s.Admin.Email}
	}
	return resp
}

func NewAccountHandler(service account.AccountUseCase, log *slog.Logger) *AccountHandler {
	return &AccountHandler{service: service, log: log}
}

func (h *AccountHandler) RegisterPublic(router *gin.RouterGroup) {
	router.POST("/auth/register", h.register)
	router.POST("/auth/login", h.login)
	router.POST("/admin/login", h.adminLogin)
}

func (h *AccountHandler) RegisterPrivate(router *gin.RouterGroup) {
	router.PUT("/users/me/push-token", RequireUser(), h.updatePushToken)
}

func (h *AccountHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := h.service.Register(c.Request.Context(), account.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(session))
}

func (h *AccountHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (h *AccountHandler) adminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := h.service.AdminLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (h *AccountHandler) updatePushToken(c *gin.Context) {
	var req pushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UpdatePushToken(c.Request.Context(), principal(c).ID, req.Token); err != nil {
		handleError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
