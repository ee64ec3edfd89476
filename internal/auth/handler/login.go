package handler

import (
	"net/http"

	"identity-service/internal/auth"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DeviceToken string `json:"device_token"`
}

type appleLoginRequest struct {
	AppleToken  string `json:"apple_token" binding:"required"`
	DeviceToken string `json:"device_token"`
}

type googleLoginRequest struct {
	GoogleTokenID string `json:"google_token_id" binding:"required"`
	DeviceToken   string `json:"device_token"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.svc.LoginLocal(
		c.Request.Context(),
		req.Email,
		req.Password,
		req.DeviceToken,
	)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse(token))
}

func (h *Handler) AppleLogin(c *gin.Context) {
	var req appleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.svc.LoginWithProvider(
		c.Request.Context(),
		auth.ProviderApple,
		req.AppleToken,
		req.DeviceToken,
	)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse(token))
}

func (h *Handler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.svc.LoginWithProvider(
		c.Request.Context(),
		auth.ProviderGoogle,
		req.GoogleTokenID,
		req.DeviceToken,
	)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse(token))
}
