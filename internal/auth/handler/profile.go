package handler

import (
	"net/http"

	"identity-service/internal/auth/service"
	"identity-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type editProfileRequest struct {
	Bio         *string `json:"bio"`
	Locale      *string `json:"locale"`
	Timezone    *string `json:"timezone"`
	DeviceToken *string `json:"device_token"`
	PushEnabled *bool   `json:"push_enabled"`
}

func (h *Handler) EditProfile(c *gin.Context) {
	var req editProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := h.svc.UpdateProfile(
		c.Request.Context(),
		middleware.UserID(c),
		service.ProfileUpdate{
			Bio:         req.Bio,
			Locale:      req.Locale,
			Timezone:    req.Timezone,
			DeviceToken: req.DeviceToken,
			PushEnabled: req.PushEnabled,
		},
	)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse(u))
}
