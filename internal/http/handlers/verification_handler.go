package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigscape/backend/internal/http/handlers/common"
	"github.com/gigscape/backend/internal/service"
)

// VerificationHandler drives email verification and password resets.
type VerificationHandler struct {
	verification *service.VerificationService
	auth         *service.AuthService
}

func NewVerificationHandler(verification *service.VerificationService, auth *service.AuthService) *VerificationHandler {
	return &VerificationHandler{verification: verification, auth: auth}
}

// RequestEmailVerification handles POST /verification/email/request.
func (h *VerificationHandler) RequestEmailVerification(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	if err := h.verification.RequestEmailVerification(c.Request.Context(), user); err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "verification email requested"})
}

// VerifyEmail handles POST /verification/email/confirm.
func (h *VerificationHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.verification.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "email verified"})
}

// RequestPasswordReset handles POST /verification/password/request.
func (h *VerificationHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.verification.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		common.Fail(c, err)
		return
	}

	// Same response whether or not the email exists.
	c.JSON(http.StatusOK, gin.H{"message": "if the email is registered, a reset link has been sent"})
}

// ResetPassword handles POST /verification/password/reset.
func (h *VerificationHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.verification.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
