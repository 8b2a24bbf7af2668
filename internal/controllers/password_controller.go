package controllers

import (
	"errors"
	"net/http"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/services"
	"github.com/gin-gonic/gin"
)

// PasswordController handles password changes, the live strength preview,
// and the forgot/reset flow.
type PasswordController struct {
	auth   *services.AuthService
	policy *services.PasswordPolicyService
	resets *services.PasswordResetService
}

func NewPasswordController(auth *services.AuthService, policy *services.PasswordPolicyService, resets *services.PasswordResetService) *PasswordController {
	return &PasswordController{auth: auth, policy: policy, resets: resets}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// Change replaces the password for the authenticated account.
// POST /user/password
func (pc *PasswordController) Change(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	err := pc.auth.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPasswordTooYoung):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password was changed too recently"})
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		case errors.Is(err, services.ErrPasswordTooWeak):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password does not meet strength requirements"})
		case errors.Is(err, services.ErrPasswordReused):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password was used recently, choose a different one"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Password change failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// Strength scores a candidate password for the UI meter without storing
// anything.
// GET /password/strength?candidate=
func (pc *PasswordController) Strength(c *gin.Context) {
	c.JSON(http.StatusOK, pc.policy.ScoreStrength(c.Query("candidate")))
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Forgot issues a reset link. The response never reveals whether the
// email matched an account.
// POST /auth/password/forgot
func (pc *PasswordController) Forgot(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := pc.resets.RequestReset(req.Email, c.ClientIP(), c.Request.UserAgent()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Request failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset link has been sent"})
}

// ResetInfo resolves a reset link to the email it was issued for, so the
// form can prefill it.
// GET /auth/password/reset/:rid
func (pc *PasswordController) ResetInfo(c *gin.Context) {
	req, err := pc.resets.GetActiveRequest(c.Param("rid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Request failed"})
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reset link is invalid or expired"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":      req.Email,
		"expires_at": req.ExpiresAt,
	})
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Reset consumes a reset link and replaces the password.
// POST /auth/password/reset/:rid
func (pc *PasswordController) Reset(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	err := pc.resets.ConsumeReset(c.Param("rid"), req.Email, req.NewPassword, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrResetRequestInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Reset link is invalid or expired"})
		case errors.Is(err, services.ErrPasswordTooYoung):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password was changed too recently"})
		case errors.Is(err, services.ErrPasswordTooWeak):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password does not meet strength requirements"})
		case errors.Is(err, services.ErrPasswordReused):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password was used recently, choose a different one"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Password reset failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully, log in with your new password"})
}
