package controllers

import (
	"errors"
	"net/http"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthController handles registration, login (both steps), logout, and
// second-factor management.
type AuthController struct {
	auth *services.AuthService
	cfg  *config.Config
}

func NewAuthController(auth *services.AuthService, cfg *config.Config) *AuthController {
	return &AuthController{auth: auth, cfg: cfg}
}

type registerRequest struct {
	FullName     string `json:"full_name" binding:"required,max=100"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	CaptchaToken string `json:"captcha_token"`
}

// Register creates a new account.
// POST /auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := ac.auth.Register(c.Request.Context(), req.FullName, req.Email, req.Password, req.CaptchaToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBotCheckFailed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Captcha verification failed"})
		case errors.Is(err, services.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
		case errors.Is(err, services.ErrPasswordTooWeak):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password does not meet strength requirements"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user": gin.H{
			"id":        user.ID,
			"email":     user.Email,
			"full_name": user.FullName,
		},
	})
}

type loginRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	CaptchaToken string `json:"captcha_token"`
}

// Login runs the password step.
// POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := ac.auth.Login(c.Request.Context(), services.LoginInput{
		Email:        req.Email,
		Password:     req.Password,
		CaptchaToken: req.CaptchaToken,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		ac.renderLoginFailure(c, result, err)
		return
	}

	if result.SecondFactorRequired {
		c.JSON(http.StatusOK, gin.H{
			"message":      "Verification code sent",
			"two_factor":   true,
			"challenge_id": result.ChallengeID,
		})
		return
	}

	ac.issueSession(c, result)
}

type loginCodeRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

// LoginWithCode runs the second-factor step.
// POST /auth/login/code
func (ac *AuthController) LoginWithCode(c *gin.Context) {
	var req loginCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	challengeID, err := uuid.Parse(req.ChallengeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid challenge id"})
		return
	}

	result, err := ac.auth.LoginWithCode(challengeID, req.Code, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChallengeExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Verification window expired, log in again"})
		case errors.Is(err, services.ErrSecondFactorInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid verification code"})
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		}
		return
	}

	ac.issueSession(c, result)
}

// Logout terminates the current session and clears both cookies. It only
// needs the JWT context so it still works when the session itself has
// already expired.
// POST /auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	clientToken, _ := c.Cookie(ac.cfg.Session.CookieName)

	if value, exists := c.Get("userID"); exists && clientToken != "" {
		if userID, ok := value.(uuid.UUID); ok {
			if user, err := ac.auth.GetProfile(userID); err == nil && user != nil {
				if err := ac.auth.Logout(user, clientToken, c.ClientIP(), c.Request.UserAgent()); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
					return
				}
			}
		}
	}

	ac.clearCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "User logged out successfully"})
}

// Profile returns the authenticated account.
// GET /user
func (ac *AuthController) Profile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":                 user.ID,
			"email":              user.Email,
			"full_name":          user.FullName,
			"two_factor_enabled": user.SecondFactorEnabled(),
			"last_login_at":      user.LastLoginAt,
		},
	})
}

// EnableSecondFactor emails a confirmation code to the account.
// POST /user/2fa/enable
func (ac *AuthController) EnableSecondFactor(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := ac.auth.EnableSecondFactor(user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}

type secondFactorCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ConfirmSecondFactor turns the factor on.
// POST /user/2fa/confirm
func (ac *AuthController) ConfirmSecondFactor(c *gin.Context) {
	ac.updateSecondFactor(c, ac.auth.ConfirmSecondFactor, "Two-factor authentication enabled")
}

// DisableSecondFactor turns the factor off.
// POST /user/2fa/disable
func (ac *AuthController) DisableSecondFactor(c *gin.Context) {
	ac.updateSecondFactor(c, ac.auth.DisableSecondFactor, "Two-factor authentication disabled")
}

func (ac *AuthController) updateSecondFactor(c *gin.Context, apply func(uuid.UUID, string, string, string) error, message string) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req secondFactorCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := apply(user.ID, req.Code, c.ClientIP(), c.Request.UserAgent()); err != nil {
		if errors.Is(err, services.ErrSecondFactorInvalid) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid verification code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Operation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (ac *AuthController) renderLoginFailure(c *gin.Context, result *services.LoginResult, err error) {
	switch {
	case errors.Is(err, services.ErrBotCheckFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Captcha verification failed"})
	case errors.Is(err, services.ErrLockedOut):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":                     "Account locked due to repeated failures",
			"lockout_seconds_remaining": result.LockoutSecondsRemaining,
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":         "Invalid credentials",
			"attempts_left": result.AttemptsLeft,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
	}
}

// issueSession sets both cookies and returns the profile of the account
// that just logged in.
func (ac *AuthController) issueSession(c *gin.Context, result *services.LoginResult) {
	token, err := ac.auth.GenerateAccessToken(result.User)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	expiry, _ := ac.cfg.JWT.GetExpiry()
	maxAge := int(expiry.Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(ac.cfg.JWT.CookieName, token, maxAge, "/", ac.cfg.JWT.CookieDomain, ac.cfg.JWT.CookieSecure, true)
	c.SetCookie(ac.cfg.Session.CookieName, result.Session.ClientToken, maxAge, "/", ac.cfg.JWT.CookieDomain, ac.cfg.JWT.CookieSecure, true)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user": gin.H{
			"id":                 result.User.ID,
			"email":              result.User.Email,
			"full_name":          result.User.FullName,
			"two_factor_enabled": result.User.SecondFactorEnabled(),
		},
	})
}

func (ac *AuthController) clearCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(ac.cfg.JWT.CookieName, "", -1, "/", ac.cfg.JWT.CookieDomain, ac.cfg.JWT.CookieSecure, true)
	c.SetCookie(ac.cfg.Session.CookieName, "", -1, "/", ac.cfg.JWT.CookieDomain, ac.cfg.JWT.CookieSecure, true)
}

// currentUser returns the user loaded by the session guard, or nil.
func currentUser(c *gin.Context) *models.User {
	value, exists := c.Get("currentUser")
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}
