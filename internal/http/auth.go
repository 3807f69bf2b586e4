package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/booklogapp/booklog/internal/auth"
	"github.com/booklogapp/booklog/internal/entities"
)

type AuthController struct {
	service *auth.Service
}

func NewAuthController(service *auth.Service) *AuthController {
	return &AuthController{service: service}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        *entities.User `json:"user"`
}

// Register creates a new account.
// POST /api/auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username, email and password are required")
		return
	}

	result, err := ac.service.Register(req.Username, req.Email, req.Password)
	if err != nil {
		respondDomainError(c, err, "register user")
		return
	}

	respondCreated(c, authResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
		User:        result.User,
	})
}

// Login verifies credentials and returns a fresh token.
// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email and password are required")
		return
	}

	result, err := ac.service.Login(req.Email, req.Password)
	if err != nil {
		respondDomainError(c, err, "login")
		return
	}

	c.JSON(http.StatusOK, authResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
		User:        result.User,
	})
}

// Me returns the authenticated user's profile.
// GET /api/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.service.GetUserByID(GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "load profile")
		return
	}
	c.JSON(http.StatusOK, user)
}
