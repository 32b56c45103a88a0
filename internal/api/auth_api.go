package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forkfeed/forkfeed/pkg/services"
)

// AuthAPI exposes registration, login and the password-reset flow
type AuthAPI struct {
	auth *services.AuthService
}

// NewAuthAPI creates an auth API handler
func NewAuthAPI(auth *services.AuthService) *AuthAPI {
	return &AuthAPI{auth: auth}
}

// RegisterRoutes registers the unauthenticated auth endpoints
func (a *AuthAPI) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/auth/register", a.register)
	group.POST("/auth/login", a.login)
	group.POST("/auth/refresh", a.refresh)
	group.POST("/auth/forgot-password", a.forgotPassword)
	group.POST("/auth/verify-code", a.verifyCode)
	group.POST("/auth/reset-password", a.resetPassword)
}

// RegisterProtectedRoutes registers the endpoints that need a valid token
func (a *AuthAPI) RegisterProtectedRoutes(group *gin.RouterGroup) {
	group.GET("/profile", a.profile)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname"`
}

func (a *AuthAPI) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, pair, err := a.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Surname:  req.Surname,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "tokens": pair})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (a *AuthAPI) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, pair, err := a.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": pair})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (a *AuthAPI) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := a.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (a *AuthAPI) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.auth.SendVerificationCode(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "code sent"})
}

type verifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  int    `json:"code" binding:"required"`
}

func (a *AuthAPI) verifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.auth.VerifyCode(c.Request.Context(), req.Email, req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "code valid"})
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        int    `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func (a *AuthAPI) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.auth.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password reset"})
}

func (a *AuthAPI) profile(c *gin.Context) {
	user, err := a.auth.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
