package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insight-flow/backend/internal/middleware"
	"insight-flow/backend/internal/services"
)

type AuthHandler struct {
	auth  services.AuthService
	users services.UserService
}

func NewAuthHandler(auth services.AuthService, users services.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

type createUserRequest struct {
	Email      string  `json:"email" binding:"required,email"`
	Name       string  `json:"name" binding:"required,max=255"`
	Password   *string `json:"password" binding:"omitempty,min=1,max=72"`
	AvatarURL  *string `json:"avatar_url" binding:"omitempty,url"`
	ExternalID *string `json:"external_id" binding:"omitempty,max=255"`
}

func (r createUserRequest) input() services.CreateUserInput {
	return services.CreateUserInput{
		Email:      r.Email,
		Name:       r.Name,
		Password:   r.Password,
		AvatarURL:  r.AvatarURL,
		ExternalID: r.ExternalID,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	user, err := h.users.CreateUser(db, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	token, err := h.auth.Login(db, req.Email, req.Password)
	if err != nil {
		if services.KindOf(err) == services.KindUnauthenticated {
			c.Header("WWW-Authenticate", "Bearer")
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	token, err := h.auth.Refresh(db, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// Logout revokes the token that authenticated this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "unauthenticated", Message: "could not validate credentials"})
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
