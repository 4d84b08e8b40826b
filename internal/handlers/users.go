package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insight-flow/backend/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type updateUserRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=255"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	users, err := h.users.GetUsers(db, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
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

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := uuidParam(c, "id", "user")
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	user, err := h.users.GetUserByID(db, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := uuidParam(c, "id", "user")
	if !ok {
		return
	}
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	user, err := h.users.UpdateUser(db, id, services.UpdateUserInput{Name: req.Name, AvatarURL: req.AvatarURL})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := uuidParam(c, "id", "user")
	if !ok {
		return
	}
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	db, ok := requestDB(c)
	if !ok {
		return
	}

	if err := h.users.DeleteUser(db, id, caller.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *UserHandler) SearchByEmail(c *gin.Context) {
	db, ok := requestDB(c)
	if !ok {
		return
	}

	user, err := h.users.GetUserByEmail(db, c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
