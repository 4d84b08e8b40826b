package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"insight-flow/backend/internal/auth"
	"insight-flow/backend/internal/models"
)

// Keys stored on the gin context.
const (
	ContextKeyDB     = "db"
	ContextKeyUser   = "user"
	ContextKeyUserID = "user_id"
	ContextKeyClaims = "claims"
)

// DB returns the request transaction opened by Transaction.
func DB(c *gin.Context) (*gorm.DB, bool) {
	v, ok := c.Get(ContextKeyDB)
	if !ok {
		return nil, false
	}
	db, ok := v.(*gorm.DB)
	return db, ok
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextKeyUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}

func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func CurrentClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func abort(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "message": message})
}
