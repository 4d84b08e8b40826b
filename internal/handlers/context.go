package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"insight-flow/backend/internal/middleware"
	"insight-flow/backend/internal/models"
	"insight-flow/backend/internal/services"
)

// requestDB returns the request transaction, answering 500 when the route
// was mounted without middleware.Transaction.
func requestDB(c *gin.Context) (*gorm.DB, bool) {
	db, ok := middleware.DB(c)
	if !ok {
		respondError(c, errNoTransaction)
		return nil, false
	}
	return db, true
}

func currentUser(c *gin.Context) (*models.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "unauthenticated", Message: "could not validate credentials"})
		return nil, false
	}
	return u, true
}

// uuidParam parses a path id. Malformed ids answer 422.
func uuidParam(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		unprocessable(c, "invalid "+what+" id format")
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery parses an optional query id. Absent yields nil.
func uuidQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		unprocessable(c, "invalid "+name+" format")
		return nil, false
	}
	return &id, true
}

func boolQuery(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		unprocessable(c, name+" must be a boolean")
		return false, false
	}
	return v, true
}

type pageQuery struct {
	Skip  int `form:"skip" binding:"min=0"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

func pageParams(c *gin.Context) (services.Page, bool) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		unprocessable(c, validationMessage(err))
		return services.Page{}, false
	}
	return services.Page{Skip: q.Skip, Limit: q.Limit}, true
}

// bindJSON decodes the body into dst, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, validationMessage(err))
		return false
	}
	return true
}
