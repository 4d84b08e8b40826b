package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight-flow/backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind services.Kind
		want int
	}{
		{services.KindNotFound, http.StatusNotFound},
		{services.KindForbidden, http.StatusForbidden},
		{services.KindConflict, http.StatusBadRequest},
		{services.KindInvalidArgument, http.StatusBadRequest},
		{services.KindUnauthenticated, http.StatusUnauthorized},
		{services.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.kind))
		})
	}
}

func serve(h gin.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, "/things/:id", h)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRespondError(t *testing.T) {
	w := serve(func(c *gin.Context) {
		respondError(c, services.Forbidden("insufficient role"))
	}, http.MethodGet, "/things/1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"forbidden","message":"insufficient role"}`, w.Body.String())

	w = serve(func(c *gin.Context) {
		respondError(c, errors.New("connection reset by peer"))
	}, http.MethodGet, "/things/1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal","message":"internal server error"}`, w.Body.String())
}

func TestUUIDParam(t *testing.T) {
	h := func(c *gin.Context) {
		id, ok := uuidParam(c, "id", "thing")
		if !ok {
			return
		}
		c.String(http.StatusOK, id.String())
	}

	w := serve(h, http.MethodGet, "/things/nope", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "invalid thing id format")

	w = serve(h, http.MethodGet, "/things/6ba7b810-9dad-11d1-80b4-00c04fd430c8", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBindJSON_ValidationMessages(t *testing.T) {
	require.NoError(t, RegisterValidators())

	type payload struct {
		Email  string `json:"email" binding:"required,email"`
		Role   string `json:"role" binding:"omitempty,role"`
		Status string `json:"status" binding:"omitempty,task_status"`
	}
	h := func(c *gin.Context) {
		var p payload
		if !bindJSON(c, &p) {
			return
		}
		c.Status(http.StatusNoContent)
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "request body is required"},
		{"malformed", "{", "malformed JSON body"},
		{"wrong type", `{"email": 5}`, "email has the wrong type"},
		{"missing", `{}`, "email is required"},
		{"bad email", `{"email":"nope"}`, "email must be a valid email"},
		{"bad role", `{"email":"a@b.co","role":"boss"}`, "role must be one of: owner, admin, member"},
		{"bad status", `{"email":"a@b.co","status":"blocked"}`, "status must be one of: todo, in_progress, done"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h, http.MethodPost, "/things/1", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}

	w := serve(h, http.MethodPost, "/things/1", `{"email":"a@b.co","role":"Admin","status":"in_progress"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
