package middleware

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"insight-flow/backend/internal/logger"
)

// Transaction opens one database transaction per request. It commits when
// the handler answered with a status below 400 and rolls back otherwise,
// including when the handler panics.
//
// The response is held back until the transaction is settled, so a failed
// commit is reported as a 500 instead of the handler's success body.
func Transaction(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx := db.WithContext(c.Request.Context()).Begin()
		if tx.Error != nil {
			log := logger.Get()
			log.Error().Err(tx.Error).Msg("begin transaction")
			abort(c, http.StatusInternalServerError, "internal", "internal server error")
			return
		}
		c.Set(ContextKeyDB, tx)

		orig := c.Writer
		buf := &bufferedWriter{ResponseWriter: orig, status: http.StatusOK}
		c.Writer = buf

		done := false
		defer func() {
			c.Writer = orig
			if !done {
				tx.Rollback()
			}
		}()

		c.Next()

		c.Writer = orig
		if buf.status >= http.StatusBadRequest || len(c.Errors) > 0 {
			tx.Rollback()
			done = true
			buf.flush()
			return
		}
		err := tx.Commit().Error
		done = true
		if err != nil {
			log := logger.Get()
			log.Error().Err(err).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Msg("commit transaction")
			abort(c, http.StatusInternalServerError, "internal", "internal server error")
			return
		}
		buf.flush()
	}
}

// bufferedWriter records the status and body written by handlers. Headers
// go straight to the underlying writer's header map but are only sent on
// flush.
type bufferedWriter struct {
	gin.ResponseWriter
	status  int
	body    bytes.Buffer
	touched bool
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 {
		w.status = code
		w.touched = true
	}
}

func (w *bufferedWriter) WriteHeaderNow() { w.touched = true }

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.touched = true
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.touched = true
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Status() int { return w.status }

func (w *bufferedWriter) Size() int {
	if !w.touched {
		return -1
	}
	return w.body.Len()
}

func (w *bufferedWriter) Written() bool { return w.touched }

// Flush is a no-op; nothing may reach the client before the commit.
func (w *bufferedWriter) Flush() {}

func (w *bufferedWriter) flush() {
	w.ResponseWriter.WriteHeader(w.status)
	if w.body.Len() == 0 {
		w.ResponseWriter.WriteHeaderNow()
		return
	}
	_, _ = w.ResponseWriter.Write(w.body.Bytes())
}
