package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusFunc maps a handler error to an HTTP status
type StatusFunc func(err error) int

// ErrorHandler renders errors added with c.Error as JSON and turns panics into
// a 500. Handlers that already wrote a response are left alone.
func ErrorHandler(status StatusFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Error: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		code := http.StatusInternalServerError
		if status != nil {
			code = status(err)
		}
		msg := err.Error()
		if code >= http.StatusInternalServerError {
			log.Printf("Error: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			msg = "Internal Server Error"
		}
		c.JSON(code, ErrorResponse{Error: msg})
	}
}
