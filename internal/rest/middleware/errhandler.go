package middleware

import (
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last handler error with the status its marker maps to
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		c.JSON(ierr.HTTPStatusFromErr(err), ierr.NewErrorResponse(err))
	}
}
