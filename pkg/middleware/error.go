package middleware

import (
	"net/http"

	"campusgrill-loyalty/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Error converts domain errors collected on the gin context into JSON
// responses. Runs after the handler chain.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil {
			return
		}

		if v, ok := err.Err.(errutil.BaseError); ok {
			c.JSON(v.Code.HTTPStatus(), v.JSON())
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"code": errutil.StatusInternal, "message": err.Error()},
		})
	}
}
