package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicErrorMiddleware reports handler errors of server-side failures to
// the New Relic transaction started by nrgin. Client errors are not reported.
func NewRelicErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError || len(c.Errors) == 0 {
			return
		}
		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
