package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/token-overlay/tokend/token/log"
)

// Logger emits one access line per request on the server subsystem logger.
// Requests that accumulated private gin errors log at warning level.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		url := c.Request.URL.Path
		if query := c.Request.URL.RawQuery; query != "" {
			url += "?" + query
		}

		c.Next()

		elapsed := time.Since(start)
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			log.Srv.Warnf("%s %s from %s: status %d in %s: %s",
				c.Request.Method, url, c.ClientIP(), c.Writer.Status(), elapsed, errs.String())
			return
		}
		log.Srv.Infof("%s %s from %s: status %d, %d bytes in %s",
			c.Request.Method, url, c.ClientIP(), c.Writer.Status(), c.Writer.Size(), elapsed)
	}
}
