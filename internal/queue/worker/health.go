package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves the worker's probes and a JSON snapshot of job counters.
func (w *Worker) HealthHandler() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())

	// liveness: process is up
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"ok": true,
		})
	})

	// readiness: flag flips off at shutdown; the store must answer a ping
	r.GET("/readyz", func(c *gin.Context) {
		if !w.isReady() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}

		if w.db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
			defer cancel()

			if err := w.db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/stats", func(c *gin.Context) {
		s := w.metrics.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"claimed": s.Claimed,
			"done":    s.Done,
			"failed":  s.Failed,
			"retried": s.Retried,
			"byType":  s.ByType,
			"avgMs":   s.AverageDuration.Milliseconds(),
			"maxMs":   s.MaxDuration.Milliseconds(),
		})
	})

	return r
}
