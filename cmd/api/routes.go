package main

import (
	"database/sql"
	"net/http"
	"time"

	"call-recording-service/internal/httpapi"
	"call-recording-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, db *sql.DB, rdb *redis.Client) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Token-authenticated download endpoint; the token itself is the grant,
	// so this stays outside the versioned group.
	r.GET("/download/record", h.DownloadRecord)

	v1 := r.Group("/v1")
	{
		v1.POST("/calls", h.CreateCall)
		v1.GET("/calls/:call_id", h.GetCall)
		v1.GET("/calls/by_phone/:phone_number", h.GetCallsByPhone)
		v1.POST("/calls/:call_id/recording", h.UploadRecording)

		v1.GET("/records/:record_id/download-url", h.GetDownloadURL)

		v1.GET("/jobs/:job_id", h.GetJobStatus)

		v1.GET("/reports/calls.xlsx", h.ExportCallsReport)

		admin := v1.Group("/admin")
		{
			admin.POST("/setup-database", h.SetupDatabase)
		}
	}
}
