package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"call-recording-service/internal/calls"
	"call-recording-service/internal/download"
	"call-recording-service/internal/jobs"
	"call-recording-service/internal/reporting"
	"call-recording-service/internal/storage"
	"call-recording-service/pkg/logger"
	"call-recording-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Dispatcher is the slice of the job dispatcher the API needs.
type Dispatcher interface {
	EnqueueExtractDuration(ctx context.Context, filePath, recordID string) (string, error)
	EnqueueTranscribe(ctx context.Context, recordID string) (string, error)
}

// JobStatusReader looks up dispatched job state by id.
type JobStatusReader interface {
	JobStatus(id string) (jobs.JobStatus, error)
}

// SchemaResetter drops and recreates the database schema.
type SchemaResetter interface {
	Reset(ctx context.Context) error
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Calls      *calls.Service
	Store      *storage.Disk
	Dispatcher Dispatcher
	Jobs       JobStatusReader
	Signer     *download.Signer
	Reports    *reporting.Exporter
	Admin      SchemaResetter

	// RDB backs the per-call upload gate; nil disables gating (tests).
	RDB *redis.Client

	// BaseURL is the externally reachable base for download links.
	BaseURL string
}

const uploadGateTTL = 5 * time.Minute

// --- Calls ---

type createCallRequest struct {
	Caller    string    `json:"caller"`
	Receiver  string    `json:"receiver"`
	StartedAt time.Time `json:"started_at"`
}

func (h Handlers) CreateCall(c *gin.Context) {
	var req createCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	call, err := h.Calls.CreateCall(c.Request.Context(), calls.CreateCallRequest{
		Caller:    req.Caller,
		Receiver:  req.Receiver,
		StartedAt: req.StartedAt,
	})
	if err != nil {
		if errors.Is(err, calls.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "caller, receiver and started_at are required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call creation failed"})
		return
	}
	c.JSON(http.StatusCreated, call)
}

func (h Handlers) GetCall(c *gin.Context) {
	call, err := h.Calls.GetCall(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	c.JSON(http.StatusOK, call)
}

func (h Handlers) GetCallsByPhone(c *gin.Context) {
	found, err := h.Calls.FindCallsByPhone(c.Request.Context(), c.Param("phone_number"))
	if err != nil {
		if errors.Is(err, calls.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "phone number required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	if found == nil {
		found = []calls.Call{}
	}
	c.JSON(http.StatusOK, gin.H{"calls": found})
}

// --- Recording upload ---

// UploadRecording receives the audio file, persists it, creates the Record
// and dispatches both background jobs. The jobs run out of process; only an
// enqueue failure is reported here.
func (h Handlers) UploadRecording(c *gin.Context) {
	log := logger.FromGin(c)
	callID := c.Param("call_id")

	call, err := h.Calls.GetCall(c.Request.Context(), callID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	if call.Recording != nil {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "call already has a recording"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' required"})
		return
	}
	if !strings.HasPrefix(fileHeader.Header.Get("Content-Type"), "audio/") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "content type must be audio"})
		return
	}

	// One in-flight upload per call.
	if h.RDB != nil {
		gateKey := "upload:call:" + callID
		ok, err := utils.AcquireUploadSlot(c.Request.Context(), h.RDB, gateKey, 1, uploadGateTTL)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "upload gate failed"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "another upload for this call is in progress"})
			return
		}
		defer func() {
			if err := utils.ReleaseUploadSlot(c.Request.Context(), h.RDB, gateKey); err != nil {
				log.Warn("upload gate release failed", "call_id", callID, "err", err)
			}
		}()
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer src.Close()

	filename := calls.RecordingFilename(callID, fileHeader.Filename)
	saved, err := h.Store.Save(filename, src)
	if err != nil {
		log.Error("storing upload failed", "call_id", callID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storing upload failed"})
		return
	}

	rec, err := h.Calls.AttachRecording(c.Request.Context(), callID, fileHeader.Filename, saved.Checksum, saved.SizeBytes)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "record creation failed"})
		return
	}

	durationJobID, err := h.Dispatcher.EnqueueExtractDuration(c.Request.Context(), saved.Path, rec.ID)
	if err != nil {
		log.Error("dispatch failed", "job", jobs.TypeExtractDuration, "record_id", rec.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "job dispatch failed"})
		return
	}
	transcribeJobID, err := h.Dispatcher.EnqueueTranscribe(c.Request.Context(), rec.ID)
	if err != nil {
		log.Error("dispatch failed", "job", jobs.TypeTranscribe, "record_id", rec.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "job dispatch failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"record": rec,
		"jobs": gin.H{
			jobs.TypeExtractDuration: durationJobID,
			jobs.TypeTranscribe:      transcribeJobID,
		},
	})
}

// --- Downloads ---

func (h Handlers) GetDownloadURL(c *gin.Context) {
	rec, err := h.Calls.GetRecord(c.Request.Context(), c.Param("record_id"))
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "record lookup failed"})
		return
	}

	// The file must actually be on disk before handing out a link.
	f, err := h.Store.Open(rec.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "audio file not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage lookup failed"})
		return
	}
	_ = f.Close()

	var ttl time.Duration
	if v := c.Query("expires_in"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "expires_in must be a positive integer"})
			return
		}
		ttl = time.Duration(secs) * time.Second
	}

	now := time.Now()
	token, expiresAt, err := h.Signer.Sign(now, rec.ID, rec.Filename, ttl)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record_id":          rec.ID,
		"filename":           rec.Filename,
		"download_url":       download.URL(h.BaseURL, token),
		"expires_at":         expiresAt.UTC().Format(time.RFC3339),
		"expires_in_seconds": int(expiresAt.Sub(now).Seconds()),
	})
}

func (h Handlers) DownloadRecord(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	claims, err := h.Signer.Verify(token, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid or expired token"})
		return
	}

	f, err := h.Store.Open(claims.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "audio file not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage lookup failed"})
		return
	}
	path := f.Name()
	_ = f.Close()

	c.FileAttachment(path, claims.Filename)
}

// --- Jobs ---

func (h Handlers) GetJobStatus(c *gin.Context) {
	status, err := h.Jobs.JobStatus(c.Param("job_id"))
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "job lookup failed"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// --- Reporting ---

func (h Handlers) ExportCallsReport(c *gin.Context) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		to = t
	}

	wb, err := h.Reports.CallsWorkbook(c.Request.Context(), from, to)
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRange) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid time range"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
		return
	}
	defer wb.Close()

	buf, err := wb.WriteToBuffer()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="calls.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// --- Admin ---

// SetupDatabase drops and recreates the schema. Destructive; keep behind
// the admin route group.
func (h Handlers) SetupDatabase(c *gin.Context) {
	if h.Admin == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "schema management not configured"})
		return
	}
	if err := h.Admin.Reset(c.Request.Context()); err != nil {
		logger.FromGin(c).Error("schema reset failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "schema reset failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tables created successfully"})
}
