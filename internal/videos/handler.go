package videos

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lsm-recorder/backend/internal/models"
	"github.com/lsm-recorder/backend/pkg/response"
)

// MaxVideoSize is the maximum accepted proxy-upload file size (50MB).
const MaxVideoSize = 50 * 1024 * 1024

// VideoStore is the persistence surface the handler needs.
type VideoStore interface {
	Insert(ctx context.Context, v *models.Video) error
	CountByPalabra(ctx context.Context, palabra string) (int, error)
	List(ctx context.Context, palabra string, limit, offset int) ([]models.Video, error)
	Stats(ctx context.Context) ([]models.PalabraCount, error)
	GetBySession(ctx context.Context, sessionID string, sequenceNumber int) (*models.Video, error)
	Delete(ctx context.Context, id int) (*models.Video, error)
	ExportSince(ctx context.Context, since *time.Time) ([]models.Video, error)
}

// ObjectStorage is the bucket surface the handler needs.
type ObjectStorage interface {
	GenerateUploadURL(ctx context.Context, fileName, mimeType string) (uploadURL, key string, err error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	UploadBuffer(ctx context.Context, buf []byte, fileName, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// Pinger checks store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles video HTTP endpoints.
type Handler struct {
	store             VideoStore
	storage           ObjectStorage
	db                Pinger
	cleanupOnConflict bool
	logger            *zap.Logger
}

// NewHandler creates a videos handler. When cleanupOnConflict is set, a
// failed metadata insert after a proxy upload triggers a best-effort delete
// of the just-uploaded object instead of leaving it orphaned.
func NewHandler(store VideoStore, storage ObjectStorage, db Pinger, cleanupOnConflict bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, storage: storage, db: db, cleanupOnConflict: cleanupOnConflict, logger: logger}
}

// UploadURLRequest is the body for POST /api/videos/upload-url.
type UploadURLRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// SaveMetadataRequest is the body for POST /api/videos (after the client
// uploads via presigned URL).
type SaveMetadataRequest struct {
	Palabra string `json:"palabra"`
	S3Key   string `json:"s3_key"`
}

// Health handles GET /api/health. Pings the store.
func (h *Handler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		response.ServiceUnavailable(c, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	response.OK(c, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// TestUpload handles GET /api/videos/test-upload. Diagnostic round trip to
// object storage with a small text buffer.
func (h *Handler) TestUpload(c *gin.Context) {
	key, err := h.storage.UploadBuffer(c.Request.Context(), []byte("test upload from corpus backend"), "test.txt", "text/plain")
	if err != nil {
		h.logger.Error("test upload failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "storage upload test successful", "key": key})
}

// GenerateUploadURL handles POST /api/videos/upload-url.
func (h *Handler) GenerateUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.FileName == "" {
		response.BadRequest(c, "fileName is required")
		return
	}
	if req.FileType == "" {
		response.BadRequest(c, "fileType is required")
		return
	}
	if !strings.HasPrefix(req.FileType, "video/") {
		response.BadRequest(c, "only video files are allowed")
		return
	}

	uploadURL, key, err := h.storage.GenerateUploadURL(c.Request.Context(), req.FileName, req.FileType)
	if err != nil {
		h.logger.Error("generate upload URL failed", zap.Error(err), zap.String("file_name", req.FileName))
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"uploadUrl": uploadURL, "key": key})
}

// ProxyUpload handles POST /api/videos/upload. Receives the file as
// multipart form data and forwards it to object storage, then persists
// metadata and re-queries the palabra count. Step durations are logged for
// diagnostics only.
func (h *Handler) ProxyUpload(c *gin.Context) {
	totalStart := time.Now()

	file, err := c.FormFile("video")
	if err != nil {
		response.BadRequest(c, "no video file received")
		return
	}
	if file.Size > MaxVideoSize {
		response.BadRequest(c, "video file exceeds 50MB limit")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		response.BadRequest(c, "only video files are allowed")
		return
	}
	palabra := c.PostForm("palabra")
	if strings.TrimSpace(palabra) == "" {
		response.BadRequest(c, "palabra is required")
		return
	}

	video := models.Video{Palabra: palabra}
	if sid := c.PostForm("session_id"); sid != "" {
		video.SessionID = &sid
	}
	if seq := c.PostForm("sequence_number"); seq != "" {
		n, err := strconv.Atoi(seq)
		if err != nil {
			response.BadRequest(c, "sequence_number must be an integer")
			return
		}
		video.SequenceNumber = &n
	}
	if started := c.PostForm("session_started_at"); started != "" {
		t, err := time.Parse(time.RFC3339, started)
		if err != nil {
			response.BadRequest(c, "session_started_at must be an ISO timestamp")
			return
		}
		video.SessionStartedAt = &t
	}

	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read video file")
		return
	}
	defer rc.Close()
	buf, err := io.ReadAll(rc)
	if err != nil {
		h.logger.Error("read uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read video file")
		return
	}

	h.logger.Info("proxy upload received",
		zap.String("file_name", file.Filename),
		zap.Int64("size", file.Size),
		zap.String("palabra", palabra),
	)

	storageStart := time.Now()
	key, err := h.storage.UploadBuffer(c.Request.Context(), buf, file.Filename, contentType)
	if err != nil {
		h.logger.Error("storage upload failed", zap.Error(err), zap.Duration("elapsed", time.Since(totalStart)))
		response.Error(c, err)
		return
	}
	storageDur := time.Since(storageStart)
	video.S3Key = key

	insertStart := time.Now()
	if err := h.store.Insert(c.Request.Context(), &video); err != nil {
		if h.cleanupOnConflict {
			if delErr := h.storage.DeleteObject(c.Request.Context(), key); delErr != nil {
				h.logger.Warn("orphan cleanup failed", zap.Error(delErr), zap.String("key", key))
			}
		}
		h.logger.Error("insert video failed", zap.Error(err), zap.String("key", key))
		response.Error(c, err)
		return
	}
	insertDur := time.Since(insertStart)

	countStart := time.Now()
	count, err := h.store.CountByPalabra(c.Request.Context(), video.Palabra)
	if err != nil {
		h.logger.Error("count videos failed", zap.Error(err), zap.String("palabra", video.Palabra))
		response.Error(c, err)
		return
	}
	countDur := time.Since(countStart)

	h.logger.Info("proxy upload completed",
		zap.String("key", key),
		zap.String("palabra", video.Palabra),
		zap.Duration("storage", storageDur),
		zap.Duration("insert", insertDur),
		zap.Duration("count", countDur),
		zap.Duration("total", time.Since(totalStart)),
	)

	response.Created(c, gin.H{
		"video":           video,
		"s3_key":          key,
		"totalForPalabra": count,
	})
}

// SaveMetadata handles POST /api/videos. Registers metadata for a video the
// client already uploaded via presigned URL.
func (h *Handler) SaveMetadata(c *gin.Context) {
	var req SaveMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Palabra) == "" {
		response.BadRequest(c, "palabra is required")
		return
	}
	if req.S3Key == "" {
		response.BadRequest(c, "s3_key is required")
		return
	}

	video := models.Video{Palabra: req.Palabra, S3Key: req.S3Key}
	if err := h.store.Insert(c.Request.Context(), &video); err != nil {
		h.logger.Error("insert video failed", zap.Error(err), zap.String("key", req.S3Key))
		response.Error(c, err)
		return
	}

	count, err := h.store.CountByPalabra(c.Request.Context(), video.Palabra)
	if err != nil {
		h.logger.Error("count videos failed", zap.Error(err), zap.String("palabra", video.Palabra))
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"video": video, "totalForPalabra": count})
}

// List handles GET /api/videos with optional palabra/limit/offset query
// parameters.
func (h *Handler) List(c *gin.Context) {
	limit := intQuery(c, "limit", DefaultListLimit)
	offset := intQuery(c, "offset", 0)

	list, err := h.store.List(c.Request.Context(), c.Query("palabra"), limit, offset)
	if err != nil {
		h.logger.Error("list videos failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	if list == nil {
		list = []models.Video{}
	}
	response.OK(c, gin.H{"count": len(list), "videos": list})
}

// Stats handles GET /api/videos/stats.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("load stats failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	total := 0
	for _, pc := range stats {
		total += pc.Count
	}
	if stats == nil {
		stats = []models.PalabraCount{}
	}
	response.OK(c, gin.H{
		"totalVideos":   total,
		"totalPalabras": len(stats),
		"palabras":      stats,
	})
}

// CountByPalabra handles GET /api/videos/count/:palabra. The echoed palabra
// is the normalized form the count was taken against.
func (h *Handler) CountByPalabra(c *gin.Context) {
	palabra := c.Param("palabra")
	if strings.TrimSpace(palabra) == "" {
		response.BadRequest(c, "palabra is required")
		return
	}
	count, err := h.store.CountByPalabra(c.Request.Context(), palabra)
	if err != nil {
		h.logger.Error("count videos failed", zap.Error(err), zap.String("palabra", palabra))
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"palabra": NormalizePalabra(palabra), "count": count})
}

// DeleteBySession handles DELETE /api/videos/session/:sessionId/sequence/:sequenceNumber.
// The metadata row is removed first; the object-storage delete is
// best-effort and never blocks the response. A missing row returns 404
// without touching storage.
func (h *Handler) DeleteBySession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	sequenceNumber, err := strconv.Atoi(c.Param("sequenceNumber"))
	if err != nil {
		response.BadRequest(c, "sequenceNumber must be an integer")
		return
	}

	video, err := h.store.GetBySession(c.Request.Context(), sessionID, sequenceNumber)
	if err != nil {
		h.logger.Error("look up video failed", zap.Error(err), zap.String("session_id", sessionID))
		response.Error(c, err)
		return
	}
	if video == nil {
		response.NotFound(c, "video not found")
		return
	}

	deleted, err := h.store.Delete(c.Request.Context(), video.ID)
	if err != nil {
		h.logger.Error("delete video failed", zap.Error(err), zap.Int("id", video.ID))
		response.Error(c, err)
		return
	}
	if deleted == nil {
		response.NotFound(c, "video not found")
		return
	}

	if err := h.storage.DeleteObject(c.Request.Context(), deleted.S3Key); err != nil {
		// Metadata wins; a stale object is tolerated.
		h.logger.Warn("storage delete failed", zap.Error(err), zap.String("key", deleted.S3Key))
	}

	response.OK(c, gin.H{"deleted": deleted, "message": "video deleted"})
}

// Export handles GET /api/videos/export with an optional since query
// parameter (ISO timestamp). Each exported video carries a fresh presigned
// download URL; signing is sequential per row.
func (h *Handler) Export(c *gin.Context) {
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "since must be an ISO timestamp")
			return
		}
		since = &t
	}

	list, err := h.store.ExportSince(c.Request.Context(), since)
	if err != nil {
		h.logger.Error("export videos failed", zap.Error(err))
		response.Error(c, err)
		return
	}

	grouped := make(map[string][]gin.H)
	for _, v := range list {
		downloadURL, err := h.storage.GenerateDownloadURL(c.Request.Context(), v.S3Key)
		if err != nil {
			h.logger.Error("presign download failed", zap.Error(err), zap.String("key", v.S3Key))
			response.Error(c, err)
			return
		}
		grouped[v.Palabra] = append(grouped[v.Palabra], gin.H{
			"id":                 v.ID,
			"palabra":            v.Palabra,
			"s3_key":             v.S3Key,
			"session_id":         v.SessionID,
			"sequence_number":    v.SequenceNumber,
			"session_started_at": v.SessionStartedAt,
			"created_at":         v.CreatedAt,
			"download_url":       downloadURL,
		})
	}

	summary := make([]models.PalabraCount, 0, len(grouped))
	for palabra, vids := range grouped {
		summary = append(summary, models.PalabraCount{Palabra: palabra, Count: len(vids)})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Count != summary[j].Count {
			return summary[i].Count > summary[j].Count
		}
		return summary[i].Palabra < summary[j].Palabra
	})

	response.OK(c, gin.H{
		"total_videos":   len(list),
		"total_palabras": len(grouped),
		"summary":        summary,
		"palabras":       grouped,
	})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
