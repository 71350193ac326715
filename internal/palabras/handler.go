package palabras

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lsm-recorder/backend/internal/models"
	"github.com/lsm-recorder/backend/pkg/apperr"
	"github.com/lsm-recorder/backend/pkg/response"
)

// PalabraStore is the persistence surface the handler needs.
type PalabraStore interface {
	List(ctx context.Context, search string) ([]models.Palabra, error)
	GetByNombre(ctx context.Context, nombre string) (*models.Palabra, error)
	Create(ctx context.Context, nombre string) (*models.Palabra, error)
	Delete(ctx context.Context, id int) (*models.Palabra, error)
}

// Handler handles palabra HTTP endpoints.
type Handler struct {
	store  PalabraStore
	logger *zap.Logger
}

// NewHandler creates a palabras handler.
func NewHandler(store PalabraStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// CreateRequest is the body for POST /api/palabras.
type CreateRequest struct {
	Nombre string `json:"nombre"`
}

// List handles GET /api/palabras with an optional search query parameter.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.logger.Error("list palabras failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	if list == nil {
		list = []models.Palabra{}
	}
	response.OK(c, gin.H{"palabras": list, "count": len(list)})
}

// Create handles POST /api/palabras. The pre-check produces the friendlier
// 409 body carrying the existing row; the UNIQUE constraint backs it up
// under concurrent creates.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Nombre) == "" {
		response.BadRequest(c, "nombre is required")
		return
	}

	existing, err := h.store.GetByNombre(c.Request.Context(), req.Nombre)
	if err != nil {
		h.logger.Error("look up palabra failed", zap.Error(err), zap.String("nombre", req.Nombre))
		response.Error(c, err)
		return
	}
	if existing != nil {
		response.ErrorWith(c, apperr.Conflict("palabra already exists"), gin.H{"palabra": existing})
		return
	}

	palabra, err := h.store.Create(c.Request.Context(), req.Nombre)
	if err != nil {
		h.logger.Error("create palabra failed", zap.Error(err), zap.String("nombre", req.Nombre))
		response.Error(c, err)
		return
	}
	h.logger.Info("palabra created", zap.String("nombre", palabra.Nombre))
	response.Created(c, gin.H{"palabra": palabra})
}

// Delete handles DELETE /api/palabras/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "id must be an integer")
		return
	}

	deleted, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("delete palabra failed", zap.Error(err), zap.Int("id", id))
		response.Error(c, err)
		return
	}
	if deleted == nil {
		response.NotFound(c, "palabra not found")
		return
	}
	h.logger.Info("palabra deleted", zap.String("nombre", deleted.Nombre))
	response.OK(c, gin.H{"deleted": deleted})
}
