package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	rediscache "github.com/fieldlens/fieldlens-backend/internal/clients/redis"
	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/middleware"
	apperrors "github.com/fieldlens/fieldlens-backend/internal/pkg/errors"
	"github.com/fieldlens/fieldlens-backend/internal/services"
)

type FacetHandler struct {
	log                *logger.Logger
	catalogService     services.FacetCatalogService
	observationService services.FacetObservationService
	cache              rediscache.CatalogCache
}

// NewFacetHandler wires the two engine entry points. cache may be nil; the
// catalog is then rebuilt on every fetch.
func NewFacetHandler(
	catalogService services.FacetCatalogService,
	observationService services.FacetObservationService,
	cache rediscache.CatalogCache,
	baseLog *logger.Logger,
) *FacetHandler {
	return &FacetHandler{
		log:                baseLog.With("handler", "FacetHandler"),
		catalogService:     catalogService,
		observationService: observationService,
		cache:              cache,
	}
}

// GetCatalog serves the merged taxonomy for the requesting account.
func (h *FacetHandler) GetCatalog(c *gin.Context) {
	accountID, err := middleware.AccountID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "account_scope_required", err)
		return
	}

	if h.cache != nil {
		if catalog, ok := h.cache.Get(c.Request.Context(), accountID); ok {
			RespondOK(c, catalog)
			return
		}
	}

	catalog, err := h.catalogService.GetFacetCatalog(c.Request.Context(), accountID)
	if err != nil {
		h.log.Error("Catalog build failed", "account_id", accountID, "error", err)
		RespondError(c, http.StatusInternalServerError, "catalog_unavailable", err)
		return
	}
	if h.cache != nil {
		h.cache.Set(c.Request.Context(), accountID, catalog)
	}
	RespondOK(c, catalog)
}

type persistObservationsRequest struct {
	ProjectID    *uuid.UUID                         `json:"project_id,omitempty"`
	Observations []services.PersonObservationsInput `json:"observations"`
	EvidenceIDs  []uuid.UUID                        `json:"evidence_ids"`
}

// PostObservations accepts a batch of extracted observations. Fire-and-forget
// semantics: individual failures inside the batch are logged, not surfaced;
// only a kind-index load failure turns into a 500.
func (h *FacetHandler) PostObservations(c *gin.Context) {
	accountID, err := middleware.AccountID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "account_scope_required", err)
		return
	}

	var req persistObservationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	err = h.observationService.PersistFacetObservations(c.Request.Context(), services.PersistFacetObservationsInput{
		AccountID:    accountID,
		ProjectID:    req.ProjectID,
		Observations: req.Observations,
		EvidenceIDs:  req.EvidenceIDs,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrKindIndexLoad) {
			RespondError(c, http.StatusInternalServerError, "kind_index_unavailable", err)
			return
		}
		h.log.Error("Observation persistence failed", "account_id", accountID, "error", err)
		RespondError(c, http.StatusInternalServerError, "persist_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
