package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"inventory-api/internal/apperrors"
	"inventory-api/internal/cache"
	"inventory-api/internal/middleware"
	"inventory-api/internal/models"
	"inventory-api/internal/services"
)

type ItemHandler struct {
	itemService *services.ItemService
	logger      zerolog.Logger
}

func NewItemHandler(db *sql.DB, store cache.Store, cacheTTL time.Duration, logger zerolog.Logger) *ItemHandler {
	return &ItemHandler{
		itemService: services.NewItemService(db, store, cacheTTL, logger),
		logger:      logger,
	}
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	data, err := h.itemService.List(r.Context())
	if err != nil {
		h.respondWithAppError(w, err)
		return
	}

	h.respondWithRawJSON(w, http.StatusOK, data)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	data, err := h.itemService.Get(r.Context(), id)
	if err != nil {
		h.respondWithAppError(w, err)
		return
	}

	h.respondWithRawJSON(w, http.StatusOK, data)
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	item, err := h.itemService.Create(r.Context(), &req)
	if err != nil {
		h.respondWithAppError(w, err)
		return
	}

	userID, _ := middleware.GetUserID(r)
	h.logger.Info().Int("item_id", item.ID).Int("user_id", userID).Msg("Item created via API")

	h.respondWithJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var req models.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	item, err := h.itemService.Update(r.Context(), id, &req)
	if err != nil {
		h.respondWithAppError(w, err)
		return
	}

	userID, _ := middleware.GetUserID(r)
	h.logger.Info().Int("item_id", item.ID).Int("user_id", userID).Msg("Item updated via API")

	h.respondWithJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if err := h.itemService.Delete(r.Context(), id); err != nil {
		h.respondWithAppError(w, err)
		return
	}

	userID, _ := middleware.GetUserID(r)
	h.logger.Info().Int("item_id", id).Int("user_id", userID).Msg("Item deleted via API")

	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Item deleted",
	})
}

func (h *ItemHandler) itemID(w http.ResponseWriter, r *http.Request) (int, bool) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		h.respondWithError(w, http.StatusNotFound, "not_found", "Item not found")
		return 0, false
	}
	return id, true
}

func (h *ItemHandler) respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		h.respondWithJSON(w, appErr.Status, appErr)
		return
	}
	h.respondWithError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
}

func (h *ItemHandler) respondWithError(w http.ResponseWriter, code int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

func (h *ItemHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func (h *ItemHandler) respondWithRawJSON(w http.ResponseWriter, code int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}
