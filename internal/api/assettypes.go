package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/nuclear-hardware/hms/internal/imaging"
	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/store"
)

// AssetTypesHandler handles asset type endpoints.
type AssetTypesHandler struct {
	DB *sql.DB
}

type assetTypeRequest struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// List handles GET /api/asset-types.
func (h *AssetTypesHandler) List(w http.ResponseWriter, r *http.Request) {
	types, err := store.ListAssetTypes(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list asset types")
		return
	}
	if types == nil {
		types = []model.AssetType{}
	}
	jsonResponse(w, http.StatusOK, types)
}

// Create handles POST /api/asset-types.
func (h *AssetTypesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req assetTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	at, err := store.CreateAssetType(r.Context(), h.DB, req.Name, req.Prefix)
	if err != nil {
		storeError(w, err, "failed to create asset type")
		return
	}

	slog.Info("asset type created", "user", GetClaims(r.Context()).Username, "name", at.Name)
	jsonResponse(w, http.StatusCreated, at)
}

// Get handles GET /api/asset-types/{id}.
func (h *AssetTypesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset type id")
		return
	}

	at, err := store.GetAssetType(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get asset type")
		return
	}
	if at == nil {
		jsonError(w, http.StatusNotFound, "asset type not found")
		return
	}
	jsonResponse(w, http.StatusOK, at)
}

// Update handles PUT /api/asset-types/{id}.
func (h *AssetTypesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset type id")
		return
	}

	var req assetTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateAssetType(r.Context(), h.DB, id, req.Name, req.Prefix); err != nil {
		storeError(w, err, "failed to update asset type")
		return
	}

	at, err := store.GetAssetType(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get asset type")
		return
	}
	jsonResponse(w, http.StatusOK, at)
}

// Delete handles DELETE /api/asset-types/{id}.
func (h *AssetTypesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset type id")
		return
	}

	if err := store.DeleteAssetType(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to delete asset type")
		return
	}

	slog.Info("asset type deleted", "user", GetClaims(r.Context()).Username, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "asset type deleted"})
}

// UploadImage handles PUT /api/asset-types/{id}/image. The upload is
// re-encoded before it is stored.
func (h *AssetTypesHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset type id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUpload+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUpload); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		storeError(w, err, "failed to process image")
		return
	}

	if err := store.SetAssetTypeImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		storeError(w, err, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "image uploaded",
		"width":   photo.Width,
		"height":  photo.Height,
	})
}

// GetImage handles GET /api/asset-types/{id}/image.
func (h *AssetTypesHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid asset type id")
		return
	}

	data, mime, err := store.GetAssetTypeImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
