package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nuclear-hardware/hms/internal/imaging"
	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/serial"
	"github.com/nuclear-hardware/hms/internal/store"
)

type assetTypeRow struct {
	model.AssetType
	SerialPrefix string
}

// AssetTypesPage handles GET /asset-types.
func (s *Server) AssetTypesPage(w http.ResponseWriter, r *http.Request) {
	p := s.page(w, r, "Asset types")
	types, err := store.ListAssetTypes(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list asset types", "error", err)
	}

	rows := make([]assetTypeRow, len(types))
	for i, t := range types {
		rows[i] = assetTypeRow{AssetType: t, SerialPrefix: serial.Prefix(t.Prefix, t.Name)}
	}

	s.Templates.Render(w, "asset_types.html", &struct {
		PageData
		Types []assetTypeRow
	}{
		PageData: p,
		Types:    rows,
	})
}

// AssetTypeCreateSubmit handles POST /asset-types.
func (s *Server) AssetTypeCreateSubmit(w http.ResponseWriter, r *http.Request) {
	at, err := store.CreateAssetType(r.Context(), s.DB, r.FormValue("name"), r.FormValue("prefix"))
	if err != nil {
		redirectErr(w, r, "/asset-types", err, "Failed to create asset type")
		return
	}

	slog.Info("asset type created", "user", GetWebClaims(r.Context()).Username, "name", at.Name)
	redirectOK(w, r, "/asset-types", fmt.Sprintf("Asset type %s created.", at.Name))
}

// AssetTypeUpdateSubmit handles POST /asset-types/{id}.
func (s *Server) AssetTypeUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := store.UpdateAssetType(r.Context(), s.DB, id, r.FormValue("name"), r.FormValue("prefix")); err != nil {
		redirectErr(w, r, "/asset-types", err, "Failed to update asset type")
		return
	}
	redirectOK(w, r, "/asset-types", "Asset type updated.")
}

// AssetTypeDeleteSubmit handles POST /asset-types/{id}/delete.
func (s *Server) AssetTypeDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := store.DeleteAssetType(r.Context(), s.DB, id); err != nil {
		redirectErr(w, r, "/asset-types", err, "Failed to delete asset type")
		return
	}

	slog.Info("asset type deleted", "user", GetWebClaims(r.Context()).Username, "id", id)
	redirectOK(w, r, "/asset-types", "Asset type deleted.")
}

// AssetTypeImageSubmit handles POST /asset-types/{id}/image.
func (s *Server) AssetTypeImageSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUpload+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUpload); err != nil {
		redirectErr(w, r, "/asset-types", fmt.Errorf("%w: file too large", model.ErrValidation), "")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		redirectErr(w, r, "/asset-types", fmt.Errorf("%w: image required", model.ErrValidation), "")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		redirectErr(w, r, "/asset-types", err, "Failed to process image")
		return
	}

	if err := store.SetAssetTypeImage(r.Context(), s.DB, id, photo.Data, photo.MIME); err != nil {
		redirectErr(w, r, "/asset-types", err, "Failed to save image")
		return
	}

	slog.Info("asset type image uploaded", "user", GetWebClaims(r.Context()).Username, "id", id)
	redirectOK(w, r, "/asset-types", "Image uploaded.")
}

// AssetTypeImageGet handles GET /asset-types/{id}/image (web route, cookie-authenticated).
func (s *Server) AssetTypeImageGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	data, mime, err := store.GetAssetTypeImage(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}
