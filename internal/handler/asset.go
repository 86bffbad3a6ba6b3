package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"assetlib/internal/config"
	"assetlib/internal/domain/services"
	"assetlib/internal/httputil"
)

// AssetHandler handles the token-authenticated asset surface.
type AssetHandler struct {
	assets      services.AssetService
	maxFileSize int64
	logger      *slog.Logger
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(assets services.AssetService, maxFileSize int64, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{
		assets:      assets,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Upload handles POST /api/assets/upload. Multipart fields: "file" (the
// content), optional "folder_id" (folder UUID) and "path" (storage
// directory). Folder-token requests need can_upload and always land in the
// token's folder.
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave headroom for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+1<<20)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	req := &services.UploadAssetRequest{
		FolderUUID:   r.FormValue("folder_id"),
		FolderPath:   r.FormValue("path"),
		OriginalName: header.Filename,
		Data:         data,
	}

	if token := httputil.GetFolderToken(r); token != nil {
		if !token.CanUpload {
			httputil.RespondError(w, http.StatusForbidden, "token does not permit uploads")
			return
		}
		req.FolderUUID = ""
		req.FolderID = &token.FolderID
	}

	uploaded, err := h.assets.Upload(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, uploaded)
}

// List handles GET /api/assets/list. Folder-token requests are pinned to the
// token's folder; service-token requests pass ?folder_id= (internal ID).
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	var folderID *int64
	if token := httputil.GetFolderToken(r); token != nil {
		folderID = &token.FolderID
	} else if raw := q.Get("folder_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "folder_id must be numeric")
			return
		}
		folderID = &id
	}

	assets, total, err := h.assets.List(r.Context(), &services.ListAssetsRequest{
		FolderID: folderID,
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	p, pp := page, perPage
	if p < 1 {
		p = 1
	}
	if pp < 1 {
		pp = config.DefaultPerPage
	} else if pp > config.MaxPerPage {
		pp = config.MaxPerPage
	}
	httputil.RespondJSON(w, http.StatusOK, AssetListResponse{
		Data: assets,
		Meta: PageMeta{Total: total, Page: p, PerPage: pp},
	})
}

// Delete handles DELETE /api/assets/file?path=... and is reserved for the
// service token; folder tokens cannot destroy content.
func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if httputil.GetFolderToken(r) != nil {
		httputil.RespondError(w, http.StatusForbidden, "token does not permit deletion")
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		httputil.RespondError(w, http.StatusBadRequest, "path is required")
		return
	}

	if err := h.assets.DeleteByPath(r.Context(), path); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Move handles POST /api/assets/{id}/move. Folder-token requests may only
// move assets into the token's own folder.
func (h *AssetHandler) Move(w http.ResponseWriter, r *http.Request) {
	var body MoveAssetBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var folderID *int64
	if body.FolderID != nil {
		id, err := strconv.ParseInt(*body.FolderID, 10, 64)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "folder_id must be numeric")
			return
		}
		folderID = &id
	}

	if token := httputil.GetFolderToken(r); token != nil {
		if !token.CanUpload {
			httputil.RespondError(w, http.StatusForbidden, "token does not permit moving assets")
			return
		}
		if folderID == nil || *folderID != token.FolderID {
			httputil.RespondError(w, http.StatusForbidden, "token is scoped to a different folder")
			return
		}
	}

	asset, err := h.assets.Move(r.Context(), nil, r.PathValue("id"), folderID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, asset)
}
