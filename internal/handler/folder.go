// Package handler exposes the HTTP surface: the owner-facing folder API
// under /api/v1 and the token-authenticated asset API under /api/assets.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"assetlib/internal/domain/services"
	"assetlib/internal/httputil"
)

// FolderHandler handles folder HTTP requests.
type FolderHandler struct {
	folders  services.FolderService
	previews services.PreviewService
	tokens   services.TokenService
	logger   *slog.Logger
}

// NewFolderHandler creates a new folder handler.
func NewFolderHandler(folders services.FolderService, previews services.PreviewService, tokens services.TokenService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		folders:  folders,
		previews: previews,
		tokens:   tokens,
		logger:   logger,
	}
}

// ownerID pulls the authenticated owner off the context; the auth middleware
// guarantees it on /api/v1 routes.
func ownerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := httputil.GetOwnerID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "missing owner identity")
	}
	return id, ok
}

// resolveParentID maps a parent folder UUID from a request onto the internal
// ID the services work with.
func (h *FolderHandler) resolveParentID(w http.ResponseWriter, r *http.Request, owner int64, parentUUID string) (*int64, bool) {
	if parentUUID == "" {
		return nil, true
	}
	parent, err := h.folders.Get(r.Context(), owner, parentUUID)
	if err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	return &parent.ID, true
}

// Create handles POST /api/v1/folders.
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var body CreateFolderBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	parentID, ok := h.resolveParentID(w, r, owner, body.ParentID)
	if !ok {
		return
	}

	folder, err := h.folders.Create(r.Context(), &services.CreateFolderRequest{
		OwnerID:  owner,
		Name:     body.Name,
		ParentID: parentID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// List handles GET /api/v1/folders.
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	parentID, ok := h.resolveParentID(w, r, owner, q.Get("parent_id"))
	if !ok {
		return
	}

	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	result, err := h.folders.List(r.Context(), &services.ListFoldersRequest{
		OwnerID:  owner,
		ParentID: parentID,
		Search:   q.Get("q"),
		OrderBy:  q.Get("order_by"),
		Order:    q.Get("order"),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, FolderListResponse{
		Data: result.Folders,
		Meta: PageMeta{Total: result.Total, Page: result.Page, PerPage: result.PerPage},
	})
}

// Get handles GET /api/v1/folders/{id}.
func (h *FolderHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	folder, err := h.folders.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// Rename handles PATCH /api/v1/folders/{id}.
func (h *FolderHandler) Rename(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var body RenameFolderBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.folders.Rename(r.Context(), r.PathValue("id"), &services.RenameFolderRequest{
		OwnerID: owner,
		Name:    body.Name,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// Move handles POST /api/v1/folders/{id}/move.
func (h *FolderHandler) Move(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var body MoveFolderBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var parentUUID string
	if body.ParentID != nil {
		parentUUID = *body.ParentID
	}
	parentID, ok := h.resolveParentID(w, r, owner, parentUUID)
	if !ok {
		return
	}

	folder, err := h.folders.Move(r.Context(), r.PathValue("id"), &services.MoveFolderRequest{
		OwnerID:  owner,
		ParentID: parentID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// Delete handles DELETE /api/v1/folders/{id}.
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	if err := h.folders.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST /api/v1/folders/{id}/restore.
func (h *FolderHandler) Restore(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	folder, err := h.folders.Restore(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// Children handles GET /api/v1/folders/{id}/children.
func (h *FolderHandler) Children(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	contents, err := h.folders.ListChildren(r.Context(), r.PathValue("id"), &services.ListChildrenRequest{
		OwnerID: owner,
		OrderBy: q.Get("order_by"),
		Order:   q.Get("order"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, FolderContentsResponse{
		Folders: contents.Folders.Folders,
		Assets:  contents.Assets,
		Meta: PageMeta{
			Total:   contents.Folders.Total,
			Page:    contents.Folders.Page,
			PerPage: contents.Folders.PerPage,
		},
	})
}

// Preview handles GET /api/v1/folders/{id}/preview.
func (h *FolderHandler) Preview(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	assets, err := h.previews.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, assets)
}

// TogglePreview handles POST /api/v1/folders/{id}/preview/toggle.
func (h *FolderHandler) TogglePreview(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var body TogglePreviewBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.AssetID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "asset_id is required")
		return
	}

	folder, err := h.previews.ToggleAsset(r.Context(), owner, r.PathValue("id"), body.AssetID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// CreateToken handles POST /api/v1/folders/{id}/tokens.
func (h *FolderHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var body CreateTokenBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.tokens.CreateFolderToken(r.Context(), &services.CreateFolderTokenRequest{
		OwnerID:             owner,
		FolderUUID:          r.PathValue("id"),
		CanCreateSubfolders: body.CanCreateSubfolders,
		CanUpload:           body.CanUpload,
		ExpiresAt:           body.ExpiresAt,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, token)
}
