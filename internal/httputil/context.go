package httputil

import (
	"context"
	"net/http"

	"assetlib/internal/domain/models"
)

// Context key type to avoid collisions.
type contextKey string

const (
	ownerIDKey     contextKey = "ownerID"
	folderTokenKey contextKey = "folderToken"
)

// WithOwnerID stores the authenticated owner's ID on the request context.
func WithOwnerID(r *http.Request, ownerID int64) *http.Request {
	ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
	return r.WithContext(ctx)
}

// GetOwnerID retrieves the authenticated owner ID; ok is false when the
// request was not owner-authenticated.
func GetOwnerID(r *http.Request) (int64, bool) {
	ownerID, ok := r.Context().Value(ownerIDKey).(int64)
	return ownerID, ok
}

// WithFolderToken stores a resolved folder token on the request context.
func WithFolderToken(r *http.Request, token *models.FolderToken) *http.Request {
	ctx := context.WithValue(r.Context(), folderTokenKey, token)
	return r.WithContext(ctx)
}

// GetFolderToken retrieves the folder token a request authenticated with, or
// nil for owner-authenticated requests.
func GetFolderToken(r *http.Request) *models.FolderToken {
	token, _ := r.Context().Value(folderTokenKey).(*models.FolderToken)
	return token
}
