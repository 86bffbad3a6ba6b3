package service

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"

	"assetlib/internal/config"
	"assetlib/internal/domain"
)

// slugBase derives the slug stem from a display name. Names that slugify to
// nothing (emoji-only, punctuation) fall back to a fixed stem so every folder
// gets an addressable slug.
func slugBase(name string) string {
	base := slug.Make(name)
	if base == "" {
		return "folder"
	}
	return base
}

// slugProbe reports whether a candidate slug is taken in some scope.
type slugProbe func(ctx context.Context, candidate string) (bool, error)

// uniqueSlug probes candidates stem, stem-2, stem-3, ... until one is free.
// Soft-deleted siblings keep their slugs reserved, so the probe must consider
// them taken. Exhaustion after MaxSlugAttempts is a conflict, not a loop.
func uniqueSlug(ctx context.Context, stem string, taken slugProbe) (string, error) {
	for i := 1; i <= config.MaxSlugAttempts; i++ {
		candidate := stem
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", stem, i)
		}
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", &domain.ConflictError{
		Message:      fmt.Sprintf("no free slug for %q after %d attempts", stem, config.MaxSlugAttempts),
		ResourceType: "folder",
	}
}
