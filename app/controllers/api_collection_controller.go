package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/tobiaskarsten/linkstash/app/models"
	"github.com/tobiaskarsten/linkstash/app/repository"
	"github.com/tobiaskarsten/linkstash/internal/pkg/usercontext"
)

type collectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
}

// HandleAPICollectionList returns the user's collections.
func HandleAPICollectionList(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	collections, err := repo.GetByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "collection_list_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"collections": collections})
}

// HandleAPICollectionCreate creates a collection for the user.
func HandleAPICollectionCreate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req collectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	collection := &models.Collection{
		UserID:      userCtx.UserID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Visibility:  normalizeVisibility(req.Visibility),
	}
	if err := collection.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	if err := repo.Create(collection); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "collection_create_failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(collection)
}

// HandleAPICollectionGet returns one collection with its bookmarks.
func HandleAPICollectionGet(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	collection, status := loadOwnedCollection(c, userCtx.UserID)
	if collection == nil {
		return status
	}

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	full, err := repo.GetByIDWithBookmarks(collection.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "collection_load_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(full)
}

// HandleAPICollectionUpdate renames a collection or changes its visibility.
func HandleAPICollectionUpdate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	collection, status := loadOwnedCollection(c, userCtx.UserID)
	if collection == nil {
		return status
	}

	var req collectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		collection.Name = name
	}
	if req.Description != "" {
		collection.Description = strings.TrimSpace(req.Description)
	}
	if req.Visibility != "" {
		collection.Visibility = normalizeVisibility(req.Visibility)
	}
	if err := collection.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	if err := repo.Update(collection); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "collection_update_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(collection)
}

// HandleAPICollectionDelete deletes a collection and its bookmarks.
func HandleAPICollectionDelete(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	collection, status := loadOwnedCollection(c, userCtx.UserID)
	if collection == nil {
		return status
	}

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	if err := repo.Delete(collection.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "collection_delete_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// HandleSharedCollection serves a shared collection by share link. Private
// collections are not reachable this way.
func HandleSharedCollection(c *fiber.Ctx) error {
	shareLink := strings.TrimSpace(c.Params("sharelink"))
	if shareLink == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	collection, err := repo.GetByShareLink(shareLink)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "collection_load_failed"})
	}
	if !collection.IsShared() {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}

	full, err := repo.GetByIDWithBookmarks(collection.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "collection_load_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"name":        full.Name,
		"description": full.Description,
		"visibility":  full.Visibility,
		"bookmarks":   full.Bookmarks,
	})
}

// loadOwnedCollection resolves the :id param to a collection owned by the
// user. On failure it writes the response and returns a nil collection.
func loadOwnedCollection(c *fiber.Ctx, userID uint) (*models.Collection, error) {
	if userID == 0 {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_collection_id"})
	}

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	collection, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "collection_load_failed"})
	}
	if collection.UserID != userID {
		// Do not leak existence of other users' collections.
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}
	return collection, nil
}

func normalizeVisibility(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case models.VisibilityPublic:
		return models.VisibilityPublic
	case models.VisibilityUnlisted:
		return models.VisibilityUnlisted
	default:
		return models.VisibilityPrivate
	}
}
