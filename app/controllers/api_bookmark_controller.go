package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/tobiaskarsten/linkstash/app/models"
	"github.com/tobiaskarsten/linkstash/app/repository"
	"github.com/tobiaskarsten/linkstash/internal/pkg/billing"
	"github.com/tobiaskarsten/linkstash/internal/pkg/cache"
	"github.com/tobiaskarsten/linkstash/internal/pkg/database"
	"github.com/tobiaskarsten/linkstash/internal/pkg/usercontext"
)

const defaultBookmarkPageSize = 100

type bookmarkRequest struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FaviconURL  string `json:"favicon_url"`
}

// HandleAPIBookmarkList returns a page of bookmarks in a collection.
func HandleAPIBookmarkList(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	collection, status := loadOwnedCollection(c, userCtx.UserID)
	if collection == nil {
		return status
	}

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", defaultBookmarkPageSize)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > defaultBookmarkPageSize {
		limit = defaultBookmarkPageSize
	}

	repo := repository.GetGlobalFactory().GetBookmarkRepository()
	bookmarks, err := repo.GetByCollectionID(collection.ID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "bookmark_list_failed"})
	}
	total, err := repo.CountByCollectionID(collection.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "bookmark_list_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"bookmarks": bookmarks,
		"total":     total,
		"offset":    offset,
		"limit":     limit,
	})
}

// HandleAPIBookmarkCreate appends a bookmark to a collection.
func HandleAPIBookmarkCreate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	collection, status := loadOwnedCollection(c, userCtx.UserID)
	if collection == nil {
		return status
	}

	var req bookmarkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}

	repo := repository.GetGlobalFactory().GetBookmarkRepository()

	if allowed, err := bookmarkQuotaAllows(userCtx.UserID, 1); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "bookmark_create_failed"})
	} else if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "bookmark_limit_reached"})
	}

	position, err := repo.NextPosition(collection.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "bookmark_create_failed"})
	}

	now := time.Now()
	bookmark := &models.Bookmark{
		CollectionID: collection.ID,
		UserID:       userCtx.UserID,
		URL:          strings.TrimSpace(req.URL),
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		FaviconURL:   strings.TrimSpace(req.FaviconURL),
		Position:     position,
		AddedAt:      &now,
	}
	if err := bookmark.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repo.Create(bookmark); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "bookmark_create_failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(bookmark)
}

// HandleAPIBookmarkDelete removes a bookmark from a collection.
func HandleAPIBookmarkDelete(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	collection, status := loadOwnedCollection(c, userCtx.UserID)
	if collection == nil {
		return status
	}

	bookmarkID, err := strconv.ParseUint(c.Params("bookmarkId"), 10, 64)
	if err != nil || bookmarkID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_bookmark_id"})
	}

	repo := repository.GetGlobalFactory().GetBookmarkRepository()
	bookmark, err := repo.GetByID(uint(bookmarkID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "bookmark_delete_failed"})
	}
	if bookmark.CollectionID != collection.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}

	if err := repo.Delete(bookmark.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "bookmark_delete_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// bookmarkQuotaAllows reports whether the user may add n more bookmarks
// under their current plan.
func bookmarkQuotaAllows(userID uint, n int64) (bool, error) {
	plan := cache.GetUserPlan(userID)
	if plan == "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		svc := billing.NewServiceFromDB(database.GetDB())
		computed, err := svc.EffectivePlan(ctx, userID)
		if err != nil {
			return false, err
		}
		plan = computed
		_ = cache.SetUserPlan(userID, plan)
	}

	limit := billing.BookmarkLimit(plan)
	if limit < 0 {
		return true, nil
	}

	count, err := repository.GetGlobalFactory().GetBookmarkRepository().CountByUserID(userID)
	if err != nil {
		return false, err
	}
	return count+n <= int64(limit), nil
}
