package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/tobiaskarsten/linkstash/app/models"
	"github.com/tobiaskarsten/linkstash/app/repository"
	"github.com/tobiaskarsten/linkstash/internal/pkg/database"
	"github.com/tobiaskarsten/linkstash/internal/pkg/importer"
	"github.com/tobiaskarsten/linkstash/internal/pkg/usercontext"
)

const importBatchSize = 200

// fallbackImportCollection receives entries whose export file puts them
// outside any folder.
const fallbackImportCollection = "Imported"

// HandleAPIImport ingests a Netscape bookmark export uploaded as multipart
// form data under the "file" field. Folders become collections, entries
// become bookmarks.
func HandleAPIImport(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_file"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unreadable_file"})
	}
	defer file.Close()

	entries, err := importer.Parse(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_bookmark_file"})
	}
	if len(entries) == 0 {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"imported": 0, "skipped": 0, "collections": 0})
	}

	if allowed, err := bookmarkQuotaAllows(userCtx.UserID, int64(len(entries))); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "import_failed"})
	} else if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "bookmark_limit_reached"})
	}

	settings, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "import_failed"})
	}

	collectionRepo := repository.GetGlobalFactory().GetCollectionRepository()
	bookmarkRepo := repository.GetGlobalFactory().GetBookmarkRepository()

	// Folder path -> target collection, resolved lazily so empty folders in
	// the export never create collections.
	targets := map[string]*models.Collection{}
	newCollections := 0
	resolveCollection := func(folder string) (*models.Collection, error) {
		name := folder
		if name == "" {
			name = fallbackImportCollection
		}
		if col, ok := targets[name]; ok {
			return col, nil
		}

		col, err := collectionRepo.GetByUserIDAndName(userCtx.UserID, name)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			col = &models.Collection{
				UserID:     userCtx.UserID,
				Name:       name,
				Visibility: settings.DefaultVisibility,
			}
			if err := collectionRepo.Create(col); err != nil {
				return nil, err
			}
			newCollections++
		}
		targets[name] = col
		return col, nil
	}

	imported := 0
	skipped := 0
	positions := map[uint]int{}
	var batch []models.Bookmark

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := bookmarkRepo.CreateBatch(batch); err != nil {
			return err
		}
		imported += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, entry := range entries {
		col, err := resolveCollection(entry.Folder)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "import_failed"})
		}

		if settings.ImportSkipDupes {
			exists, err := bookmarkRepo.ExistsInCollection(col.ID, entry.URL)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "import_failed"})
			}
			if exists {
				skipped++
				continue
			}
		}

		pos, ok := positions[col.ID]
		if !ok {
			next, err := bookmarkRepo.NextPosition(col.ID)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "import_failed"})
			}
			pos = next
		}
		positions[col.ID] = pos + 1

		title := entry.Title
		if title == "" {
			title = entry.URL
		}
		batch = append(batch, models.Bookmark{
			CollectionID: col.ID,
			UserID:       userCtx.UserID,
			URL:          entry.URL,
			Title:        title,
			FaviconURL:   entry.IconURL,
			Position:     pos,
			AddedAt:      entry.AddedAt,
		})
		if len(batch) >= importBatchSize {
			if err := flush(); err != nil {
				log.Printf("bookmark import batch failed for user %d: %v", userCtx.UserID, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "import_failed"})
			}
		}
	}
	if err := flush(); err != nil {
		log.Printf("bookmark import batch failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "import_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"imported":    imported,
		"skipped":     skipped,
		"collections": newCollections,
	})
}
