package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recette/internal/imaging"
	"recette/internal/models"
	"recette/internal/repositories"
	"recette/pkg/storage"

	"gorm.io/gorm"
)

// ImageService runs the upload pipeline (validate, normalize, store) and
// maintains the main-image invariant on a recipe's image list.
type ImageService struct {
	imageRepo  repositories.ImageRepository
	recipeRepo repositories.RecipeRepository
	storage    storage.ObjectStorage

	now func() time.Time
}

// NewImageService creates a new ImageService.
func NewImageService(imageRepo repositories.ImageRepository, recipeRepo repositories.RecipeRepository, objectStorage storage.ObjectStorage) *ImageService {
	return &ImageService{
		imageRepo:  imageRepo,
		recipeRepo: recipeRepo,
		storage:    objectStorage,
		now:        time.Now,
	}
}

// UploadFile is one file of an upload batch.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileError reports a single failed file of a batch. Failures are isolated:
// one bad file never aborts the rest of the batch.
type FileError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// UploadPending processes a batch for a recipe that does not exist yet. Files
// are processed sequentially in input order; each success yields a
// PendingImage the client holds in form state until the recipe insert.
// existing is how many images the client's list already holds, so the first
// upload into an empty list is flagged main.
func (s *ImageService) UploadPending(ctx context.Context, userID string, files []UploadFile, existing int) ([]models.PendingImage, []FileError) {
	var uploaded []models.PendingImage
	var failures []FileError

	for _, file := range files {
		pending, err := s.processOne(ctx, userID, file)
		if err != nil {
			failures = append(failures, FileError{Name: file.Name, Error: err.Error()})
			continue
		}
		pending.IsMain = existing+len(uploaded) == 0
		uploaded = append(uploaded, *pending)
	}
	return uploaded, failures
}

// AddToRecipe processes a batch for an existing owned recipe, creating image
// rows as uploads succeed. The first image of a previously empty list becomes
// main.
func (s *ImageService) AddToRecipe(ctx context.Context, userID, recipeID string, files []UploadFile) ([]models.RecipeImage, []FileError) {
	if err := s.checkOwner(userID, recipeID); err != nil {
		return nil, []FileError{{Name: "", Error: err.Error()}}
	}

	existing, err := s.imageRepo.GetByRecipe(recipeID)
	if err != nil {
		return nil, []FileError{{Name: "", Error: err.Error()}}
	}
	count := len(existing)

	var created []models.RecipeImage
	var failures []FileError
	for _, file := range files {
		pending, err := s.processOne(ctx, userID, file)
		if err != nil {
			failures = append(failures, FileError{Name: file.Name, Error: err.Error()})
			continue
		}
		img := &models.RecipeImage{
			RecipeID:    recipeID,
			ImageURL:    pending.URL,
			StoragePath: pending.Path,
			IsMain:      count+len(created) == 0,
		}
		if err := s.imageRepo.Create(img); err != nil {
			failures = append(failures, FileError{Name: file.Name, Error: err.Error()})
			continue
		}
		created = append(created, *img)
	}
	return created, failures
}

// processOne runs one file through the pipeline: validate the declared type
// and size, normalize, upload, resolve the public URL.
func (s *ImageService) processOne(ctx context.Context, userID string, file UploadFile) (*models.PendingImage, error) {
	if err := imaging.Validate(file.ContentType, len(file.Data)); err != nil {
		return nil, err
	}

	normalized, err := imaging.Normalize(file.Data)
	if err != nil {
		return nil, err
	}

	// Storage paths are namespaced by the owning user.
	path := userID + "/" + imaging.FileName(file.Name, s.now())
	storedPath, err := s.storage.Upload(ctx, path, normalized.Data, normalized.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	return &models.PendingImage{
		URL:    s.storage.PublicURL(storedPath),
		Path:   storedPath,
		Format: normalized.ContentType,
	}, nil
}

// SetMain flags one image of an owned recipe as main; every other flag of
// the recipe is cleared in the same operation.
func (s *ImageService) SetMain(userID, recipeID, imageID string) error {
	if err := s.checkOwner(userID, recipeID); err != nil {
		return err
	}
	if err := s.imageRepo.SetMain(recipeID, imageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes one image of an owned recipe: the stored object first, then
// the row. A storage failure aborts with the list unchanged. Deleting the
// main image promotes the oldest remaining image.
func (s *ImageService) Delete(ctx context.Context, userID, recipeID, imageID string) error {
	if err := s.checkOwner(userID, recipeID); err != nil {
		return err
	}

	img, err := s.imageRepo.GetByID(imageID)
	if err != nil || img.RecipeID != recipeID {
		return ErrNotFound
	}

	if err := s.storage.Remove(ctx, []string{img.StoragePath}); err != nil {
		return fmt.Errorf("failed to remove stored object: %w", err)
	}
	if err := s.imageRepo.Delete(imageID); err != nil {
		return err
	}

	if img.IsMain {
		remaining, err := s.imageRepo.GetByRecipe(recipeID)
		if err == nil && len(remaining) > 0 {
			return s.imageRepo.SetMain(recipeID, remaining[0].ID)
		}
	}
	return nil
}

// checkOwner verifies the recipe exists and belongs to the user.
func (s *ImageService) checkOwner(userID, recipeID string) error {
	recipe, err := s.recipeRepo.GetByID(recipeID)
	if err != nil {
		return ErrNotFound
	}
	if recipe.UserID != userID {
		return ErrNotFound
	}
	return nil
}
