package services_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"recette/internal/models"
	"recette/internal/repositories"
	"recette/internal/services"
	"recette/pkg/storage"

	"github.com/stretchr/testify/assert"
)

// pngFile builds a decodable PNG upload of the given dimensions.
func pngFile(t *testing.T, name string, width, height int) services.UploadFile {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	assert.NoError(t, png.Encode(&buf, img))
	return services.UploadFile{
		Name:        name,
		ContentType: "image/png",
		Data:        buf.Bytes(),
	}
}

func newImageServiceForTest() (*services.ImageService, *repositories.MockImageRepository, *repositories.MockRecipeRepository, *storage.MockStorage) {
	imageRepo := repositories.NewMockImageRepository()
	recipeRepo := repositories.NewMockRecipeRepository()
	objectStorage := storage.NewMockStorage()
	svc := services.NewImageService(imageRepo, recipeRepo, objectStorage)
	return svc, imageRepo, recipeRepo, objectStorage
}

func TestImageService_UploadPendingIsolatesFailures(t *testing.T) {
	svc, _, _, objectStorage := newImageServiceForTest()

	files := []services.UploadFile{
		pngFile(t, "first.png", 40, 30),
		{Name: "clip.gif", ContentType: "image/gif", Data: []byte("GIF89a")},
		pngFile(t, "third.png", 30, 40),
	}

	uploaded, failures := svc.UploadPending(context.Background(), "user-1", files, 0)

	assert.Len(t, uploaded, 2)
	assert.Len(t, failures, 1)
	assert.Equal(t, "clip.gif", failures[0].Name)
	assert.Contains(t, failures[0].Error, "image/gif")

	// The failed file does not shift the main flag: the first success of an
	// empty list is main, nothing else.
	assert.True(t, uploaded[0].IsMain)
	assert.False(t, uploaded[1].IsMain)

	for _, pending := range uploaded {
		assert.True(t, strings.HasPrefix(pending.Path, "user-1/"))
		assert.True(t, objectStorage.Has(pending.Path))
		assert.Equal(t, "image/jpeg", pending.Format)
	}
	assert.Equal(t, 2, objectStorage.Len())
}

func TestImageService_UploadPendingRespectsExistingCount(t *testing.T) {
	svc, _, _, _ := newImageServiceForTest()

	uploaded, failures := svc.UploadPending(context.Background(), "user-1", []services.UploadFile{
		pngFile(t, "extra.png", 20, 20),
	}, 2)

	assert.Empty(t, failures)
	assert.Len(t, uploaded, 1)
	assert.False(t, uploaded[0].IsMain)
}

func TestImageService_UploadPendingRejectsOversizedFile(t *testing.T) {
	svc, _, _, objectStorage := newImageServiceForTest()

	big := pngFile(t, "big.png", 10, 10)
	big.Data = append(big.Data, make([]byte, 6<<20)...)

	uploaded, failures := svc.UploadPending(context.Background(), "user-1", []services.UploadFile{big}, 0)
	assert.Empty(t, uploaded)
	assert.Len(t, failures, 1)
	assert.Equal(t, 0, objectStorage.Len())
}

func TestImageService_AddToRecipe(t *testing.T) {
	svc, imageRepo, recipeRepo, _ := newImageServiceForTest()

	recipe := &models.Recipe{UserID: "owner", Title: "Salad", Servings: 2}
	assert.NoError(t, recipeRepo.Create(recipe))

	// A stranger gets a not-found, no uploads happen.
	created, failures := svc.AddToRecipe(context.Background(), "stranger", recipe.ID, []services.UploadFile{
		pngFile(t, "sneak.png", 10, 10),
	})
	assert.Empty(t, created)
	assert.Len(t, failures, 1)

	// The first image of an empty list becomes main, later ones do not.
	created, failures = svc.AddToRecipe(context.Background(), "owner", recipe.ID, []services.UploadFile{
		pngFile(t, "one.png", 10, 10),
		pngFile(t, "two.png", 10, 10),
	})
	assert.Empty(t, failures)
	assert.Len(t, created, 2)
	assert.True(t, created[0].IsMain)
	assert.False(t, created[1].IsMain)

	created, failures = svc.AddToRecipe(context.Background(), "owner", recipe.ID, []services.UploadFile{
		pngFile(t, "three.png", 10, 10),
	})
	assert.Empty(t, failures)
	assert.Len(t, created, 1)
	assert.False(t, created[0].IsMain)

	images, err := imageRepo.GetByRecipe(recipe.ID)
	assert.NoError(t, err)
	assert.Len(t, images, 3)
}

func TestImageService_SetMainClearsOtherFlags(t *testing.T) {
	svc, imageRepo, recipeRepo, _ := newImageServiceForTest()

	recipe := &models.Recipe{UserID: "owner", Title: "Soup", Servings: 2}
	assert.NoError(t, recipeRepo.Create(recipe))

	a := &models.RecipeImage{RecipeID: recipe.ID, ImageURL: "https://cdn/a.jpg", StoragePath: "owner/a.jpg", IsMain: true}
	b := &models.RecipeImage{RecipeID: recipe.ID, ImageURL: "https://cdn/b.jpg", StoragePath: "owner/b.jpg"}
	assert.NoError(t, imageRepo.Create(a))
	assert.NoError(t, imageRepo.Create(b))

	assert.NoError(t, svc.SetMain("owner", recipe.ID, b.ID))

	images, err := imageRepo.GetByRecipe(recipe.ID)
	assert.NoError(t, err)
	mains := 0
	for _, img := range images {
		if img.IsMain {
			mains++
			assert.Equal(t, b.ID, img.ID)
		}
	}
	assert.Equal(t, 1, mains)

	// Ownership and existence failures map to not-found.
	assert.ErrorIs(t, svc.SetMain("stranger", recipe.ID, b.ID), services.ErrNotFound)
	assert.ErrorIs(t, svc.SetMain("owner", recipe.ID, "missing-id"), services.ErrNotFound)
}

func TestImageService_DeleteAbortsOnStorageFailure(t *testing.T) {
	svc, imageRepo, recipeRepo, objectStorage := newImageServiceForTest()

	recipe := &models.Recipe{UserID: "owner", Title: "Pie", Servings: 4}
	assert.NoError(t, recipeRepo.Create(recipe))
	img := &models.RecipeImage{RecipeID: recipe.ID, ImageURL: "https://cdn/p.jpg", StoragePath: "owner/p.jpg", IsMain: true}
	assert.NoError(t, imageRepo.Create(img))
	objectStorage.Upload(context.Background(), "owner/p.jpg", []byte("jpeg"), "image/jpeg")
	objectStorage.FailRemove["owner/p.jpg"] = true

	// The stored object could not be removed, so the row must survive: the
	// list the user sees never references a dead object.
	err := svc.Delete(context.Background(), "owner", recipe.ID, img.ID)
	assert.Error(t, err)

	images, repoErr := imageRepo.GetByRecipe(recipe.ID)
	assert.NoError(t, repoErr)
	assert.Len(t, images, 1)
}

func TestImageService_DeleteMainPromotesOldestRemaining(t *testing.T) {
	svc, imageRepo, recipeRepo, objectStorage := newImageServiceForTest()

	recipe := &models.Recipe{UserID: "owner", Title: "Stew", Servings: 4}
	assert.NoError(t, recipeRepo.Create(recipe))

	main := &models.RecipeImage{RecipeID: recipe.ID, ImageURL: "https://cdn/1.jpg", StoragePath: "owner/1.jpg", IsMain: true}
	second := &models.RecipeImage{RecipeID: recipe.ID, ImageURL: "https://cdn/2.jpg", StoragePath: "owner/2.jpg"}
	third := &models.RecipeImage{RecipeID: recipe.ID, ImageURL: "https://cdn/3.jpg", StoragePath: "owner/3.jpg"}
	for _, img := range []*models.RecipeImage{main, second, third} {
		assert.NoError(t, imageRepo.Create(img))
		objectStorage.Upload(context.Background(), img.StoragePath, []byte("jpeg"), "image/jpeg")
	}

	assert.NoError(t, svc.Delete(context.Background(), "owner", recipe.ID, main.ID))
	assert.False(t, objectStorage.Has("owner/1.jpg"))

	images, err := imageRepo.GetByRecipe(recipe.ID)
	assert.NoError(t, err)
	assert.Len(t, images, 2)
	assert.True(t, images[0].IsMain)
	assert.Equal(t, second.ID, images[0].ID)
	assert.False(t, images[1].IsMain)

	// Deleting a non-main image leaves the flag where it was.
	assert.NoError(t, svc.Delete(context.Background(), "owner", recipe.ID, third.ID))
	images, err = imageRepo.GetByRecipe(recipe.ID)
	assert.NoError(t, err)
	assert.Len(t, images, 1)
	assert.True(t, images[0].IsMain)
}
