package services_test

import (
	"context"
	"testing"

	"recette/internal/models"
	"recette/internal/repositories"
	"recette/internal/services"
	"recette/internal/slug"
	"recette/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// callRecorder collects the order of repository mutations so tests can assert
// the delete cascade sequence.
type callRecorder struct {
	calls []string
}

// recordingRecipeRepo wraps the in-memory recipe repository and records Delete.
type recordingRecipeRepo struct {
	*repositories.MockRecipeRepository
	rec *callRecorder
}

func (r *recordingRecipeRepo) Delete(id string) error {
	r.rec.calls = append(r.rec.calls, "recipes.Delete")
	return r.MockRecipeRepository.Delete(id)
}

// recordingImageRepo wraps the in-memory image repository and records
// DeleteByRecipe.
type recordingImageRepo struct {
	*repositories.MockImageRepository
	rec *callRecorder
}

func (r *recordingImageRepo) DeleteByRecipe(recipeID string) error {
	r.rec.calls = append(r.rec.calls, "images.DeleteByRecipe")
	return r.MockImageRepository.DeleteByRecipe(recipeID)
}

func newRecipeServiceForTest() (*services.RecipeService, *repositories.MockRecipeRepository, *repositories.MockImageRepository, *storage.MockStorage) {
	recipeRepo := repositories.NewMockRecipeRepository()
	imageRepo := repositories.NewMockImageRepository()
	profileRepo := new(MockProfileRepository)
	profileRepo.On("GetByUserIDs", mock.Anything).Return([]models.Profile{}, nil).Maybe()
	objectStorage := storage.NewMockStorage()
	svc := services.NewRecipeService(recipeRepo, imageRepo, profileRepo, objectStorage)
	return svc, recipeRepo, imageRepo, objectStorage
}

func TestRecipeService_CreateSanitizesMarkup(t *testing.T) {
	svc, _, _, _ := newRecipeServiceForTest()

	detail, err := svc.Create("user-1", &models.CreateRecipeRequest{
		Title:        "Pancakes",
		Servings:     2,
		PrepTime:     10,
		CookTime:     15,
		Ingredients:  `<ul><li>Flour</li><li onclick="x()">Eggs<script>alert(1)</script></li></ul><img src="x">`,
		Instructions: `<ol><li>Mix <strong>well</strong>.</li></ol><em>Serve warm</em><a href="evil">link</a>`,
	})
	assert.NoError(t, err)

	assert.Contains(t, detail.Ingredients, "<li>Flour</li>")
	assert.NotContains(t, detail.Ingredients, "script")
	assert.NotContains(t, detail.Ingredients, "onclick")
	assert.NotContains(t, detail.Ingredients, "img")

	assert.Contains(t, detail.Instructions, "<strong>well</strong>")
	assert.Contains(t, detail.Instructions, "<em>Serve warm</em>")
	assert.NotContains(t, detail.Instructions, "<a")

	// em is allowed in instructions but not in the ingredients list.
	detail2, err := svc.Create("user-1", &models.CreateRecipeRequest{
		Title:       "Toast",
		Servings:    1,
		Ingredients: "<em>Bread</em>",
	})
	assert.NoError(t, err)
	assert.NotContains(t, detail2.Ingredients, "<em>")
	assert.Contains(t, detail2.Ingredients, "Bread")
}

func TestRecipeService_CreatePromotesPendingImages(t *testing.T) {
	svc, _, imageRepo, _ := newRecipeServiceForTest()

	// The flag on the second entry wins; everything else is cleared.
	detail, err := svc.Create("user-1", &models.CreateRecipeRequest{
		Title:    "Ratatouille",
		Servings: 4,
		Images: []models.PendingImage{
			{URL: "https://cdn/img-a.jpg", Path: "user-1/a.jpg"},
			{URL: "https://cdn/img-b.jpg", Path: "user-1/b.jpg", IsMain: true},
			{URL: "https://cdn/img-c.jpg", Path: "user-1/c.jpg"},
		},
	})
	assert.NoError(t, err)
	assert.Len(t, detail.Images, 3)

	mains := 0
	for _, img := range detail.Images {
		if img.IsMain {
			mains++
			assert.Equal(t, "https://cdn/img-b.jpg", img.ImageURL)
		}
	}
	assert.Equal(t, 1, mains)

	// With no flags at all, the first image becomes main.
	detail, err = svc.Create("user-1", &models.CreateRecipeRequest{
		Title:    "Gazpacho",
		Servings: 4,
		Images: []models.PendingImage{
			{URL: "https://cdn/img-d.jpg", Path: "user-1/d.jpg"},
			{URL: "https://cdn/img-e.jpg", Path: "user-1/e.jpg"},
		},
	})
	assert.NoError(t, err)
	assert.True(t, detail.Images[0].IsMain)
	assert.False(t, detail.Images[1].IsMain)

	images, err := imageRepo.GetByRecipe(detail.ID)
	assert.NoError(t, err)
	assert.Len(t, images, 2)
}

func TestRecipeService_SlugResolution(t *testing.T) {
	svc, _, _, _ := newRecipeServiceForTest()

	detail, err := svc.Create("user-1", &models.CreateRecipeRequest{
		Title:    "Crème Brûlée",
		Servings: 6,
	})
	assert.NoError(t, err)
	assert.Equal(t, "creme-brulee-"+detail.ID, detail.Slug)

	// The canonical slug resolves.
	got, err := svc.GetBySlug(detail.Slug)
	assert.NoError(t, err)
	assert.Equal(t, detail.ID, got.ID)

	// Only the embedded ID matters; the text portion is cosmetic.
	got, err = svc.GetBySlug("totally-different-text-" + detail.ID)
	assert.NoError(t, err)
	assert.Equal(t, detail.ID, got.ID)

	// A slug without a parseable ID is not found, never a scan.
	_, err = svc.GetBySlug("creme-brulee")
	assert.ErrorIs(t, err, services.ErrNotFound)

	// A well-formed slug for a missing row is not found too.
	_, err = svc.GetBySlug(slug.Make("ghost", "00000000-0000-0000-0000-000000000000"))
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRecipeService_UpdateKeepsTitleAndOwnership(t *testing.T) {
	svc, _, _, _ := newRecipeServiceForTest()

	detail, err := svc.Create("owner", &models.CreateRecipeRequest{
		Title:    "Original Title",
		Servings: 2,
	})
	assert.NoError(t, err)

	// A stranger sees not-found, not forbidden.
	_, err = svc.Update("stranger", detail.Slug, &models.UpdateRecipeRequest{Servings: 8})
	assert.ErrorIs(t, err, services.ErrNotFound)

	updated, err := svc.Update("owner", detail.Slug, &models.UpdateRecipeRequest{
		Subtitle: "Now with subtitle",
		Servings: 8,
		PrepTime: 5,
		CookTime: 20,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Original Title", updated.Title)
	assert.Equal(t, detail.Slug, updated.Slug)
	assert.Equal(t, 8, updated.Servings)
}

func TestRecipeService_DeleteCascadeOrder(t *testing.T) {
	rec := &callRecorder{}
	recipeRepo := &recordingRecipeRepo{MockRecipeRepository: repositories.NewMockRecipeRepository(), rec: rec}
	imageRepo := &recordingImageRepo{MockImageRepository: repositories.NewMockImageRepository(), rec: rec}
	profileRepo := new(MockProfileRepository)
	profileRepo.On("GetByUserIDs", mock.Anything).Return([]models.Profile{}, nil).Maybe()
	objectStorage := storage.NewMockStorage()
	svc := services.NewRecipeService(recipeRepo, imageRepo, profileRepo, objectStorage)

	detail, err := svc.Create("owner", &models.CreateRecipeRequest{
		Title:    "Doomed Dish",
		Servings: 2,
		Images: []models.PendingImage{
			{URL: "https://cdn/x.jpg", Path: "owner/x.jpg", IsMain: true},
		},
	})
	assert.NoError(t, err)
	objectStorage.Upload(context.Background(), "owner/x.jpg", []byte("jpeg"), "image/jpeg")

	err = svc.Delete(context.Background(), "owner", detail.Slug)
	assert.NoError(t, err)

	// Image rows go before the recipe row, so a failure never leaves rows
	// pointing at a deleted recipe.
	assert.Equal(t, []string{"images.DeleteByRecipe", "recipes.Delete"}, rec.calls)
	assert.False(t, objectStorage.Has("owner/x.jpg"))

	_, err = svc.GetBySlug(detail.Slug)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRecipeService_DeleteToleratesStorageFailure(t *testing.T) {
	svc, recipeRepo, imageRepo, objectStorage := newRecipeServiceForTest()

	detail, err := svc.Create("owner", &models.CreateRecipeRequest{
		Title:    "Sticky Dish",
		Servings: 2,
		Images: []models.PendingImage{
			{URL: "https://cdn/y.jpg", Path: "owner/y.jpg", IsMain: true},
		},
	})
	assert.NoError(t, err)
	objectStorage.Upload(context.Background(), "owner/y.jpg", []byte("jpeg"), "image/jpeg")
	objectStorage.FailRemove["owner/y.jpg"] = true

	// An orphaned object is acceptable; a half-deleted recipe is not.
	err = svc.Delete(context.Background(), "owner", detail.Slug)
	assert.NoError(t, err)

	_, err = recipeRepo.GetByID(detail.ID)
	assert.Error(t, err)
	images, err := imageRepo.GetByRecipe(detail.ID)
	assert.NoError(t, err)
	assert.Empty(t, images)
}

func TestRecipeService_ListDecoration(t *testing.T) {
	recipeRepo := repositories.NewMockRecipeRepository()
	imageRepo := repositories.NewMockImageRepository()
	profileRepo := new(MockProfileRepository)
	objectStorage := storage.NewMockStorage()
	svc := services.NewRecipeService(recipeRepo, imageRepo, profileRepo, objectStorage)

	profileRepo.On("GetByUserIDs", mock.Anything).Return([]models.Profile{
		{UserID: "user-1", Username: "maria"},
	}, nil)

	detail, err := svc.Create("user-1", &models.CreateRecipeRequest{
		Title:    "Paella",
		Servings: 4,
		PrepTime: 30,
		CookTime: 60,
		Images: []models.PendingImage{
			{URL: "https://cdn/hero.jpg", Path: "user-1/hero.jpg", IsMain: true},
			{URL: "https://cdn/side.jpg", Path: "user-1/side.jpg"},
		},
	})
	assert.NoError(t, err)

	summaries, err := svc.List()
	assert.NoError(t, err)
	assert.Len(t, summaries, 1)
	assert.Equal(t, detail.ID, summaries[0].ID)
	assert.Equal(t, "maria", summaries[0].Author)
	assert.Equal(t, "https://cdn/hero.jpg", summaries[0].MainImageURL)
	assert.Equal(t, "1h 30min", summaries[0].TotalTime)
	assert.Equal(t, slug.Make("Paella", detail.ID), summaries[0].Slug)
}
