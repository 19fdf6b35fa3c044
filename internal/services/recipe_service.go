package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"recette/internal/durationpicker"
	"recette/internal/models"
	"recette/internal/repositories"
	"recette/internal/slug"
	"recette/pkg/storage"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// RecipeService handles business logic for recipes: sanitization before
// persistence, slug resolution, ownership checks and the image-row cascade on
// delete.
type RecipeService struct {
	recipeRepo  repositories.RecipeRepository
	imageRepo   repositories.ImageRepository
	profileRepo repositories.ProfileRepository
	storage     storage.ObjectStorage

	ingredientsPolicy  *bluemonday.Policy
	instructionsPolicy *bluemonday.Policy
}

// NewRecipeService creates a new RecipeService. The sanitization policies
// mirror the editor's toolbar allow-lists; nothing else survives into the
// store.
func NewRecipeService(recipeRepo repositories.RecipeRepository, imageRepo repositories.ImageRepository, profileRepo repositories.ProfileRepository, objectStorage storage.ObjectStorage) *RecipeService {
	ingredients := bluemonday.NewPolicy()
	ingredients.AllowElements("p", "br", "ul", "li", "strong")

	instructions := bluemonday.NewPolicy()
	instructions.AllowElements("p", "br", "ol", "ul", "li", "strong", "em")

	return &RecipeService{
		recipeRepo:         recipeRepo,
		imageRepo:          imageRepo,
		profileRepo:        profileRepo,
		storage:            objectStorage,
		ingredientsPolicy:  ingredients,
		instructionsPolicy: instructions,
	}
}

// RecipeSummary is the listing view of a recipe: the row plus its main image
// and author username.
type RecipeSummary struct {
	models.Recipe
	Slug         string `json:"slug"`
	MainImageURL string `json:"main_image_url,omitempty"`
	Author       string `json:"author,omitempty"`
	TotalTime    string `json:"total_time"`
}

// RecipeDetail is the full view: the row, every image, author and formatted
// durations.
type RecipeDetail struct {
	models.Recipe
	Slug            string               `json:"slug"`
	Images          []models.RecipeImage `json:"images"`
	Author          string               `json:"author,omitempty"`
	DisplayPrepTime string               `json:"display_prep_time"`
	DisplayCookTime string               `json:"display_cook_time"`
}

// Create sanitizes and inserts a recipe, then promotes the pending images
// that were uploaded before the row existed. Exactly one promoted image ends
// up flagged main.
func (s *RecipeService) Create(userID string, req *models.CreateRecipeRequest) (*RecipeDetail, error) {
	recipe := &models.Recipe{
		UserID:       userID,
		Title:        req.Title,
		Subtitle:     req.Subtitle,
		Servings:     req.Servings,
		PrepTime:     req.PrepTime,
		CookTime:     req.CookTime,
		Ingredients:  s.ingredientsPolicy.Sanitize(req.Ingredients),
		Instructions: s.instructionsPolicy.Sanitize(req.Instructions),
	}
	if err := s.recipeRepo.Create(recipe); err != nil {
		return nil, err
	}

	for i, pending := range normalizeMainFlags(req.Images) {
		img := &models.RecipeImage{
			RecipeID:    recipe.ID,
			ImageURL:    pending.URL,
			StoragePath: pending.Path,
			IsMain:      pending.IsMain,
		}
		if err := s.imageRepo.Create(img); err != nil {
			// The recipe exists; a failed promotion is reported but does
			// not roll it back.
			return nil, fmt.Errorf("failed to attach image %d: %w", i, err)
		}
	}

	return s.detail(recipe)
}

// normalizeMainFlags enforces the main-image invariant on a pending list:
// the first flagged entry wins; with no flags the first entry becomes main.
func normalizeMainFlags(pending []models.PendingImage) []models.PendingImage {
	if len(pending) == 0 {
		return pending
	}
	out := make([]models.PendingImage, len(pending))
	copy(out, pending)
	main := 0
	for i := range out {
		if out[i].IsMain {
			main = i
			break
		}
	}
	for i := range out {
		out[i].IsMain = i == main
	}
	return out
}

// List returns every recipe decorated with its main image and author.
func (s *RecipeService) List() ([]RecipeSummary, error) {
	recipes, err := s.recipeRepo.GetAll()
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(recipes))
	seen := make(map[string]bool)
	for _, r := range recipes {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			userIDs = append(userIDs, r.UserID)
		}
	}
	usernames := s.usernames(userIDs)

	summaries := make([]RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		summary := RecipeSummary{
			Recipe:    r,
			Slug:      slug.Make(r.Title, r.ID),
			Author:    usernames[r.UserID],
			TotalTime: durationpicker.FormatMinutes(r.PrepTime + r.CookTime),
		}
		if images, err := s.imageRepo.GetByRecipe(r.ID); err == nil {
			for _, img := range images {
				if img.IsMain {
					summary.MainImageURL = img.ImageURL
					break
				}
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ListByUser returns the requesting user's own recipes.
func (s *RecipeService) ListByUser(userID string) ([]RecipeSummary, error) {
	recipes, err := s.recipeRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	usernames := s.usernames([]string{userID})
	summaries := make([]RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		summary := RecipeSummary{
			Recipe:    r,
			Slug:      slug.Make(r.Title, r.ID),
			Author:    usernames[r.UserID],
			TotalTime: durationpicker.FormatMinutes(r.PrepTime + r.CookTime),
		}
		if images, err := s.imageRepo.GetByRecipe(r.ID); err == nil {
			for _, img := range images {
				if img.IsMain {
					summary.MainImageURL = img.ImageURL
					break
				}
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetBySlug resolves a slug to its recipe by the embedded ID. A slug that
// does not parse or matches no row is a not-found, never a scan.
func (s *RecipeService) GetBySlug(slugStr string) (*RecipeDetail, error) {
	recipe, err := s.resolve(slugStr)
	if err != nil {
		return nil, err
	}
	return s.detail(recipe)
}

// Update applies an edit to an owned recipe. The title is immutable, so the
// slug never changes either.
func (s *RecipeService) Update(userID, slugStr string, req *models.UpdateRecipeRequest) (*RecipeDetail, error) {
	recipe, err := s.resolveOwned(userID, slugStr)
	if err != nil {
		return nil, err
	}

	recipe.Subtitle = req.Subtitle
	recipe.Servings = req.Servings
	recipe.PrepTime = req.PrepTime
	recipe.CookTime = req.CookTime
	recipe.Ingredients = s.ingredientsPolicy.Sanitize(req.Ingredients)
	recipe.Instructions = s.instructionsPolicy.Sanitize(req.Instructions)

	if err := s.recipeRepo.Update(recipe); err != nil {
		return nil, err
	}
	return s.detail(recipe)
}

// Delete removes an owned recipe: stored objects, then image rows, then the
// recipe row. Storage failures are logged and do not keep the rows alive; an
// orphaned object is preferable to a half-deleted recipe.
func (s *RecipeService) Delete(ctx context.Context, userID, slugStr string) error {
	recipe, err := s.resolveOwned(userID, slugStr)
	if err != nil {
		return err
	}

	images, err := s.imageRepo.GetByRecipe(recipe.ID)
	if err != nil {
		return err
	}
	if len(images) > 0 && s.storage != nil {
		paths := make([]string, 0, len(images))
		for _, img := range images {
			paths = append(paths, img.StoragePath)
		}
		if err := s.storage.Remove(ctx, paths); err != nil {
			log.Printf("Failed to remove %d stored objects for recipe %s: %v", len(paths), recipe.ID, err)
		}
	}

	if err := s.imageRepo.DeleteByRecipe(recipe.ID); err != nil {
		return err
	}
	return s.recipeRepo.Delete(recipe.ID)
}

// resolve parses the slug and loads the recipe by the embedded ID.
func (s *RecipeService) resolve(slugStr string) (*models.Recipe, error) {
	id, err := slug.ParseID(slugStr)
	if err != nil {
		return nil, ErrNotFound
	}
	recipe, err := s.recipeRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return recipe, nil
}

// resolveOwned resolves a slug and enforces ownership. A foreign recipe is
// reported as not found, not as forbidden, so edit URLs leak nothing.
func (s *RecipeService) resolveOwned(userID, slugStr string) (*models.Recipe, error) {
	recipe, err := s.resolve(slugStr)
	if err != nil {
		return nil, err
	}
	if recipe.UserID != userID {
		return nil, ErrNotFound
	}
	return recipe, nil
}

func (s *RecipeService) detail(recipe *models.Recipe) (*RecipeDetail, error) {
	images, err := s.imageRepo.GetByRecipe(recipe.ID)
	if err != nil {
		return nil, err
	}
	usernames := s.usernames([]string{recipe.UserID})
	return &RecipeDetail{
		Recipe:          *recipe,
		Slug:            slug.Make(recipe.Title, recipe.ID),
		Images:          images,
		Author:          usernames[recipe.UserID],
		DisplayPrepTime: durationpicker.FormatMinutes(recipe.PrepTime),
		DisplayCookTime: durationpicker.FormatMinutes(recipe.CookTime),
	}, nil
}

// usernames maps user IDs to usernames, tolerating missing profiles.
func (s *RecipeService) usernames(userIDs []string) map[string]string {
	out := make(map[string]string, len(userIDs))
	profiles, err := s.profileRepo.GetByUserIDs(userIDs)
	if err != nil {
		return out
	}
	for _, p := range profiles {
		out[p.UserID] = p.Username
	}
	return out
}
