package handlers

import (
	"io"
	"log"
	"mime/multipart"

	"recette/internal/services"
	"recette/internal/slug"

	"github.com/gofiber/fiber/v2"
)

// ImageHandler handles HTTP requests for recipe image uploads.
type ImageHandler struct {
	imageService *services.ImageService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(imageService *services.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

// RegisterRoutes registers the image routes; every one requires a session.
func (h *ImageHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	router.Post("/images", authRequired, h.HandleUploadPending)
	router.Post("/recipes/:slug/images", authRequired, h.HandleAddToRecipe)
	router.Put("/recipes/:slug/images/:imageID/main", authRequired, h.HandleSetMain)
	router.Delete("/recipes/:slug/images/:imageID", authRequired, h.HandleDeleteImage)
}

// readBatch extracts the "images" files from a multipart form.
func readBatch(c *fiber.Ctx) ([]services.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	headers := form.File["images"]
	files := make([]services.UploadFile, 0, len(headers))
	for _, header := range headers {
		data, err := readFile(header)
		if err != nil {
			return nil, err
		}
		files = append(files, services.UploadFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

func readFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// HandleUploadPending uploads a batch before the recipe exists. The
// "existing" query parameter tells the server how many images the client's
// form already holds, so the first image of an empty list is flagged main.
// Per-file failures land in the "errors" array; the batch never aborts.
func (h *ImageHandler) HandleUploadPending(c *fiber.Ctx) error {
	files, err := readBatch(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid multipart form",
			"error":   err.Error(),
		})
	}
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "No images in request",
		})
	}

	userID, _ := c.Locals("user_id").(string)
	uploaded, failures := h.imageService.UploadPending(c.Context(), userID, files, c.QueryInt("existing"))

	return c.JSON(fiber.Map{
		"images": uploaded,
		"errors": failures,
	})
}

// HandleAddToRecipe uploads a batch directly onto an existing owned recipe.
func (h *ImageHandler) HandleAddToRecipe(c *fiber.Ctx) error {
	recipeID, err := slug.ParseID(c.Params("slug"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message":  "Recipe not found",
			"redirect": "/recipes",
		})
	}

	files, err := readBatch(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid multipart form",
			"error":   err.Error(),
		})
	}
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "No images in request",
		})
	}

	userID, _ := c.Locals("user_id").(string)
	created, failures := h.imageService.AddToRecipe(c.Context(), userID, recipeID, files)

	return c.JSON(fiber.Map{
		"images": created,
		"errors": failures,
	})
}

// HandleSetMain flags one image as the recipe's main image.
func (h *ImageHandler) HandleSetMain(c *fiber.Ctx) error {
	recipeID, err := slug.ParseID(c.Params("slug"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message":  "Recipe not found",
			"redirect": "/recipes",
		})
	}

	userID, _ := c.Locals("user_id").(string)
	if err := h.imageService.SetMain(userID, recipeID, c.Params("imageID")); err != nil {
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message": "Could not set main image",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Main image updated"})
}

// HandleDeleteImage removes one image: stored object first, then the row.
func (h *ImageHandler) HandleDeleteImage(c *fiber.Ctx) error {
	recipeID, err := slug.ParseID(c.Params("slug"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message":  "Recipe not found",
			"redirect": "/recipes",
		})
	}

	userID, _ := c.Locals("user_id").(string)
	if err := h.imageService.Delete(c.Context(), userID, recipeID, c.Params("imageID")); err != nil {
		log.Printf("Error deleting image %s: %v", c.Params("imageID"), err)
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message": "Could not delete image",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Image deleted"})
}
