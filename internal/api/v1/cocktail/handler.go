package cocktail

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mixologue-backend/internal/services"
	"mixologue-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	cocktails *services.CocktailService
	images    *services.ImageService
	log       *zap.Logger
}

func NewHandler(cocktails *services.CocktailService, images *services.ImageService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{cocktails: cocktails, images: images, log: log}
}

// GenerateCocktail godoc
// @Summary Generate a cocktail
// @Description Ask the LLM for a cocktail recipe matching a free-text request and store it
// @Tags cocktails
// @Accept json
// @Produce json
// @Param request body GenerateCocktailRequest true "Cocktail request"
// @Success 201 {object} utils.Response{data=models.Cocktail}
// @Failure 400 {object} utils.Response
// @Failure 429 {object} utils.Response
// @Failure 502 {object} utils.Response
// @Failure 503 {object} utils.Response
// @Router /cocktails/generate [post]
func (h *Handler) GenerateCocktail(c *gin.Context) {
	var req GenerateCocktailRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	prompt, err := utils.SanitizePrompt(req.Prompt)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	cocktail, err := h.cocktails.Generate(c.Request.Context(), prompt)
	if err != nil {
		status, message := generationError(err)
		h.log.Warn("Cocktail generation failed", zap.Error(err))
		c.JSON(status, utils.NewErrorResponse(status, message))
		return
	}

	utils.Respond(c, http.StatusCreated, "Cocktail generated successfully", cocktail)
}

func generationError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrEmptyRequest):
		return http.StatusBadRequest, "Prompt is required"
	case errors.Is(err, services.ErrGeneratorDisabled):
		return http.StatusServiceUnavailable, "Cocktail generator is not configured"
	case errors.Is(err, services.ErrInvalidLLMResponse):
		return http.StatusBadGateway, "The cocktail generator returned an unusable answer, please try again"
	case errors.Is(err, services.ErrLLMUnavailable):
		return http.StatusServiceUnavailable, "The cocktail generator is unavailable, please try again later"
	}
	return http.StatusInternalServerError, "Failed to generate cocktail"
}

// ListCocktails godoc
// @Summary List cocktails
// @Description Paginated cocktail history, newest first
// @Tags cocktails
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 50)" default(10)
// @Success 200 {object} utils.Response{data=CocktailListResponse}
// @Failure 500 {object} utils.Response
// @Router /cocktails [get]
func (h *Handler) ListCocktails(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(services.DefaultPerPage)))

	cocktails, pagination, err := h.cocktails.List(c.Request.Context(), page, perPage)
	if err != nil {
		h.log.Error("Failed to list cocktails", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to list cocktails"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Cocktails retrieved successfully", CocktailListResponse{
		Cocktails:  cocktails,
		Pagination: pagination,
	}))
}

// SearchCocktails godoc
// @Summary Search cocktails
// @Description Case-insensitive search on the name or the ingredients
// @Tags cocktails
// @Produce json
// @Param q query string true "Search term"
// @Param field query string false "name or ingredients" default(name)
// @Success 200 {object} utils.Response{data=SearchResponse}
// @Failure 400 {object} utils.Response
// @Router /cocktails/search [get]
func (h *Handler) SearchCocktails(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	field := c.DefaultQuery("field", "name")
	if q == "" {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Query parameter 'q' is required"))
		return
	}

	cocktails, err := h.cocktails.Search(c.Request.Context(), q, field)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSearch) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Field must be 'name' or 'ingredients'"))
			return
		}
		h.log.Error("Failed to search cocktails", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to search cocktails"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Search completed", SearchResponse{
		Cocktails: cocktails,
		Count:     len(cocktails),
		Query:     q,
		Field:     field,
	}))
}

// RecentCocktails godoc
// @Summary Recent cocktails
// @Tags cocktails
// @Produce json
// @Param limit query int false "Number of cocktails (max 50)" default(10)
// @Success 200 {object} utils.Response{data=RecentResponse}
// @Router /cocktails/recent [get]
func (h *Handler) RecentCocktails(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPerPage)))

	cocktails, err := h.cocktails.Recent(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("Failed to load recent cocktails", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to load recent cocktails"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Recent cocktails retrieved successfully", RecentResponse{
		Cocktails: cocktails,
		Count:     len(cocktails),
	}))
}

// GetStats godoc
// @Summary Cocktail statistics
// @Tags cocktails
// @Produce json
// @Success 200 {object} utils.Response{data=models.CocktailStats}
// @Router /cocktails/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.cocktails.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to compute stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to compute statistics"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Statistics retrieved successfully", stats))
}

// GetCocktail godoc
// @Summary Get a cocktail
// @Tags cocktails
// @Produce json
// @Param id path int true "Cocktail ID"
// @Success 200 {object} utils.Response{data=models.Cocktail}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /cocktails/{id} [get]
func (h *Handler) GetCocktail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	cocktail, err := h.cocktails.Get(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Cocktail retrieved successfully", cocktail))
}

// DeleteCocktail godoc
// @Summary Delete a cocktail
// @Description Delete a cocktail and the generated image it owns
// @Tags cocktails
// @Produce json
// @Param id path int true "Cocktail ID"
// @Success 200 {object} utils.Response{data=DeleteResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /cocktails/{id} [delete]
func (h *Handler) DeleteCocktail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	cocktail, imageRemoved, err := h.cocktails.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	message := "Cocktail deleted successfully"
	if imageRemoved {
		message = "Cocktail and its image deleted successfully"
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse(message, DeleteResponse{
		ID:           cocktail.ID,
		Name:         cocktail.Name,
		ImageRemoved: imageRemoved,
	}))
}

// GenerateImage godoc
// @Summary Generate an image for a cocktail
// @Description Run the image provider chain. When every provider fails the default image is returned with is_default=true.
// @Tags images
// @Accept json
// @Produce json
// @Param request body GenerateImageRequest true "Cocktail to illustrate"
// @Success 200 {object} utils.Response{data=ImageResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 429 {object} utils.Response
// @Router /cocktails/generate-image [post]
func (h *Handler) GenerateImage(c *gin.Context) {
	var req GenerateImageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	h.generateImage(c, req.CocktailID)
}

// GenerateImageForCocktail godoc
// @Summary Generate an image for a cocktail
// @Description Same as /cocktails/generate-image with the id in the path
// @Tags images
// @Produce json
// @Param id path int true "Cocktail ID"
// @Success 200 {object} utils.Response{data=ImageResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 429 {object} utils.Response
// @Router /cocktails/{id}/image [post]
func (h *Handler) GenerateImageForCocktail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	h.generateImage(c, id)
}

func (h *Handler) generateImage(c *gin.Context, id uint) {
	cocktail, outcome, err := h.images.GenerateForCocktail(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	message := "Image generated successfully"
	if outcome.Default {
		message = "No image provider succeeded, default image returned"
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse(message, ImageResponse{
		ImageURL:     outcome.Ref,
		Provider:     outcome.Provider,
		IsDefault:    outcome.Default,
		CocktailID:   cocktail.ID,
		CocktailName: cocktail.Name,
		Attempts:     outcome.Attempts,
	}))
}

func (h *Handler) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrCocktailNotFound) {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Cocktail not found"))
		return
	}
	h.log.Error("Cocktail lookup failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Internal server error"))
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid cocktail ID"))
		return 0, false
	}
	return uint(id), true
}
