package cocktail

import (
	"mixologue-backend/internal/imagegen"
	"mixologue-backend/internal/models"
	"mixologue-backend/internal/services"
)

type GenerateCocktailRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type GenerateImageRequest struct {
	CocktailID uint `json:"cocktail_id" binding:"required,gt=0"`
}

type CocktailListResponse struct {
	Cocktails  []models.Cocktail   `json:"cocktails"`
	Pagination services.Pagination `json:"pagination"`
}

type SearchResponse struct {
	Cocktails []models.Cocktail `json:"cocktails"`
	Count     int               `json:"count"`
	Query     string            `json:"query"`
	Field     string            `json:"field"`
}

type RecentResponse struct {
	Cocktails []models.Cocktail `json:"cocktails"`
	Count     int               `json:"count"`
}

type DeleteResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ImageRemoved bool   `json:"image_removed"`
}

// ImageResponse reports the chain outcome. IsDefault means every provider
// failed and ImageURL is the bundled placeholder.
type ImageResponse struct {
	ImageURL     string             `json:"image_url"`
	Provider     string             `json:"provider,omitempty"`
	IsDefault    bool               `json:"is_default"`
	CocktailID   uint               `json:"cocktail_id"`
	CocktailName string             `json:"cocktail_name"`
	Attempts     []imagegen.Attempt `json:"attempts"`
}
