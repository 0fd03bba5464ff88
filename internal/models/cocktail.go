package models

import (
	"time"

	"mixologue-backend/internal/imagegen"

	"gorm.io/datatypes"
)

// Cocktail is a recipe produced by the LLM for one user request.
type Cocktail struct {
	ID            uint                        `gorm:"primarykey" json:"id"`
	Name          string                      `gorm:"size:200;not null;index" json:"name"`
	Ingredients   datatypes.JSONSlice[string] `gorm:"not null" json:"ingredients" swaggertype:"array,string"`
	Description   string                      `gorm:"type:text;not null" json:"description"`
	MusicAmbiance string                      `gorm:"type:text;not null" json:"music_ambiance"`
	ImagePrompt   string                      `gorm:"type:text" json:"image_prompt"`
	UserPrompt    string                      `gorm:"type:text;not null" json:"user_prompt"`
	ImagePath     *string                     `gorm:"size:500" json:"image_path"`
	CreatedAt     time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// TableName overrides the table name
func (Cocktail) TableName() string {
	return "cocktails"
}

// ImageSubject returns the fields the image chain reads.
func (c *Cocktail) ImageSubject() imagegen.Cocktail {
	return imagegen.Cocktail{
		ID:          c.ID,
		Name:        c.Name,
		Ingredients: []string(c.Ingredients),
		Description: c.Description,
		ImagePrompt: c.ImagePrompt,
	}
}

// CocktailStats summarises the stored history.
type CocktailStats struct {
	Total        int64      `json:"total"`
	FirstCreated *time.Time `json:"first_created"`
	LastCreated  *time.Time `json:"last_created"`
}
