package services

import (
	"context"
	"errors"

	"mixologue-backend/internal/imagegen"
	"mixologue-backend/internal/models"

	"go.uber.org/zap"
)

// ImageGenerator produces an image reference for a cocktail. It never fails.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, c imagegen.Cocktail) imagegen.Outcome
}

// ImageService runs the provider chain for stored cocktails.
type ImageService struct {
	cocktails *CocktailService
	generator ImageGenerator
	log       *zap.Logger
}

func NewImageService(cocktails *CocktailService, generator ImageGenerator, log *zap.Logger) *ImageService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImageService{cocktails: cocktails, generator: generator, log: log}
}

// GenerateForCocktail produces an image for the cocktail and records it. The
// default asset is returned without being saved on the record. When the
// cocktail disappears before the image is recorded, the stored asset is
// removed and ErrCocktailNotFound returned; any other recording failure is
// logged and the image is still handed back.
func (s *ImageService) GenerateForCocktail(ctx context.Context, id uint) (*models.Cocktail, imagegen.Outcome, error) {
	cocktail, err := s.cocktails.Get(ctx, id)
	if err != nil {
		return nil, imagegen.Outcome{}, err
	}

	outcome := s.generator.GenerateImage(ctx, cocktail.ImageSubject())
	if outcome.Default {
		return cocktail, outcome, nil
	}

	if err := s.cocktails.AttachImage(ctx, id, outcome.Ref); err != nil {
		if errors.Is(err, ErrCocktailNotFound) {
			s.log.Warn("Cocktail deleted during image generation, discarding image",
				zap.Uint("cocktail_id", id), zap.String("ref", outcome.Ref))
			s.cocktails.removeAsset(ctx, id, outcome.Ref)
			return nil, outcome, err
		}
		s.log.Error("Failed to record generated image",
			zap.Uint("cocktail_id", id), zap.String("ref", outcome.Ref), zap.Error(err))
		return cocktail, outcome, nil
	}
	ref := outcome.Ref
	cocktail.ImagePath = &ref
	return cocktail, outcome, nil
}
