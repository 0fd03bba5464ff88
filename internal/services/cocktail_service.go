package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"mixologue-backend/internal/cache"
	"mixologue-backend/internal/metrics"
	"mixologue-backend/internal/models"
	"mixologue-backend/internal/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	CocktailCacheKeyPrefix = "cocktail:id:"
	CocktailCacheDuration  = 24 * time.Hour

	DefaultPerPage = 10
	MaxPerPage     = 50
	MaxSearchItems = 50
)

var (
	ErrCocktailNotFound  = fmt.Errorf("cocktail not found: %w", gorm.ErrRecordNotFound)
	ErrInvalidSearch     = errors.New("invalid search field")
	ErrGeneratorDisabled = fmt.Errorf("%w: no API key configured", ErrLLMUnavailable)
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// NormalizePage clamps page to >= 1 and perPage to [1, MaxPerPage]; zero or
// negative perPage selects the default.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// CocktailService owns the cocktail history.
type CocktailService struct {
	db        *gorm.DB
	cache     cache.Cache
	store     storage.Store
	generator CocktailGenerator
	log       *zap.Logger
}

// NewCocktailService wires the repository. cache, store and generator may be
// nil.
func NewCocktailService(db *gorm.DB, c cache.Cache, store storage.Store, generator CocktailGenerator, log *zap.Logger) *CocktailService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CocktailService{
		db:        db,
		cache:     c,
		store:     store,
		generator: generator,
		log:       log,
	}
}

// GeneratorConfigured reports whether Generate can reach an LLM.
func (s *CocktailService) GeneratorConfigured() bool {
	return s.generator != nil
}

// Generate asks the LLM for a recipe and stores it.
func (s *CocktailService) Generate(ctx context.Context, userPrompt string) (*models.Cocktail, error) {
	if s.generator == nil {
		metrics.CocktailGenerations.WithLabelValues("unavailable").Inc()
		return nil, ErrGeneratorDisabled
	}

	generated, err := s.generator.GenerateCocktail(ctx, userPrompt)
	if err != nil {
		result := "error"
		if errors.Is(err, ErrInvalidLLMResponse) {
			result = "invalid"
		}
		metrics.CocktailGenerations.WithLabelValues(result).Inc()
		return nil, err
	}

	cocktail, err := s.Create(ctx, generated, userPrompt)
	if err != nil {
		metrics.CocktailGenerations.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.CocktailGenerations.WithLabelValues("success").Inc()
	return cocktail, nil
}

// Create persists a generated recipe.
func (s *CocktailService) Create(ctx context.Context, generated *GeneratedCocktail, userPrompt string) (*models.Cocktail, error) {
	ingredients := generated.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	cocktail := &models.Cocktail{
		Name:          generated.Name,
		Ingredients:   ingredients,
		Description:   generated.Description,
		MusicAmbiance: generated.MusicAmbiance,
		ImagePrompt:   generated.ImagePrompt,
		UserPrompt:    userPrompt,
	}
	if err := s.db.WithContext(ctx).Create(cocktail).Error; err != nil {
		return nil, fmt.Errorf("failed to save cocktail: %w", err)
	}
	s.log.Info("Cocktail saved", zap.Uint("cocktail_id", cocktail.ID), zap.String("name", cocktail.Name))
	return cocktail, nil
}

// Get loads one cocktail, reading through the cache.
func (s *CocktailService) Get(ctx context.Context, id uint) (*models.Cocktail, error) {
	key := cacheKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var cocktail models.Cocktail
			if err := json.Unmarshal(data, &cocktail); err == nil {
				return &cocktail, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	var cocktail models.Cocktail
	if err := s.db.WithContext(ctx).First(&cocktail, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCocktailNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(cocktail); err == nil {
			if err := s.cache.Set(ctx, key, data, CocktailCacheDuration); err != nil {
				s.log.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return &cocktail, nil
}

// List returns cocktails newest first.
func (s *CocktailService) List(ctx context.Context, page, perPage int) ([]models.Cocktail, Pagination, error) {
	page, perPage = NormalizePage(page, perPage)

	var total int64
	db := s.db.WithContext(ctx).Model(&models.Cocktail{})
	if err := db.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	cocktails := []models.Cocktail{}
	offset := (page - 1) * perPage
	if err := db.Offset(offset).Limit(perPage).Order("created_at desc, id desc").Find(&cocktails).Error; err != nil {
		return nil, Pagination{}, err
	}

	pages := int(math.Ceil(float64(total) / float64(perPage)))
	return cocktails, Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}, nil
}

// Search matches term case-insensitively against the name or the
// ingredients, newest first.
func (s *CocktailService) Search(ctx context.Context, term, field string) ([]models.Cocktail, error) {
	var column string
	switch field {
	case "", "name":
		column = "LOWER(name)"
	case "ingredients":
		column = "LOWER(CAST(ingredients AS TEXT))"
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSearch, field)
	}

	cocktails := []models.Cocktail{}
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	err := s.db.WithContext(ctx).
		Where(column+" LIKE ?", pattern).
		Order("created_at desc, id desc").
		Limit(MaxSearchItems).
		Find(&cocktails).Error
	return cocktails, err
}

// Recent returns the last limit cocktails.
func (s *CocktailService) Recent(ctx context.Context, limit int) ([]models.Cocktail, error) {
	if limit < 1 {
		limit = DefaultPerPage
	}
	if limit > MaxPerPage {
		limit = MaxPerPage
	}
	cocktails := []models.Cocktail{}
	err := s.db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit).Find(&cocktails).Error
	return cocktails, err
}

// Stats reports the history size and its time span.
func (s *CocktailService) Stats(ctx context.Context) (*models.CocktailStats, error) {
	stats := &models.CocktailStats{}
	db := s.db.WithContext(ctx).Model(&models.Cocktail{})
	if err := db.Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if stats.Total == 0 {
		return stats, nil
	}

	var first, last models.Cocktail
	if err := s.db.WithContext(ctx).Order("created_at asc, id asc").First(&first).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Order("created_at desc, id desc").First(&last).Error; err != nil {
		return nil, err
	}
	stats.FirstCreated = &first.CreatedAt
	stats.LastCreated = &last.CreatedAt
	return stats, nil
}

// AttachImage records the asset produced for a cocktail. It is the only
// update a stored cocktail receives. A previous asset owned by the store is
// removed once the new reference is saved.
func (s *CocktailService) AttachImage(ctx context.Context, id uint, ref string) error {
	var existing models.Cocktail
	if err := s.db.WithContext(ctx).Select("id", "image_path").First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCocktailNotFound
		}
		return err
	}

	res := s.db.WithContext(ctx).Model(&models.Cocktail{}).Where("id = ?", id).Update("image_path", ref)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCocktailNotFound
	}
	s.invalidate(ctx, id)

	if existing.ImagePath != nil && *existing.ImagePath != ref {
		s.removeAsset(ctx, id, *existing.ImagePath)
	}
	return nil
}

// Delete removes a cocktail and the image file it owns. imageRemoved is true
// when a stored asset was deleted too.
func (s *CocktailService) Delete(ctx context.Context, id uint) (cocktail *models.Cocktail, imageRemoved bool, err error) {
	var existing models.Cocktail
	if err := s.db.WithContext(ctx).First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrCocktailNotFound
		}
		return nil, false, err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Cocktail{}, id).Error; err != nil {
		return nil, false, err
	}
	s.invalidate(ctx, id)

	if existing.ImagePath != nil {
		imageRemoved = s.removeAsset(ctx, id, *existing.ImagePath)
	}

	s.log.Info("Cocktail deleted", zap.Uint("cocktail_id", id), zap.Bool("image_removed", imageRemoved))
	return &existing, imageRemoved, nil
}

// Ping checks the database connection.
func (s *CocktailService) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// removeAsset deletes ref when the store owns it. Foreign URLs and the
// default asset are left alone.
func (s *CocktailService) removeAsset(ctx context.Context, id uint, ref string) bool {
	if s.store == nil || ref == "" || !s.store.Owns(ref) {
		return false
	}
	removed, err := s.store.Delete(ctx, ref)
	if err != nil {
		s.log.Warn("Failed to delete cocktail image",
			zap.Uint("cocktail_id", id), zap.String("ref", ref), zap.Error(err))
	}
	return removed
}

func (s *CocktailService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.log.Warn("Cache invalidation failed", zap.Uint("cocktail_id", id), zap.Error(err))
	}
}

func cacheKey(id uint) string {
	return fmt.Sprintf("%s%d", CocktailCacheKeyPrefix, id)
}
