package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mixologue-backend/internal/cache"
	"mixologue-backend/internal/imagegen"
	"mixologue-backend/internal/models"
	"mixologue-backend/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.Cocktail{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

type stubGenerator struct {
	cocktail *GeneratedCocktail
	err      error
}

func (g *stubGenerator) GenerateCocktail(ctx context.Context, userRequest string) (*GeneratedCocktail, error) {
	return g.cocktail, g.err
}

func seedCocktails(t *testing.T, svc *CocktailService, names ...string) []*models.Cocktail {
	t.Helper()
	created := make([]*models.Cocktail, 0, len(names))
	for i, name := range names {
		c, err := svc.Create(context.Background(), &GeneratedCocktail{
			Name:          name,
			Ingredients:   []string{"4 cl rhum", "citron vert"},
			Description:   "desc",
			MusicAmbiance: "jazz",
		}, "prompt")
		assert.NoError(t, err)
		// Distinct timestamps keep the ordering stable.
		svc.db.Model(c).UpdateColumn("created_at", time.Now().Add(time.Duration(i)*time.Second))
		created = append(created, c)
	}
	return created
}

func TestCocktailService_GenerateAndGet(t *testing.T) {
	db := setupTestDB(t)
	gen := &stubGenerator{cocktail: &GeneratedCocktail{
		Name:          "Soleil Couchant",
		Ingredients:   []string{"4 cl rhum blanc", "jus d'ananas"},
		Description:   "tropical sunset",
		MusicAmbiance: "bossa nova",
		ImagePrompt:   "a sunset cocktail",
	}}
	svc := NewCocktailService(db, cache.NewMemoryCache(time.Hour, time.Minute), nil, gen, zap.NewNop())

	created, err := svc.Generate(context.Background(), "quelque chose de tropical")
	assert.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "quelque chose de tropical", created.UserPrompt)
	assert.Nil(t, created.ImagePath)

	got, err := svc.Get(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Soleil Couchant", got.Name)
	assert.Equal(t, []string{"4 cl rhum blanc", "jus d'ananas"}, []string(got.Ingredients))

	_, err = svc.Get(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrCocktailNotFound)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCocktailService_GenerateErrors(t *testing.T) {
	db := setupTestDB(t)

	svc := NewCocktailService(db, nil, nil, nil, zap.NewNop())
	_, err := svc.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrLLMUnavailable)
	assert.False(t, svc.GeneratorConfigured())

	svc = NewCocktailService(db, nil, nil, &stubGenerator{err: ErrInvalidLLMResponse}, zap.NewNop())
	_, err = svc.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrInvalidLLMResponse)

	var count int64
	db.Model(&models.Cocktail{}).Count(&count)
	assert.Zero(t, count)
}

func TestCocktailService_List(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCocktailService(db, nil, nil, nil, zap.NewNop())
	seedCocktails(t, svc, "A", "B", "C", "D", "E")

	tests := []struct {
		name          string
		page, perPage int
		expectedNames []string
		expected      Pagination
	}{
		{"first page", 1, 2, []string{"E", "D"}, Pagination{Page: 1, PerPage: 2, Total: 5, Pages: 3, HasNext: true, HasPrev: false}},
		{"last page", 3, 2, []string{"A"}, Pagination{Page: 3, PerPage: 2, Total: 5, Pages: 3, HasNext: false, HasPrev: true}},
		{"beyond last page", 9, 2, []string{}, Pagination{Page: 9, PerPage: 2, Total: 5, Pages: 3, HasNext: false, HasPrev: true}},
		{"page clamped", 0, 0, []string{"E", "D", "C", "B", "A"}, Pagination{Page: 1, PerPage: 10, Total: 5, Pages: 1}},
		{"per_page clamped", 1, 500, []string{"E", "D", "C", "B", "A"}, Pagination{Page: 1, PerPage: 50, Total: 5, Pages: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cocktails, pagination, err := svc.List(context.Background(), tt.page, tt.perPage)
			assert.NoError(t, err)
			names := []string{}
			for _, c := range cocktails {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.expectedNames, names)
			assert.Equal(t, tt.expected, pagination)
		})
	}
}

func TestCocktailService_SearchRecentStats(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCocktailService(db, nil, nil, nil, zap.NewNop())

	stats, err := svc.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)
	assert.Nil(t, stats.FirstCreated)

	seedCocktails(t, svc, "Mojito Royal", "Blue Lagoon", "Mojito Classique")

	found, err := svc.Search(context.Background(), "MOJITO", "name")
	assert.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "Mojito Classique", found[0].Name)

	found, err = svc.Search(context.Background(), "Rhum", "ingredients")
	assert.NoError(t, err)
	assert.Len(t, found, 3)

	_, err = svc.Search(context.Background(), "x", "description")
	assert.ErrorIs(t, err, ErrInvalidSearch)

	recent, err := svc.Recent(context.Background(), 1)
	assert.NoError(t, err)
	assert.Len(t, recent, 1)
	assert.Equal(t, "Mojito Classique", recent[0].Name)

	stats, err = svc.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.True(t, stats.FirstCreated.Before(*stats.LastCreated))
}

func TestCocktailService_AttachImageInvalidatesCache(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	db := setupTestDB(t)
	c := cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	svc := NewCocktailService(db, c, nil, nil, zap.NewNop())
	created := seedCocktails(t, svc, "Negroni")[0]

	_, err = svc.Get(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.True(t, mr.Exists(cacheKey(created.ID)))
	ttl := mr.TTL(cacheKey(created.ID))
	assert.Equal(t, CocktailCacheDuration, ttl)

	assert.NoError(t, svc.AttachImage(context.Background(), created.ID, "/images/n.png"))
	assert.False(t, mr.Exists(cacheKey(created.ID)))

	got, err := svc.Get(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, "/images/n.png", *got.ImagePath)

	assert.ErrorIs(t, svc.AttachImage(context.Background(), 9999, "/images/x.png"), ErrCocktailNotFound)
}

func TestCocktailService_Delete(t *testing.T) {
	db := setupTestDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), "/images")
	assert.NoError(t, err)
	svc := NewCocktailService(db, cache.NewMemoryCache(time.Hour, time.Minute), store, nil, zap.NewNop())

	created := seedCocktails(t, svc, "With image", "Default image", "No image")
	ref, err := store.Save(context.Background(), "cocktail_1.png", []byte("png"), "image/png")
	assert.NoError(t, err)
	assert.NoError(t, svc.AttachImage(context.Background(), created[0].ID, ref))
	assert.NoError(t, svc.AttachImage(context.Background(), created[1].ID, "/static/default.webp"))

	tests := []struct {
		name           string
		id             uint
		expectedRemove bool
	}{
		{"owned image is removed", created[0].ID, true},
		{"foreign image is left alone", created[1].ID, false},
		{"no image", created[2].ID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted, removed, err := svc.Delete(context.Background(), tt.id)
			assert.NoError(t, err)
			assert.Equal(t, tt.id, deleted.ID)
			assert.Equal(t, tt.expectedRemove, removed)

			_, err = svc.Get(context.Background(), tt.id)
			assert.True(t, errors.Is(err, ErrCocktailNotFound))
		})
	}

	_, _, err = svc.Delete(context.Background(), created[0].ID)
	assert.ErrorIs(t, err, ErrCocktailNotFound)
}

type stubImageGenerator struct {
	outcome imagegen.Outcome
	got     imagegen.Cocktail
}

func (g *stubImageGenerator) GenerateImage(ctx context.Context, c imagegen.Cocktail) imagegen.Outcome {
	g.got = c
	return g.outcome
}

func TestImageService_GenerateForCocktail(t *testing.T) {
	db := setupTestDB(t)
	cocktails := NewCocktailService(db, nil, nil, nil, zap.NewNop())
	created := seedCocktails(t, cocktails, "Zombie")[0]

	gen := &stubImageGenerator{outcome: imagegen.Outcome{Ref: "/img/42.png", Provider: "stablediffusion"}}
	svc := NewImageService(cocktails, gen, zap.NewNop())

	cocktail, outcome, err := svc.GenerateForCocktail(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, "/img/42.png", outcome.Ref)
	assert.Equal(t, "/img/42.png", *cocktail.ImagePath)
	assert.Equal(t, "Zombie", gen.got.Name)
	assert.Equal(t, []string{"4 cl rhum", "citron vert"}, gen.got.Ingredients)

	stored, err := cocktails.Get(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, "/img/42.png", *stored.ImagePath)
}

func TestImageService_DefaultIsNotRecorded(t *testing.T) {
	db := setupTestDB(t)
	cocktails := NewCocktailService(db, nil, nil, nil, zap.NewNop())
	created := seedCocktails(t, cocktails, "Zombie")[0]

	gen := &stubImageGenerator{outcome: imagegen.Outcome{Ref: "/images/default.webp", Default: true}}
	svc := NewImageService(cocktails, gen, zap.NewNop())

	cocktail, outcome, err := svc.GenerateForCocktail(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.True(t, outcome.Default)
	assert.Nil(t, cocktail.ImagePath)

	_, _, err = svc.GenerateForCocktail(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrCocktailNotFound)
}

func TestCocktailService_AttachImageReplacesOwnedAsset(t *testing.T) {
	db := setupTestDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), "/images")
	assert.NoError(t, err)
	svc := NewCocktailService(db, nil, store, nil, zap.NewNop())
	created := seedCocktails(t, svc, "Mai Tai")[0]

	first, err := store.Save(context.Background(), "cocktail_1_a.png", []byte("a"), "image/png")
	assert.NoError(t, err)
	second, err := store.Save(context.Background(), "cocktail_1_b.png", []byte("b"), "image/png")
	assert.NoError(t, err)

	assert.NoError(t, svc.AttachImage(context.Background(), created.ID, first))
	// Re-attaching the same reference keeps the file.
	assert.NoError(t, svc.AttachImage(context.Background(), created.ID, first))
	assert.FileExists(t, filepath.Join(store.Dir(), "cocktail_1_a.png"))

	assert.NoError(t, svc.AttachImage(context.Background(), created.ID, second))
	assert.NoFileExists(t, filepath.Join(store.Dir(), "cocktail_1_a.png"))
	assert.FileExists(t, filepath.Join(store.Dir(), "cocktail_1_b.png"))

	// A remote URL replaces the owned asset, which is removed too.
	assert.NoError(t, svc.AttachImage(context.Background(), created.ID, "https://cdn.example.com/x.png"))
	assert.NoFileExists(t, filepath.Join(store.Dir(), "cocktail_1_b.png"))

	got, err := svc.Get(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/x.png", *got.ImagePath)
}

type funcImageGenerator func(ctx context.Context, c imagegen.Cocktail) imagegen.Outcome

func (f funcImageGenerator) GenerateImage(ctx context.Context, c imagegen.Cocktail) imagegen.Outcome {
	return f(ctx, c)
}

func TestImageService_CocktailDeletedDuringGeneration(t *testing.T) {
	db := setupTestDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), "/images")
	assert.NoError(t, err)
	cocktails := NewCocktailService(db, nil, store, nil, zap.NewNop())
	created := seedCocktails(t, cocktails, "Zombie")[0]

	gen := funcImageGenerator(func(ctx context.Context, c imagegen.Cocktail) imagegen.Outcome {
		ref, err := store.Save(ctx, "cocktail_1_openai.png", []byte("png"), "image/png")
		assert.NoError(t, err)
		db.Delete(&models.Cocktail{}, c.ID)
		return imagegen.Outcome{Ref: ref, Provider: "openai"}
	})
	svc := NewImageService(cocktails, gen, zap.NewNop())

	cocktail, outcome, err := svc.GenerateForCocktail(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrCocktailNotFound)
	assert.Nil(t, cocktail)
	assert.Equal(t, "/images/cocktail_1_openai.png", outcome.Ref)
	assert.NoFileExists(t, filepath.Join(store.Dir(), "cocktail_1_openai.png"))
}

func TestImageService_RecordFailureStillReturnsImage(t *testing.T) {
	db := setupTestDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), "/images")
	assert.NoError(t, err)
	cocktails := NewCocktailService(db, nil, store, nil, zap.NewNop())
	created := seedCocktails(t, cocktails, "Zombie")[0]

	gen := funcImageGenerator(func(ctx context.Context, c imagegen.Cocktail) imagegen.Outcome {
		ref, err := store.Save(ctx, "cocktail_1_local.png", []byte("png"), "image/png")
		assert.NoError(t, err)
		assert.NoError(t, db.Migrator().DropTable(&models.Cocktail{}))
		return imagegen.Outcome{Ref: ref, Provider: "stablediffusion"}
	})
	svc := NewImageService(cocktails, gen, zap.NewNop())

	cocktail, outcome, err := svc.GenerateForCocktail(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Zombie", cocktail.Name)
	assert.Nil(t, cocktail.ImagePath)
	assert.Equal(t, "/images/cocktail_1_local.png", outcome.Ref)
	assert.FileExists(t, filepath.Join(store.Dir(), "cocktail_1_local.png"))
}
