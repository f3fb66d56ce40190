package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/apiforge/apiforge/pkg/entity"
	"github.com/apiforge/apiforge/pkg/specification"
)

type widget struct {
	entity.Base
	Name  string
	Price int64
}

func (w *widget) BeforeCreate(tx *gorm.DB) error {
	if w.URN == "" {
		w.URN = entity.NewURN("widget")
	}
	return nil
}

func repoDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func TestCreateAndFind(t *testing.T) {
	repo := New[widget](repoDB(t), Options{})
	ctx := context.Background()

	w := &widget{Name: "sprocket", Price: 500}
	require.NoError(t, repo.Create(ctx, w))
	require.NotZero(t, w.ID)
	require.Contains(t, w.URN, "urn:widget:")

	byID, err := repo.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "sprocket", byID.Name)

	byURN, err := repo.FindByURN(ctx, w.URN)
	require.NoError(t, err)
	assert.Equal(t, w.ID, byURN.ID)
}

func TestFindMissing(t *testing.T) {
	repo := New[widget](repoDB(t), Options{})
	ctx := context.Background()

	_, err := repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByURN(ctx, "urn:widget:missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate(t *testing.T) {
	repo := New[widget](repoDB(t), Options{CacheSize: 8})
	ctx := context.Background()

	w := &widget{Name: "gear", Price: 100}
	require.NoError(t, repo.Create(ctx, w))

	// prime the cache, then make sure the update invalidates it
	_, err := repo.FindByURN(ctx, w.URN)
	require.NoError(t, err)

	w.Price = 250
	require.NoError(t, repo.Update(ctx, w))

	fresh, err := repo.FindByURN(ctx, w.URN)
	require.NoError(t, err)
	assert.Equal(t, int64(250), fresh.Price)
}

func TestDeleteHidesRecord(t *testing.T) {
	repo := New[widget](repoDB(t), Options{CacheSize: 8})
	ctx := context.Background()

	w := &widget{Name: "cog", Price: 75}
	require.NoError(t, repo.Create(ctx, w))
	_, err := repo.FindByURN(ctx, w.URN)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, w))

	_, err = repo.FindByID(ctx, w.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindByURN(ctx, w.URN)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndCountWithQuery(t *testing.T) {
	repo := New[widget](repoDB(t), Options{})
	ctx := context.Background()

	for _, w := range []*widget{
		{Name: "bolt", Price: 10},
		{Name: "nut", Price: 5},
		{Name: "washer", Price: 2},
	} {
		require.NoError(t, repo.Create(ctx, w))
	}

	q := specification.NewQuery().Where("price", specification.OpGreaterOrEqual, 5).OrderByDesc("price")
	items, err := repo.List(ctx, q)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "bolt", items[0].Name)

	count, err := repo.Count(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestListExcludesDeleted(t *testing.T) {
	repo := New[widget](repoDB(t), Options{})
	ctx := context.Background()

	keep := &widget{Name: "keep"}
	drop := &widget{Name: "drop"}
	require.NoError(t, repo.Create(ctx, keep))
	require.NoError(t, repo.Create(ctx, drop))
	require.NoError(t, repo.Delete(ctx, drop))

	items, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "keep", items[0].Name)
}

func TestCachedReadServedWithoutDatabase(t *testing.T) {
	db := repoDB(t)
	repo := New[widget](db, Options{CacheSize: 8})
	ctx := context.Background()

	w := &widget{Name: "flywheel"}
	require.NoError(t, repo.Create(ctx, w))

	_, err := repo.FindByURN(ctx, w.URN)
	require.NoError(t, err)

	// bypass the repository so the cache is now stale
	require.NoError(t, db.Exec("DELETE FROM widgets").Error)

	cached, err := repo.FindByURN(ctx, w.URN)
	require.NoError(t, err)
	assert.Equal(t, "flywheel", cached.Name)
}
