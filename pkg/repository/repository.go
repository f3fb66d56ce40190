// Package repository provides a generic gorm-backed data access layer with
// an LRU read cache and specification-based querying.
package repository

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/apiforge/apiforge/pkg/reqctx"
	"github.com/apiforge/apiforge/pkg/specification"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// Model is implemented by pointers to entities embedding entity.Base.
type Model interface {
	GetID() uint
	GetURN() string
	MarkDeleted()
}

// Repository is a generic data access object for one entity type. T is the
// entity struct and PT its pointer, which carries the Model methods.
type Repository[T any, PT interface {
	*T
	Model
}] struct {
	db     *gorm.DB
	logger *zap.Logger
	cache  *lru.Cache[string, PT]
}

// Options tunes repository behavior.
type Options struct {
	// CacheSize enables the URN read cache when positive.
	CacheSize int
	Logger    *zap.Logger
}

// New creates a repository. A zero Options disables caching and logging.
func New[T any, PT interface {
	*T
	Model
}](db *gorm.DB, opts Options) *Repository[T, PT] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var cache *lru.Cache[string, PT]
	if opts.CacheSize > 0 {
		// lru.New only fails on non-positive sizes.
		cache, _ = lru.New[string, PT](opts.CacheSize)
	}

	return &Repository[T, PT]{db: db, logger: logger, cache: cache}
}

// session returns the gorm handle for this request, preferring an active
// transaction from the request context.
func (r *Repository[T, PT]) session(ctx context.Context) *gorm.DB {
	if tx, ok := reqctx.Transaction(ctx); ok && tx != nil {
		if db := tx.GetDB(); db != nil {
			return db.WithContext(ctx)
		}
	}
	return r.db.WithContext(ctx)
}

func (r *Repository[T, PT]) observe(start time.Time, op string) {
	r.logger.Debug("repository operation",
		zap.String("op", op),
		zap.Duration("elapsed", time.Since(start)))
}

// Create inserts a record.
func (r *Repository[T, PT]) Create(ctx context.Context, entity PT) error {
	defer r.observe(time.Now(), "create")
	return r.session(ctx).Create(entity).Error
}

// FindByID loads a record by primary key, excluding soft-deleted rows.
func (r *Repository[T, PT]) FindByID(ctx context.Context, id uint) (PT, error) {
	defer r.observe(time.Now(), "find_by_id")

	entity := PT(new(T))
	err := r.session(ctx).Where("id = ? AND is_deleted = ?", id, false).First(entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// FindByURN loads a record by URN, consulting the read cache first.
func (r *Repository[T, PT]) FindByURN(ctx context.Context, urn string) (PT, error) {
	defer r.observe(time.Now(), "find_by_urn")

	if r.cache != nil {
		if cached, ok := r.cache.Get(urn); ok {
			return cached, nil
		}
	}

	entity := PT(new(T))
	err := r.session(ctx).Where("urn = ? AND is_deleted = ?", urn, false).First(entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.Add(urn, entity)
	}
	return entity, nil
}

// Update persists all fields of an existing record and invalidates its
// cache entry.
func (r *Repository[T, PT]) Update(ctx context.Context, entity PT) error {
	defer r.observe(time.Now(), "update")

	if err := r.session(ctx).Save(entity).Error; err != nil {
		return err
	}
	if r.cache != nil {
		r.cache.Remove(entity.GetURN())
	}
	return nil
}

// Delete soft-deletes a record: the IsDeleted flag is set so URN lookups
// fail closed, then the gorm DeletedAt tombstone is written.
func (r *Repository[T, PT]) Delete(ctx context.Context, entity PT) error {
	defer r.observe(time.Now(), "delete")

	entity.MarkDeleted()
	if err := r.session(ctx).Save(entity).Error; err != nil {
		return err
	}
	if err := r.session(ctx).Delete(entity).Error; err != nil {
		return err
	}
	if r.cache != nil {
		r.cache.Remove(entity.GetURN())
	}
	return nil
}

// List returns records matching the query, excluding soft-deleted rows.
// A nil query returns all live records.
func (r *Repository[T, PT]) List(ctx context.Context, query *specification.Query) ([]PT, error) {
	defer r.observe(time.Now(), "list")

	db := r.session(ctx).Where("is_deleted = ?", false)
	if query != nil {
		db = db.Scopes(query.Scope())
	}

	var entities []PT
	if err := db.Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// Count returns the number of live records matching the query filters.
// Ordering and pagination are not applied when counting.
func (r *Repository[T, PT]) Count(ctx context.Context, query *specification.Query) (int64, error) {
	defer r.observe(time.Now(), "count")

	db := r.session(ctx).Model(PT(new(T))).Where("is_deleted = ?", false)
	if query != nil {
		db = db.Scopes(query.FilterScope())
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
