package specification

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type item struct {
	ID       uint `gorm:"primarykey"`
	Name     string
	Price    int64
	Category string
	Note     *string
}

func queryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&item{}))

	note := "fragile"
	require.NoError(t, db.Create([]*item{
		{Name: "anvil", Price: 5000, Category: "tools", Note: &note},
		{Name: "hammer", Price: 1200, Category: "tools"},
		{Name: "apple", Price: 100, Category: "food"},
		{Name: "bread", Price: 250, Category: "food"},
	}).Error)
	return db
}

func TestQueryEqualAndOrder(t *testing.T) {
	db := queryDB(t)

	var items []item
	q := NewQuery().Where("category", OpEqual, "food").OrderByDesc("price")
	require.NoError(t, db.Scopes(q.Scope()).Find(&items).Error)

	require.Len(t, items, 2)
	assert.Equal(t, "bread", items[0].Name)
	assert.Equal(t, "apple", items[1].Name)
}

func TestQueryRangeOperators(t *testing.T) {
	db := queryDB(t)

	var items []item
	q := NewQuery().WhereBetween("price", 200, 2000).OrderBy("price")
	require.NoError(t, db.Scopes(q.Scope()).Find(&items).Error)

	require.Len(t, items, 2)
	assert.Equal(t, "bread", items[0].Name)
	assert.Equal(t, "hammer", items[1].Name)
}

func TestQueryLikeWrapsPattern(t *testing.T) {
	db := queryDB(t)

	var items []item
	q := NewQuery().Where("name", OpLike, "am")
	require.NoError(t, db.Scopes(q.Scope()).Find(&items).Error)

	require.Len(t, items, 1)
	assert.Equal(t, "hammer", items[0].Name)
}

func TestQueryIn(t *testing.T) {
	db := queryDB(t)

	var items []item
	q := NewQuery().Where("name", OpIn, []string{"anvil", "apple"}).OrderBy("name")
	require.NoError(t, db.Scopes(q.Scope()).Find(&items).Error)

	require.Len(t, items, 2)
	assert.Equal(t, "anvil", items[0].Name)
}

func TestQueryIsNull(t *testing.T) {
	db := queryDB(t)

	var items []item
	q := NewQuery().WhereNull("note").Where("category", OpEqual, "tools")
	require.NoError(t, db.Scopes(q.Scope()).Find(&items).Error)

	require.Len(t, items, 1)
	assert.Equal(t, "hammer", items[0].Name)
}

func TestQueryPagination(t *testing.T) {
	db := queryDB(t)

	var items []item
	q := NewQuery().OrderBy("price").Paginate(2, 2)
	require.NoError(t, db.Scopes(q.Scope()).Find(&items).Error)

	require.Len(t, items, 2)
	assert.Equal(t, "hammer", items[0].Name)
	assert.Equal(t, "anvil", items[1].Name)
}
