package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/apiforge/apiforge/pkg/dto"
	"github.com/apiforge/apiforge/pkg/events"
	"github.com/apiforge/apiforge/pkg/model"
	"github.com/apiforge/apiforge/pkg/repository"
	"github.com/apiforge/apiforge/pkg/uow"
)

func newProductService(t *testing.T) (*ProductService, *gorm.DB, *events.Bus) {
	t.Helper()
	db := serviceDB(t)
	bus := events.NewBus()
	repo := repository.New[model.Product](db, repository.Options{})
	return NewProductService(repo, uow.New(db), bus, nil), db, bus
}

func createProduct(t *testing.T, svc *ProductService, name string, price int64) dto.ProductResponse {
	t.Helper()
	res := svc.Create(context.Background(), dto.CreateProductRequest{
		Name:       name,
		PriceCents: price,
		Currency:   "usd",
		Quantity:   10,
	})
	resp, err := res.Unwrap()
	require.NoError(t, err)
	return resp
}

func TestCreateProduct(t *testing.T) {
	svc, _, bus := newProductService(t)

	var published bool
	bus.Subscribe("product.created", func(ctx context.Context, e events.Event) {
		published = true
	})

	resp := createProduct(t, svc, "anvil", 5000)
	assert.Contains(t, resp.URN, "urn:product:")
	assert.Equal(t, "USD", resp.Currency)
	assert.True(t, published)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, _ := newProductService(t)

	res := svc.Create(context.Background(), dto.CreateProductRequest{
		Name:       "",
		PriceCents: -1,
		Currency:   "dollars",
	})
	assert.True(t, res.IsErr())
}

func TestGetProduct(t *testing.T) {
	svc, _, _ := newProductService(t)
	created := createProduct(t, svc, "anvil", 5000)

	got, err := svc.Get(context.Background(), created.URN).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "anvil", got.Name)

	res := svc.Get(context.Background(), "urn:product:missing")
	assert.ErrorIs(t, res.Err(), ErrProductNotFound)
}

func TestUpdateProduct(t *testing.T) {
	svc, _, _ := newProductService(t)
	created := createProduct(t, svc, "anvil", 5000)

	newName := "premium anvil"
	newPrice := int64(7500)
	updated, err := svc.Update(context.Background(), created.URN, dto.UpdateProductRequest{
		Name:       &newName,
		PriceCents: &newPrice,
	}).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "premium anvil", updated.Name)
	assert.Equal(t, int64(7500), updated.PriceCents)

	// unchanged fields survive the partial update
	assert.Equal(t, 10, updated.Quantity)
}

func TestUpdateMissingProduct(t *testing.T) {
	svc, _, _ := newProductService(t)

	name := "ghost"
	res := svc.Update(context.Background(), "urn:product:missing", dto.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, res.Err(), ErrProductNotFound)
}

func TestDeleteProduct(t *testing.T) {
	svc, _, bus := newProductService(t)
	created := createProduct(t, svc, "anvil", 5000)

	var published bool
	bus.Subscribe("product.deleted", func(ctx context.Context, e events.Event) {
		published = true
	})

	require.NoError(t, svc.Delete(context.Background(), created.URN))
	assert.True(t, published)

	res := svc.Get(context.Background(), created.URN)
	assert.ErrorIs(t, res.Err(), ErrProductNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), created.URN), ErrProductNotFound)
}

func TestListProducts(t *testing.T) {
	svc, _, _ := newProductService(t)
	createProduct(t, svc, "anvil", 5000)
	createProduct(t, svc, "hammer", 1200)
	createProduct(t, svc, "hand drill", 3000)

	page, err := svc.List(context.Background(), dto.ListProductsRequest{
		NameContains: "ha",
		Page:         1,
		PerPage:      10,
	}).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "hammer", page.Items[0].Name)

	capped, err := svc.List(context.Background(), dto.ListProductsRequest{
		MaxPrice: 3000,
		Page:     1,
		PerPage:  1,
	}).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, int64(2), capped.Total)
	assert.Len(t, capped.Items, 1)
}

func TestListDefaultsPagination(t *testing.T) {
	svc, _, _ := newProductService(t)
	createProduct(t, svc, "anvil", 5000)

	page, err := svc.List(context.Background(), dto.ListProductsRequest{}).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PerPage)
	assert.Len(t, page.Items, 1)
}
