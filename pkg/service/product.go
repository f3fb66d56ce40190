package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/apiforge/apiforge/pkg/dto"
	"github.com/apiforge/apiforge/pkg/events"
	"github.com/apiforge/apiforge/pkg/mapper"
	"github.com/apiforge/apiforge/pkg/model"
	"github.com/apiforge/apiforge/pkg/repository"
	"github.com/apiforge/apiforge/pkg/result"
	"github.com/apiforge/apiforge/pkg/specification"
	"github.com/apiforge/apiforge/pkg/uow"
	"github.com/apiforge/apiforge/pkg/valueobject"
)

// ErrProductNotFound is returned for unknown or deleted product URNs.
var ErrProductNotFound = errors.New("product not found")

// ProductCreated is published after a product is added to the catalog.
type ProductCreated struct {
	events.BaseEvent
	ProductURN string
}

func (ProductCreated) EventName() string { return "product.created" }

// ProductDeleted is published after a product is removed.
type ProductDeleted struct {
	events.BaseEvent
	ProductURN string
}

func (ProductDeleted) EventName() string { return "product.deleted" }

// ProductService implements catalog CRUD over the generic repository.
type ProductService struct {
	repo   *repository.Repository[model.Product, *model.Product]
	uow    *uow.UnitOfWork
	bus    *events.Bus
	logger *zap.Logger
}

// NewProductService wires a product service.
func NewProductService(repo *repository.Repository[model.Product, *model.Product], u *uow.UnitOfWork, bus *events.Bus, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &ProductService{repo: repo, uow: u, bus: bus, logger: logger}
}

// Create validates and persists a new product.
func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) result.Result[dto.ProductResponse] {
	if err := req.Validate(); err != nil {
		return result.Err[dto.ProductResponse](err)
	}

	// Money validates the currency code and non-negative amount.
	price, err := valueobject.NewMoney(req.PriceCents, req.Currency)
	if err != nil {
		return result.Err[dto.ProductResponse](err)
	}

	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  price.Cents(),
		Currency:    price.Currency(),
		Quantity:    req.Quantity,
	}

	err = s.uow.Execute(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, product)
	})
	if err != nil {
		return result.Err[dto.ProductResponse](err)
	}

	s.bus.Publish(ctx, ProductCreated{BaseEvent: events.NewBaseEvent(), ProductURN: product.URN})
	s.logger.Info("product created", zap.String("product_urn", product.URN))
	return result.Ok(productMapper.Map(product))
}

// Get loads a product by URN.
func (s *ProductService) Get(ctx context.Context, urn string) result.Result[dto.ProductResponse] {
	product, err := s.repo.FindByURN(ctx, urn)
	if errors.Is(err, repository.ErrNotFound) {
		return result.Err[dto.ProductResponse](ErrProductNotFound)
	}
	if err != nil {
		return result.Err[dto.ProductResponse](err)
	}
	return result.Ok(productMapper.Map(product))
}

// Update applies the non-nil fields of the request to a product.
func (s *ProductService) Update(ctx context.Context, urn string, req dto.UpdateProductRequest) result.Result[dto.ProductResponse] {
	if err := req.Validate(); err != nil {
		return result.Err[dto.ProductResponse](err)
	}

	var product *model.Product
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		product, err = s.repo.FindByURN(ctx, urn)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}

		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.Description != nil {
			product.Description = *req.Description
		}
		if req.PriceCents != nil {
			product.PriceCents = *req.PriceCents
		}
		if req.Quantity != nil {
			product.Quantity = *req.Quantity
		}
		return s.repo.Update(ctx, product)
	})
	if err != nil {
		return result.Err[dto.ProductResponse](err)
	}

	s.logger.Info("product updated", zap.String("product_urn", product.URN))
	return result.Ok(productMapper.Map(product))
}

// Delete soft-deletes a product.
func (s *ProductService) Delete(ctx context.Context, urn string) error {
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		product, err := s.repo.FindByURN(ctx, urn)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		return s.repo.Delete(ctx, product)
	})
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, ProductDeleted{BaseEvent: events.NewBaseEvent(), ProductURN: urn})
	s.logger.Info("product deleted", zap.String("product_urn", urn))
	return nil
}

// List returns a filtered, paginated catalog page.
func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) result.Result[dto.ProductListResponse] {
	if err := req.Validate(); err != nil {
		return result.Err[dto.ProductListResponse](err)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	perPage := req.PerPage
	if perPage < 1 {
		perPage = 20
	}

	filters := specification.NewQuery()
	if req.NameContains != "" {
		filters.Where("name", specification.OpLike, req.NameContains)
	}
	if req.MaxPrice > 0 {
		filters.Where("price_cents", specification.OpLessOrEqual, req.MaxPrice)
	}

	total, err := s.repo.Count(ctx, filters)
	if err != nil {
		return result.Err[dto.ProductListResponse](err)
	}

	pageQuery := *filters
	pageQuery.OrderBy("name").Paginate(page, perPage)
	products, err := s.repo.List(ctx, &pageQuery)
	if err != nil {
		return result.Err[dto.ProductListResponse](err)
	}

	return result.Ok(dto.ProductListResponse{
		Items:   mapper.MapSlice[*model.Product, dto.ProductResponse](productMapper, products),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}
