// Package dto defines the request and response shapes for the sample user
// and product APIs, each request validating itself before it reaches a
// service.
package dto

import (
	"time"

	"github.com/apiforge/apiforge/pkg/validation"
)

// LoginRequest authenticates a user by email and password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.New().
		Required("email", r.Email).
		Email("email", r.Email).
		Required("password", r.Password).
		MinLength("password", r.Password, 8).
		Err()
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	URN   string `json:"urn"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// RegisterRequest creates a new user account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.New().
		Required("email", r.Email).
		Email("email", r.Email).
		Required("name", r.Name).
		MaxLength("name", r.Name, 255).
		Required("password", r.Password).
		MinLength("password", r.Password, 8).
		Err()
}

// CreateProductRequest adds a product to the catalog.
type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
	Quantity    int    `json:"quantity"`
}

func (r CreateProductRequest) Validate() error {
	return validation.New().
		Required("name", r.Name).
		MaxLength("name", r.Name, 255).
		Positive("price_cents", r.PriceCents).
		Check("currency", len(r.Currency) == 3, "must be a three-letter code").
		Range("quantity", int64(r.Quantity), 0, 1_000_000).
		Err()
}

// UpdateProductRequest modifies an existing product. Nil fields are left
// unchanged.
type UpdateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
}

func (r UpdateProductRequest) Validate() error {
	v := validation.New()
	if r.Name != nil {
		v.Required("name", *r.Name).MaxLength("name", *r.Name, 255)
	}
	if r.PriceCents != nil {
		v.Positive("price_cents", *r.PriceCents)
	}
	if r.Quantity != nil {
		v.Range("quantity", int64(*r.Quantity), 0, 1_000_000)
	}
	return v.Err()
}

// ListProductsRequest filters and paginates the catalog.
type ListProductsRequest struct {
	NameContains string `json:"name_contains"`
	MaxPrice     int64  `json:"max_price"`
	Page         int    `json:"page"`
	PerPage      int    `json:"per_page"`
}

func (r ListProductsRequest) Validate() error {
	return validation.New().
		Range("page", int64(r.Page), 0, 1_000_000).
		Range("per_page", int64(r.PerPage), 0, 500).
		Err()
}

// ProductResponse is the public view of a product.
type ProductResponse struct {
	URN         string    `json:"urn"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductListResponse pages through products.
type ProductListResponse struct {
	Items   []ProductResponse `json:"items"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}
