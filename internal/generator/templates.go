package generator

const projectGoModTemplate = `module {{.Module}}

go 1.24.0

require (
	github.com/apiforge/apiforge v0.1.0
	go.uber.org/zap v1.27.0
	gorm.io/gorm v1.30.1
)
`

const projectConfigTemplate = `server:
  host: 0.0.0.0
  port: 8080
  request_timeout: 30s
  max_body_size: 1048576

database:
  driver: sqlite
  dsn: {{.Name}}.db

auth:
  jwt_secret: change-me
  token_ttl: 1h
  unprotected_routes:
    - /health
    - /metrics
    - /api/v1/user/login

rate_limit:
  requests_per_minute: 60
  requests_per_hour: 1000
  burst_limit: 10
  window_size: 10s
  enable_sliding_window: true
`

const projectMainTemplate = `package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/apiforge/apiforge/pkg/config"
	"github.com/apiforge/apiforge/pkg/router"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer logger.Sync()

	r := router.New(router.RouterConfig{
		ServiceName: "{{.Name}}",
		Logger:      logger,
	})

	addr := cfg.Server.Addr()
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
`

const entityModelTemplate = `package model

import (
	"gorm.io/gorm"

	"github.com/apiforge/apiforge/pkg/entity"
)

// {{.Entity}} is a persistent domain entity.
type {{.Entity}} struct {
	entity.Base
	Name string ` + "`" + `gorm:"size:255" json:"name"` + "`" + `
}

// BeforeCreate namespaces {{.LowerEntity}} URNs.
func (m *{{.Entity}}) BeforeCreate(tx *gorm.DB) error {
	if m.URN == "" {
		m.URN = entity.NewURN("{{.LowerEntity}}")
	}
	return nil
}

func ({{.Entity}}) TableName() string { return "{{.Table}}" }
`

const entityDTOTemplate = `package dto

import "github.com/apiforge/apiforge/pkg/validation"

// Create{{.Entity}}Request creates a {{.LowerEntity}}.
type Create{{.Entity}}Request struct {
	Name string ` + "`" + `json:"name"` + "`" + `
}

func (r Create{{.Entity}}Request) Validate() error {
	return validation.New().
		Required("name", r.Name).
		MaxLength("name", r.Name, 255).
		Err()
}

// {{.Entity}}Response is the public view of a {{.LowerEntity}}.
type {{.Entity}}Response struct {
	URN  string ` + "`" + `json:"urn"` + "`" + `
	Name string ` + "`" + `json:"name"` + "`" + `
}
`

const entityServiceTemplate = `package service

import (
	"context"

	"go.uber.org/zap"

	"{{.Module}}/internal/dto"
	"{{.Module}}/internal/model"
	"github.com/apiforge/apiforge/pkg/repository"
	"github.com/apiforge/apiforge/pkg/result"
	"github.com/apiforge/apiforge/pkg/uow"
)

// {{.Entity}}Service implements {{.LowerEntity}} operations.
type {{.Entity}}Service struct {
	repo   *repository.Repository[model.{{.Entity}}, *model.{{.Entity}}]
	uow    *uow.UnitOfWork
	logger *zap.Logger
}

// New{{.Entity}}Service wires a {{.LowerEntity}} service.
func New{{.Entity}}Service(repo *repository.Repository[model.{{.Entity}}, *model.{{.Entity}}], u *uow.UnitOfWork, logger *zap.Logger) *{{.Entity}}Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &{{.Entity}}Service{repo: repo, uow: u, logger: logger}
}

// Create validates and persists a new {{.LowerEntity}}.
func (s *{{.Entity}}Service) Create(ctx context.Context, req dto.Create{{.Entity}}Request) result.Result[dto.{{.Entity}}Response] {
	if err := req.Validate(); err != nil {
		return result.Err[dto.{{.Entity}}Response](err)
	}

	m := &model.{{.Entity}}{Name: req.Name}
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, m)
	})
	if err != nil {
		return result.Err[dto.{{.Entity}}Response](err)
	}

	return result.Ok(dto.{{.Entity}}Response{URN: m.URN, Name: m.Name})
}

// Get loads a {{.LowerEntity}} by URN.
func (s *{{.Entity}}Service) Get(ctx context.Context, urn string) result.Result[dto.{{.Entity}}Response] {
	m, err := s.repo.FindByURN(ctx, urn)
	if err != nil {
		return result.Err[dto.{{.Entity}}Response](err)
	}
	return result.Ok(dto.{{.Entity}}Response{URN: m.URN, Name: m.Name})
}
`

const entityControllerTemplate = `package controller

import (
	"net/http"

	"{{.Module}}/internal/dto"
	"{{.Module}}/internal/service"
	"github.com/apiforge/apiforge/pkg/codec"
	"github.com/apiforge/apiforge/pkg/presenter"
	"github.com/apiforge/apiforge/pkg/router"
)

// {{.Entity}}Controller exposes {{.LowerEntity}} endpoints.
type {{.Entity}}Controller struct {
	svc   *service.{{.Entity}}Service
	codec *codec.JSONCodec[dto.Create{{.Entity}}Request, dto.{{.Entity}}Response]
}

// New{{.Entity}}Controller wires a controller.
func New{{.Entity}}Controller(svc *service.{{.Entity}}Service) *{{.Entity}}Controller {
	return &{{.Entity}}Controller{
		svc:   svc,
		codec: codec.NewJSONCodec[dto.Create{{.Entity}}Request, dto.{{.Entity}}Response](),
	}
}

// Create handles POST /{{.Table}}.
func (c *{{.Entity}}Controller) Create(w http.ResponseWriter, r *http.Request) {
	req, err := c.codec.Decode(r)
	if err != nil {
		presenter.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	res := c.svc.Create(r.Context(), req)
	if res.IsErr() {
		presenter.ValidationFailed(w, r, res.Err())
		return
	}

	resp, _ := res.Value()
	presenter.Created(w, r, resp)
}

// Get handles GET /{{.Table}}/:urn.
func (c *{{.Entity}}Controller) Get(w http.ResponseWriter, r *http.Request) {
	res := c.svc.Get(r.Context(), router.Param(r, "urn"))
	if res.IsErr() {
		presenter.Error(w, r, http.StatusNotFound, "{{.LowerEntity}} not found")
		return
	}

	resp, _ := res.Value()
	presenter.OK(w, r, resp)
}
`
