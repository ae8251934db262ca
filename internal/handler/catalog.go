package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/service"
)

// CatalogHandler serves /v1/catalog. Reads are public and only list
// active items; writes run the admin check in the service.
type CatalogHandler struct {
	Catalog *service.CatalogService
	Log     *slog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, log *slog.Logger) *CatalogHandler {
	if catalog == nil {
		panic("nil service passed to NewCatalogHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &CatalogHandler{Catalog: catalog, Log: log}
}

type serviceRequest struct {
	Name            string `json:"name" validate:"required,max=150"`
	Description     string `json:"description" validate:"max=2000"`
	Category        string `json:"category" validate:"max=100"`
	BasePrice       int64  `json:"basePrice" validate:"gte=0"`
	DurationMinutes int    `json:"durationMinutes" validate:"gt=0,lte=1440"`
	IsActive        *bool  `json:"isActive"`
}

func (r serviceRequest) input() service.ServiceInput {
	return service.ServiceInput{
		Name:            r.Name,
		Description:     r.Description,
		Category:        r.Category,
		BasePrice:       r.BasePrice,
		DurationMinutes: r.DurationMinutes,
		IsActive:        r.IsActive,
	}
}

type packageRequest struct {
	Name            string   `json:"name" validate:"required,max=150"`
	Description     string   `json:"description" validate:"max=2000"`
	ServiceIDs      []uint64 `json:"serviceIds" validate:"required,min=1,dive,gt=0"`
	DurationMinutes int      `json:"durationMinutes" validate:"gt=0,lte=1440"`
	Price           int64    `json:"price" validate:"gte=0"`
	IsActive        *bool    `json:"isActive"`
}

func (r packageRequest) input() service.PackageInput {
	return service.PackageInput{
		Name:            r.Name,
		Description:     r.Description,
		ServiceIDs:      r.ServiceIDs,
		DurationMinutes: r.DurationMinutes,
		Price:           r.Price,
		IsActive:        r.IsActive,
	}
}

type activeRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func (h *CatalogHandler) ListServices(c echo.Context) error {
	svcs, err := h.Catalog.ListServices(c.Request().Context(), true)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list(svcs))
}

func (h *CatalogHandler) GetService(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid service id")
	}
	s, err := h.Catalog.GetService(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// CreateService handles POST /v1/catalog/services.
func (h *CatalogHandler) CreateService(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	var body serviceRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	s, err := h.Catalog.CreateService(c.Request().Context(), actor, body.input())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// UpdateService handles PUT /v1/catalog/services/:id.
func (h *CatalogHandler) UpdateService(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid service id")
	}
	var body serviceRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	s, err := h.Catalog.UpdateService(c.Request().Context(), actor, id, body.input())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// SetServiceActive handles PATCH /v1/catalog/services/:id/active.
func (h *CatalogHandler) SetServiceActive(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid service id")
	}
	var body activeRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	s, err := h.Catalog.SetServiceActive(c.Request().Context(), actor, id, *body.IsActive)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *CatalogHandler) ListPackages(c echo.Context) error {
	pkgs, err := h.Catalog.ListPackages(c.Request().Context(), true)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list(pkgs))
}

func (h *CatalogHandler) GetPackage(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid package id")
	}
	p, err := h.Catalog.GetPackage(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

// CreatePackage handles POST /v1/catalog/packages.
func (h *CatalogHandler) CreatePackage(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	var body packageRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	p, err := h.Catalog.CreatePackage(c.Request().Context(), actor, body.input())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// UpdatePackage handles PUT /v1/catalog/packages/:id.
func (h *CatalogHandler) UpdatePackage(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid package id")
	}
	var body packageRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	p, err := h.Catalog.UpdatePackage(c.Request().Context(), actor, id, body.input())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}

// SetPackageActive handles PATCH /v1/catalog/packages/:id/active.
func (h *CatalogHandler) SetPackageActive(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid package id")
	}
	var body activeRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	p, err := h.Catalog.SetPackageActive(c.Request().Context(), actor, id, *body.IsActive)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}
