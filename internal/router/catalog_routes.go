package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/handler"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/middleware"
)

// RegisterCatalog mounts /v1/catalog. Reads are public and served
// through the response cache; writes need a token and purge the cache
// once they succeed.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, jwtSecret string, limit, cache, purge echo.MiddlewareFunc) {
	public := e.Group("/v1/catalog", limit, cache)
	public.GET("/services", h.ListServices)
	public.GET("/services/:id", h.GetService)
	public.GET("/packages", h.ListPackages)
	public.GET("/packages/:id", h.GetPackage)

	admin := e.Group("/v1/catalog", middleware.JWTAuth(jwtSecret), limit, purge)
	admin.POST("/services", h.CreateService)
	admin.PUT("/services/:id", h.UpdateService)
	admin.PATCH("/services/:id/active", h.SetServiceActive)
	admin.POST("/packages", h.CreatePackage)
	admin.PUT("/packages/:id", h.UpdatePackage)
	admin.PATCH("/packages/:id/active", h.SetPackageActive)
}
