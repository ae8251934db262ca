package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/repository"
)

// CatalogService manages Services and Packages. Writes are admin-only;
// items are deactivated, never deleted.
type CatalogService struct {
	store CatalogStore
	log   *slog.Logger
}

func NewCatalogService(store CatalogStore, log *slog.Logger) *CatalogService {
	if store == nil {
		panic("nil store passed to NewCatalogService")
	}
	if log == nil {
		log = slog.Default()
	}
	return &CatalogService{store: store, log: log}
}

type ServiceInput struct {
	Name            string
	Description     string
	Category        string
	BasePrice       int64
	DurationMinutes int
	IsActive        *bool
}

func (in ServiceInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errValidation("name is required")
	}
	if in.BasePrice <= 0 {
		return errValidation("basePrice must be positive")
	}
	if in.DurationMinutes <= 0 {
		return errValidation("durationMinutes must be positive")
	}
	return nil
}

func (in ServiceInput) apply(s *model.Service) {
	s.Name = strings.TrimSpace(in.Name)
	s.Description = in.Description
	s.Category = in.Category
	s.BasePrice = in.BasePrice
	s.DurationMinutes = in.DurationMinutes
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
}

func (cs *CatalogService) CreateService(ctx context.Context, actor model.Actor, in ServiceInput) (*model.Service, error) {
	if err := RequireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	svc := &model.Service{IsActive: true}
	in.apply(svc)
	if err := cs.store.CreateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	cs.log.Info("catalog service created", slog.Uint64("service_id", svc.ID), slog.Uint64("actor_id", actor.UserID))
	return svc, nil
}

// UpdateService replaces the editable fields. Existing bookings keep the
// price they were created with.
func (cs *CatalogService) UpdateService(ctx context.Context, actor model.Actor, id uint64, in ServiceInput) (*model.Service, error) {
	if err := RequireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	svc, err := cs.getService(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(svc)
	if err := cs.store.UpdateService(ctx, svc); err != nil {
		return nil, translate(err, "service", id)
	}
	return svc, nil
}

func (cs *CatalogService) SetServiceActive(ctx context.Context, actor model.Actor, id uint64, active bool) (*model.Service, error) {
	if err := RequireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	svc, err := cs.getService(ctx, id)
	if err != nil {
		return nil, err
	}
	svc.IsActive = active
	if err := cs.store.UpdateService(ctx, svc); err != nil {
		return nil, translate(err, "service", id)
	}
	return svc, nil
}

// GetService and the other catalog reads are public.
func (cs *CatalogService) GetService(ctx context.Context, id uint64) (*model.Service, error) {
	return cs.getService(ctx, id)
}

func (cs *CatalogService) ListServices(ctx context.Context, activeOnly bool) ([]model.Service, error) {
	return cs.store.ListServices(ctx, activeOnly)
}

func (cs *CatalogService) getService(ctx context.Context, id uint64) (*model.Service, error) {
	svc, err := cs.store.GetService(ctx, id)
	if err != nil {
		return nil, translate(err, "service", id)
	}
	return svc, nil
}

type PackageInput struct {
	Name            string
	Description     string
	ServiceIDs      []uint64
	DurationMinutes int
	Price           int64
	IsActive        *bool
}

func (cs *CatalogService) validatePackage(ctx context.Context, in PackageInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return errValidation("name is required")
	}
	if in.Price <= 0 {
		return errValidation("price must be positive")
	}
	if in.DurationMinutes <= 0 {
		return errValidation("durationMinutes must be positive")
	}
	if len(in.ServiceIDs) == 0 {
		return errValidation("serviceIds must not be empty")
	}
	for _, id := range in.ServiceIDs {
		if _, err := cs.store.GetService(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errValidation("service %d does not exist", id)
			}
			return err
		}
	}
	return nil
}

func (in PackageInput) apply(p *model.Package) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.ServiceIDs = dedupe(in.ServiceIDs)
	p.DurationMinutes = in.DurationMinutes
	p.Price = in.Price
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func (cs *CatalogService) CreatePackage(ctx context.Context, actor model.Actor, in PackageInput) (*model.Package, error) {
	if err := RequireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := cs.validatePackage(ctx, in); err != nil {
		return nil, err
	}
	p := &model.Package{IsActive: true}
	in.apply(p)
	if err := cs.store.CreatePackage(ctx, p); err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}
	cs.log.Info("catalog package created", slog.Uint64("package_id", p.ID), slog.Uint64("actor_id", actor.UserID))
	return p, nil
}

func (cs *CatalogService) UpdatePackage(ctx context.Context, actor model.Actor, id uint64, in PackageInput) (*model.Package, error) {
	if err := RequireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := cs.validatePackage(ctx, in); err != nil {
		return nil, err
	}
	p, err := cs.getPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := cs.store.UpdatePackage(ctx, p); err != nil {
		return nil, translate(err, "package", id)
	}
	return p, nil
}

func (cs *CatalogService) SetPackageActive(ctx context.Context, actor model.Actor, id uint64, active bool) (*model.Package, error) {
	if err := RequireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	p, err := cs.getPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsActive = active
	if err := cs.store.UpdatePackage(ctx, p); err != nil {
		return nil, translate(err, "package", id)
	}
	return p, nil
}

func (cs *CatalogService) GetPackage(ctx context.Context, id uint64) (*model.Package, error) {
	return cs.getPackage(ctx, id)
}

func (cs *CatalogService) ListPackages(ctx context.Context, activeOnly bool) ([]model.Package, error) {
	return cs.store.ListPackages(ctx, activeOnly)
}

func (cs *CatalogService) getPackage(ctx context.Context, id uint64) (*model.Package, error) {
	p, err := cs.store.GetPackage(ctx, id)
	if err != nil {
		return nil, translate(err, "package", id)
	}
	return p, nil
}

// translate maps storage sentinels onto business errors and wraps the rest.
func translate(err error, resource string, id uint64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return errNotFound(resource, id)
	case KindOf(err) != "":
		return err
	}
	return fmt.Errorf("%s %d: %w", resource, id, err)
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
