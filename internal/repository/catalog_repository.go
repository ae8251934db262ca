package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
)

// CatalogRepo stores services and packages. Package membership is kept
// as a JSON array of service ids on the package row.
type CatalogRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db, now: utcNow} }

const serviceColumns = `id, name, description, category, base_price, duration_minutes, is_active, created_at, updated_at`

func scanService(row scanner) (*model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Category, &s.BasePrice, &s.DurationMinutes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *CatalogRepo) CreateService(ctx context.Context, s *model.Service) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO services (name, description, category, base_price, duration_minutes, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.Description, s.Category, s.BasePrice, s.DurationMinutes, s.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

func (r *CatalogRepo) UpdateService(ctx context.Context, s *model.Service) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE services SET name = ?, description = ?, category = ?, base_price = ?, duration_minutes = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		s.Name, s.Description, s.Category, s.BasePrice, s.DurationMinutes, s.IsActive, now, s.ID)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	s.UpdatedAt = now
	return nil
}

func (r *CatalogRepo) GetService(ctx context.Context, id uint64) (*model.Service, error) {
	s, err := scanService(r.db.QueryRowContext(ctx, "SELECT "+serviceColumns+" FROM services WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *CatalogRepo) ListServices(ctx context.Context, activeOnly bool) ([]model.Service, error) {
	q := "SELECT " + serviceColumns + " FROM services"
	if activeOnly {
		q += " WHERE is_active = TRUE"
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

const packageColumns = `id, name, description, service_ids, duration_minutes, price, is_active, created_at, updated_at`

func scanPackage(row scanner) (*model.Package, error) {
	var (
		p   model.Package
		ids []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &ids, &p.DurationMinutes, &p.Price, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ServiceIDs = []uint64{}
	if len(ids) > 0 {
		if err := json.Unmarshal(ids, &p.ServiceIDs); err != nil {
			return nil, fmt.Errorf("decode package %d service ids: %w", p.ID, err)
		}
	}
	return &p, nil
}

func (r *CatalogRepo) CreatePackage(ctx context.Context, p *model.Package) error {
	ids, err := json.Marshal(p.ServiceIDs)
	if err != nil {
		return err
	}
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO packages (name, description, service_ids, duration_minutes, price, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, ids, p.DurationMinutes, p.Price, p.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

func (r *CatalogRepo) UpdatePackage(ctx context.Context, p *model.Package) error {
	ids, err := json.Marshal(p.ServiceIDs)
	if err != nil {
		return err
	}
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE packages SET name = ?, description = ?, service_ids = ?, duration_minutes = ?, price = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Description, ids, p.DurationMinutes, p.Price, p.IsActive, now, p.ID)
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	p.UpdatedAt = now
	return nil
}

func (r *CatalogRepo) GetPackage(ctx context.Context, id uint64) (*model.Package, error) {
	p, err := scanPackage(r.db.QueryRowContext(ctx, "SELECT "+packageColumns+" FROM packages WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *CatalogRepo) ListPackages(ctx context.Context, activeOnly bool) ([]model.Package, error) {
	q := "SELECT " + packageColumns + " FROM packages"
	if activeOnly {
		q += " WHERE is_active = TRUE"
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
