// Command seed creates demo users and catalog items in MySQL and prints
// a short-lived bearer token for each user. Running it twice reuses the
// existing rows.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/config"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/database"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/repository"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/service"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/utils"
)

type demoUser struct {
	email, name string
	role        model.Role
}

var demoUsers = []demoUser{
	{"admin@example.com", "Demo Admin", model.RoleAdmin},
	{"staff@example.com", "Demo Staff", model.RoleStaff},
	{"customer@example.com", "Demo Customer", model.RoleUser},
}

var demoServices = []service.ServiceInput{
	{Name: "Wedding photography", Category: "photography", BasePrice: 150000, DurationMinutes: 480},
	{Name: "Buffet catering", Category: "catering", BasePrice: 90000, DurationMinutes: 240},
	{Name: "Stage decoration", Category: "decor", BasePrice: 60000, DurationMinutes: 180},
}

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := config.NewLogger(cfg.LogFormat, os.Stderr)
	if err := seed(context.Background(), cfg, log); err != nil {
		log.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	store := repository.NewStore(db)

	var admin model.Actor
	ttl := time.Duration(cfg.AccessTTLMin) * time.Minute
	for _, du := range demoUsers {
		u, err := ensureUser(ctx, store, du, cfg.BcryptCost)
		if err != nil {
			return err
		}
		if u.Role == model.RoleAdmin {
			admin = model.Actor{UserID: u.ID, Role: u.Role}
		}
		tok, err := utils.NewAccessToken(cfg.JWTSecret, u.ID, u.Role, ttl)
		if err != nil {
			return err
		}
		fmt.Printf("%-6s id=%d %s\n       %s\n", u.Role, u.ID, u.Email, tok.Token)
	}

	catalog := service.NewCatalogService(store, log)
	existing, err := catalog.ListServices(ctx, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("catalog already seeded", slog.Int("services", len(existing)))
		return nil
	}
	ids := make([]uint64, 0, len(demoServices))
	for _, in := range demoServices {
		s, err := catalog.CreateService(ctx, admin, in)
		if err != nil {
			return err
		}
		ids = append(ids, s.ID)
	}
	_, err = catalog.CreatePackage(ctx, admin, service.PackageInput{
		Name:            "Complete wedding",
		Description:     "Photography, catering and decoration for one day",
		ServiceIDs:      ids,
		DurationMinutes: 480,
		Price:           270000,
	})
	if err != nil {
		return err
	}
	log.Info("catalog seeded", slog.Int("services", len(ids)), slog.Int("packages", 1))
	return nil
}

// ensureUser creates du or returns the user already holding its email.
// Demo accounts share the password "password".
func ensureUser(ctx context.Context, store *repository.Store, du demoUser, cost int) (*model.User, error) {
	hash, err := utils.HashPassword("password", cost)
	if err != nil {
		return nil, err
	}
	u := &model.User{Email: du.email, Name: du.name, PasswordHash: hash, Role: du.role, IsActive: true}
	err = store.CreateUser(ctx, u)
	if errors.Is(err, repository.ErrDuplicate) {
		return store.GetUserByEmail(ctx, du.email)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
