package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Catalog is the seed file layout: stock items, products with their recipes
// by stock name, and RFID tags.
type Catalog struct {
	Stock []struct {
		Name    string `mapstructure:"name"`
		Qty     int    `mapstructure:"quantity"`
		Minimum int    `mapstructure:"minimum"`
	} `mapstructure:"stock"`
	Products []struct {
		Name   string         `mapstructure:"name"`
		Price  string         `mapstructure:"price"`
		Recipe map[string]int `mapstructure:"recipe"`
	} `mapstructure:"products"`
	Tags []struct {
		ID       string `mapstructure:"id"`
		Stock    string `mapstructure:"stock"`
		Quantity int    `mapstructure:"quantity"`
	} `mapstructure:"tags"`
}

type SeedService interface {
	SeedAccess(ctx context.Context, adminEmail, adminPassword string) error
	SeedCatalog(ctx context.Context, c *Catalog) error
}

type seedService struct {
	privileges repository.PrivilegeRepository
	roles      repository.RoleRepository
	users      repository.UserRepository
	stocks     repository.StockRepository
	products   repository.ProductRepository
	recipes    repository.RecipeRepository
	tags       repository.RFIDRepository
}

func NewSeedService(
	privileges repository.PrivilegeRepository,
	roles repository.RoleRepository,
	users repository.UserRepository,
	stocks repository.StockRepository,
	products repository.ProductRepository,
	recipes repository.RecipeRepository,
	tags repository.RFIDRepository,
) SeedService {
	return &seedService{
		privileges: privileges,
		roles:      roles,
		users:      users,
		stocks:     stocks,
		products:   products,
		recipes:    recipes,
		tags:       tags,
	}
}

// SeedAccess creates default privileges, roles, and an admin user if they
// don't exist.
func (s *seedService) SeedAccess(ctx context.Context, adminEmail, adminPassword string) error {
	if err := s.privileges.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed privileges: %w", err)
	}
	all, err := s.privileges.FindAll(ctx)
	if err != nil {
		return err
	}
	if err := s.roles.SeedDefaults(ctx, all); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	if _, err := s.users.FindByEmail(ctx, adminEmail); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	role, err := s.roles.FindByCode(ctx, model.RoleAdmin)
	if err != nil {
		return err
	}
	admin := &model.User{
		Email:      adminEmail,
		FullName:   "Administrator",
		RoleID:     &role.ID,
		IsActive:   true,
		Privileges: role.Privileges,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(adminPassword); err != nil {
		return err
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	log.Info().Str("email", adminEmail).Msg("admin user created")
	return nil
}

// SeedCatalog inserts whatever part of the catalog is missing. Existing
// rows (matched by name or tag id) are left untouched. Stock names are
// matched case-insensitively.
func (s *seedService) SeedCatalog(ctx context.Context, c *Catalog) error {
	stockIDs := make(map[string]uint, len(c.Stock))
	for _, st := range c.Stock {
		existing, err := s.stocks.FindByName(ctx, st.Name)
		if err == nil {
			stockIDs[strings.ToLower(st.Name)] = existing.ID
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		item := &model.StockItem{Name: st.Name, Quantity: st.Qty, MinimumThreshold: st.Minimum}
		if err := s.stocks.Create(ctx, item); err != nil {
			return fmt.Errorf("stock %q: %w", st.Name, err)
		}
		stockIDs[strings.ToLower(st.Name)] = item.ID
	}

	for _, p := range c.Products {
		if _, err := s.products.FindByName(ctx, p.Name); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return fmt.Errorf("product %q: price: %w", p.Name, err)
		}
		product := &model.Product{Name: p.Name, UnitPrice: price}
		if err := s.products.Create(ctx, product); err != nil {
			return fmt.Errorf("product %q: %w", p.Name, err)
		}
		for stockName, qty := range p.Recipe {
			stockID, ok := stockIDs[strings.ToLower(stockName)]
			if !ok {
				return fmt.Errorf("product %q: unknown stock %q", p.Name, stockName)
			}
			if err := s.recipes.Create(ctx, &model.Recipe{ProductID: product.ID, StockID: stockID, QuantityPerUnit: qty}); err != nil {
				return fmt.Errorf("recipe %q/%q: %w", p.Name, stockName, err)
			}
		}
	}

	for _, t := range c.Tags {
		if _, err := s.tags.FindByID(ctx, t.ID); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		stockID, ok := stockIDs[strings.ToLower(t.Stock)]
		if !ok {
			return fmt.Errorf("tag %q: unknown stock %q", t.ID, t.Stock)
		}
		if err := s.tags.Create(ctx, &model.RFIDTag{ID: t.ID, StockID: stockID, Quantity: t.Quantity}); err != nil {
			return fmt.Errorf("tag %q: %w", t.ID, err)
		}
	}
	return nil
}
