package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go-pos-ledger/internal/config"
	"go-pos-ledger/internal/repository"
	"go-pos-ledger/internal/service"
	"go-pos-ledger/pkg/database"
	"go-pos-ledger/pkg/logger"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func main() {
	path := flag.String("file", "configs/catalog.yaml", "catalog file (yaml or json)")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Setup(cfg.LogLevel, true)

	// 2. Read catalog
	v := viper.New()
	v.SetConfigFile(*path)
	if err := v.ReadInConfig(); err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("read catalog")
	}
	var catalog service.Catalog
	if err := v.Unmarshal(&catalog); err != nil {
		log.Fatal().Err(err).Msg("decode catalog")
	}

	// 3. Setup Database
	db, err := database.ConnectDB(database.Options{DSN: cfg.DatabaseURL})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	seeder := service.NewSeedService(
		repository.NewPrivilegeRepo(db),
		repository.NewRoleRepo(db),
		repository.NewUserRepo(db),
		repository.NewStockRepo(db),
		repository.NewProductRepo(db),
		repository.NewRecipeRepo(db),
		repository.NewRFIDRepo(db),
	)

	// 4. Seed
	ctx := context.Background()
	if err := seeder.SeedAccess(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("seed access control")
	}
	if err := seeder.SeedCatalog(ctx, &catalog); err != nil {
		log.Fatal().Err(err).Msg("seed catalog")
	}

	log.Info().
		Int("stock", len(catalog.Stock)).
		Int("products", len(catalog.Products)).
		Int("tags", len(catalog.Tags)).
		Msg("catalog seeded")
}
