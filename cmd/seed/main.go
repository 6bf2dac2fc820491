// Command seed loads reference data: the default vendor and a few catalog
// records to hang acquisition requests off. Running it twice is harmless.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/application/service"
	"github.com/garyjia/library-acquisition/internal/config"
	"github.com/garyjia/library-acquisition/internal/container"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/pkg/utils"
)

var vendors = []service.VendorInput{
	{Name: "amazon.com", Email: "orders@amazon.com", Notes: "Default vendor"},
}

var catalogRecords = []entity.CatalogRecord{
	{ID: "rec-0001", Title: "The Dispossessed"},
	{ID: "rec-0002", Title: "Invisible Cities"},
	{ID: "rec-0003", Title: "The Name of the Rose"},
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer func() { _ = c.Close() }()

	if err := seed(ctx, c.Services().Vendors, c.Repositories().Catalog, logger); err != nil {
		logger.Error("Seeding failed", zap.Error(err))
		return
	}
	logger.Info("Seeding completed")
}

func seed(ctx context.Context, vendorSvc service.VendorService, catalog port.CatalogRepository, logger *zap.Logger) error {
	existing, err := vendorSvc.List(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, v := range existing {
		known[v.Name] = true
	}

	for _, in := range vendors {
		if known[in.Name] {
			logger.Info("Vendor already present", zap.String("name", in.Name))
			continue
		}
		v, err := vendorSvc.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("seed vendor %s: %w", in.Name, err)
		}
		logger.Info("Vendor seeded", zap.String("id", v.ID), zap.String("name", v.Name))
	}

	for _, rec := range catalogRecords {
		_, err := catalog.GetByID(ctx, rec.ID)
		if err == nil {
			logger.Info("Catalog record already present", zap.String("id", rec.ID))
			continue
		}
		if !errors.Is(err, port.ErrNotFound) {
			return fmt.Errorf("look up catalog record %s: %w", rec.ID, err)
		}

		rec.CreatedAt = time.Now().UTC()
		if err := catalog.Create(ctx, &rec); err != nil {
			return fmt.Errorf("seed catalog record %s: %w", rec.ID, err)
		}
		logger.Info("Catalog record seeded", zap.String("id", rec.ID), zap.String("title", rec.Title))
	}

	return nil
}
