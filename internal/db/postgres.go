package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fieldlens/fieldlens-backend/internal/logger"
	"github.com/fieldlens/fieldlens-backend/internal/types"
	"github.com/fieldlens/fieldlens-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "fieldlens", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.FacetKind{},
		&types.GlobalFacet{},
		&types.AccountFacet{},
		&types.PersonFacet{},
		&types.PersonScale{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		table, name, sql string
	}{
		{
			"facet_global", "fk_facet_global_kind_id",
			`FOREIGN KEY ("kind_id") REFERENCES "facet_kind_global"("id") ON DELETE RESTRICT`,
		},
		{
			"facet_account", "fk_facet_account_kind_id",
			`FOREIGN KEY ("kind_id") REFERENCES "facet_kind_global"("id") ON DELETE RESTRICT`,
		},
		{
			"facet_account", "fk_facet_account_global_facet_id",
			`FOREIGN KEY ("global_facet_id") REFERENCES "facet_global"("id") ON DELETE SET NULL`,
		},
		{
			"person_facet", "fk_person_facet_facet_account_id",
			`FOREIGN KEY ("facet_account_id") REFERENCES "facet_account"("id") ON DELETE CASCADE`,
		},
	}
	for _, c := range constraints {
		if err := s.db.Exec(fmt.Sprintf(`ALTER TABLE %q DROP CONSTRAINT IF EXISTS %q`, c.table, c.name)).Error; err != nil {
			return fmt.Errorf("failed to reset %s: %w", c.name, err)
		}
		if err := s.db.Exec(fmt.Sprintf(`ALTER TABLE %q ADD CONSTRAINT %q %s`, c.table, c.name, c.sql)).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
