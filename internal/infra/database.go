package infra

import (
	"fmt"

	"fiadopos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx. Callers run
// RunMigrations separately.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	return db, nil
}

// RunMigrations applies the schema and seeds. Shared with integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Producto{},
		&model.Cliente{},
		&model.Venta{},
		&model.VentaItem{},
		&model.Abono{},
		&model.MovimientoStock{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return seedClienteGeneral(db)
}

// seedClienteGeneral ensures the reserved walk-in client row exists.
// The no-credit rule for this client is enforced by the venta service, not here.
func seedClienteGeneral(db *gorm.DB) error {
	general := model.Cliente{
		ID:     model.ClienteGeneralID,
		Nombre: "Cliente general",
		Activo: true,
	}
	if err := db.Where("id = ?", model.ClienteGeneralID).FirstOrCreate(&general).Error; err != nil {
		return fmt.Errorf("seed cliente general: %w", err)
	}
	return nil
}
