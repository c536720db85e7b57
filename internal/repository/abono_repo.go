package repository

import (
	"context"

	"fiadopos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AbonoRepository persists installment payments. Abonos are append-only;
// they are removed only when AnularVenta deletes the whole sale.
type AbonoRepository interface {
	CreateTx(tx *gorm.DB, a *model.Abono) error
	ListByVenta(ctx context.Context, ventaID uuid.UUID) ([]model.Abono, error)
}

type abonoRepo struct{ db *gorm.DB }

func NewAbonoRepository(db *gorm.DB) AbonoRepository { return &abonoRepo{db: db} }

func (r *abonoRepo) CreateTx(tx *gorm.DB, a *model.Abono) error {
	return tx.Create(a).Error
}

func (r *abonoRepo) ListByVenta(ctx context.Context, ventaID uuid.UUID) ([]model.Abono, error) {
	var abonos []model.Abono
	err := r.db.WithContext(ctx).
		Where("venta_id = ?", ventaID).
		Order("created_at ASC").
		Find(&abonos).Error
	return abonos, err
}
