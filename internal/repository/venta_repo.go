package repository

import (
	"context"

	"fiadopos/internal/dto"
	"fiadopos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResumenCartera is the raw portfolio rollup computed in SQL over open sales.
type ResumenCartera struct {
	VentasPendientes int64
	MontoPendiente   decimal.Decimal
	ClientesConDeuda int64
	PorEstado        map[model.EstadoPago]int64
}

type VentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	// FindByIDForUpdateTx locks the sale row so concurrent abonos against the
	// same venta serialize on the pending balance.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error)
	// UpdatePagoTx writes the three payment fields as one unit.
	UpdatePagoTx(tx *gorm.DB, id uuid.UUID, pagado, pendiente decimal.Decimal, estado model.EstadoPago) error
	// DeleteTx removes the venta together with its items and abonos.
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error)
	FindDeudasPorCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Venta, error)
	ResumenCartera(ctx context.Context) (*ResumenCartera, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return tx.WithContext(ctx).Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).
		Preload("Items.Producto").Preload("Abonos").Preload("Cliente").
		First(&v, id).Error
	return &v, err
}

func (r *ventaRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&v, id).Error
	return &v, err
}

func (r *ventaRepo) UpdatePagoTx(tx *gorm.DB, id uuid.UUID, pagado, pendiente decimal.Decimal, estado model.EstadoPago) error {
	return tx.Model(&model.Venta{}).Where("id = ?", id).Updates(map[string]interface{}{
		"monto_pagado":    pagado,
		"monto_pendiente": pendiente,
		"estado":          estado,
	}).Error
}

func (r *ventaRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("venta_id = ?", id).Delete(&model.VentaItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("venta_id = ?", id).Delete(&model.Abono{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Venta{}, id).Error
}

func (r *ventaRepo) List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Venta{})

	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.Fecha != "" {
		q = q.Where("DATE(created_at) = ?", filter.Fecha)
	} else {
		// Default: today
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items.Producto").Preload("Cliente").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error

	return ventas, total, err
}

func (r *ventaRepo) FindDeudasPorCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).
		Where("cliente_id = ? AND estado IN ?", clienteID,
			[]model.EstadoPago{model.EstadoPendiente, model.EstadoParcial}).
		Order("created_at ASC").
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) ResumenCartera(ctx context.Context) (*ResumenCartera, error) {
	abiertas := []model.EstadoPago{model.EstadoPendiente, model.EstadoParcial}

	var rows []struct {
		Estado   model.EstadoPago
		Cantidad int64
		Monto    decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.Venta{}).
		Select("estado, COUNT(*) AS cantidad, COALESCE(SUM(monto_pendiente), 0) AS monto").
		Where("estado IN ?", abiertas).
		Group("estado").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	resumen := &ResumenCartera{
		MontoPendiente: decimal.Zero,
		PorEstado:      make(map[model.EstadoPago]int64, len(rows)),
	}
	for _, row := range rows {
		resumen.VentasPendientes += row.Cantidad
		resumen.MontoPendiente = resumen.MontoPendiente.Add(row.Monto)
		resumen.PorEstado[row.Estado] = row.Cantidad
	}

	err = r.db.WithContext(ctx).Model(&model.Venta{}).
		Where("estado IN ?", abiertas).
		Distinct("cliente_id").
		Count(&resumen.ClientesConDeuda).Error
	if err != nil {
		return nil, err
	}
	return resumen, nil
}
