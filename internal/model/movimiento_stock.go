package model

import (
	"time"

	"github.com/google/uuid"
)

// TipoMovimiento classifies a stock movement. It is derived from the sign of
// the applied delta, never supplied by callers.
type TipoMovimiento string

const (
	MovimientoEntrada TipoMovimiento = "entrada"
	MovimientoSalida  TipoMovimiento = "salida"
	MovimientoAjuste  TipoMovimiento = "ajuste"
)

// TipoPorDelta derives the movement type from the sign of the delta.
func TipoPorDelta(delta int) TipoMovimiento {
	switch {
	case delta > 0:
		return MovimientoEntrada
	case delta < 0:
		return MovimientoSalida
	default:
		return MovimientoAjuste
	}
}

// Reference types for MovimientoStock.ReferenciaTipo.
const (
	RefVenta = "venta"
)

// ReferenciaMovimiento links a stock movement to the operation that caused it.
type ReferenciaMovimiento struct {
	Tipo string
	ID   uuid.UUID
}

// MovimientoStock registra cada cambio de stock en un producto.
// Rows are immutable and never deleted — the running sum of deltas
// (StockNuevo − StockAnterior) equals the product's current stock, and no
// stock mutation may occur without its movement row.
type MovimientoStock struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	Tipo           TipoMovimiento `gorm:"type:varchar(20);not null"`
	Cantidad       int            `gorm:"not null"` // absolute value of the delta
	StockAnterior  int            `gorm:"not null"`
	StockNuevo     int            `gorm:"not null"`
	Motivo         string
	ReferenciaTipo *string    `gorm:"type:varchar(20)"`
	ReferenciaID   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
