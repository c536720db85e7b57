package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Venta is one checkout transaction. Created exactly once together with its
// Items (and, for credit sales with an initial deposit, one Abono) inside a
// single transaction. Afterwards only the payment fields (MontoPagado,
// MontoPendiente, Estado) change — via abono registration — until the sale is
// destroyed wholesale by AnularVenta.
//
// Invariant: MontoPagado + MontoPendiente == Total at all times.
type Venta struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descuento      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago     string          `gorm:"type:varchar(20);not null"`
	Estado         EstadoPago      `gorm:"type:varchar(20);index;not null"`
	MontoPagado    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	MontoPendiente decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Notas          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Cliente *Cliente    `gorm:"foreignKey:ClienteID"`
	Items   []VentaItem `gorm:"foreignKey:VentaID"`
	Abonos  []Abono     `gorm:"foreignKey:VentaID"`
}

func (Venta) TableName() string { return "ventas" }

// VentaItem is one line of a sale. Immutable once created — line items are
// never edited; only the whole Venta can be reversed.
type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"` // Cantidad × PrecioUnitario

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (VentaItem) TableName() string { return "venta_items" }
