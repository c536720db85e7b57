package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Abono is an installment payment applied against a sale's outstanding
// balance. Rows are immutable; the sum of a sale's abonos equals its
// MontoPagado. The initial deposit of a credit sale is recorded as a
// regular abono at creation time.
type Abono struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	ClienteID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	Monto      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago string          `gorm:"type:varchar(20);not null"`
	Notas      *string
	CreatedAt  time.Time
}

func (Abono) TableName() string { return "abonos" }
