package model

import (
	"time"

	"github.com/google/uuid"
)

// ClienteGeneralID is the reserved record for anonymous / walk-in buyers.
// The row is seeded at startup, never edited, and may never carry a sale
// whose estado is not "pagada" — credit requires an identified client.
var ClienteGeneralID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Cliente is a registered buyer. Clients with credit sales accumulate debt
// tracked per-venta; there is no separately maintained running balance.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"index;not null"`
	Telefono  *string
	Email     *string
	Direccion *string
	Activo    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Cliente) TableName() string { return "clientes" }

// EsGeneral reports whether this is the reserved walk-in client.
func (c *Cliente) EsGeneral() bool { return c.ID == ClienteGeneralID }
