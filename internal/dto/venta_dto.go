package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Fecha     string `form:"fecha"`      // YYYY-MM-DD; empty = today
	Estado    string `form:"estado"`     // pendiente | parcial | pagada | all
	ClienteID string `form:"cliente_id"` // optional UUID
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID     string          `json:"producto_id"     validate:"required,uuid"`
	Cantidad       int             `json:"cantidad"        validate:"required,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required,gt=0"`
}

// RegistrarVentaRequest creates a sale. TipoPago "contado" (the default)
// settles the full total immediately; "credito" opens an outstanding balance,
// optionally seeded with an initial deposit in MontoPagado. The resulting
// estado is always derived server-side — callers hint the terms, not the state.
type RegistrarVentaRequest struct {
	ClienteID  string             `json:"cliente_id" validate:"required,uuid"`
	Items      []ItemVentaRequest `json:"items"      validate:"required,min=1,dive"`
	Descuento  decimal.Decimal    `json:"descuento"  validate:"min=0"`
	MetodoPago string             `json:"metodo_pago" validate:"required,oneof=efectivo debito credito transferencia"`
	TipoPago   string             `json:"tipo_pago"   validate:"omitempty,oneof=contado credito"`
	// MontoPagado is the initial deposit of a credit sale; ignored for contado.
	MontoPagado *decimal.Decimal `json:"monto_pagado" validate:"omitempty"`
	Notas       *string          `json:"notas"`
	// ClienteEmail: optional — when present, the recibo worker mails the PDF receipt.
	ClienteEmail *string `json:"cliente_email" validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	Producto       string          `json:"producto"`
	ProductoID     string          `json:"producto_id"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID             string              `json:"id"`
	ClienteID      string              `json:"cliente_id"`
	Cliente        string              `json:"cliente,omitempty"`
	Items          []ItemVentaResponse `json:"items,omitempty"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	Descuento      decimal.Decimal     `json:"descuento"`
	Total          decimal.Decimal     `json:"total"`
	MetodoPago     string              `json:"metodo_pago"`
	Estado         string              `json:"estado"`
	MontoPagado    decimal.Decimal     `json:"monto_pagado"`
	MontoPendiente decimal.Decimal     `json:"monto_pendiente"`
	Notas          *string             `json:"notas,omitempty"`
	CreatedAt      string              `json:"created_at"`
}
