package dto

import "github.com/shopspring/decimal"

// DeudaClienteResponse lists a client's open sales and their combined debt,
// derived entirely from current Venta rows — no separate running balance.
type DeudaClienteResponse struct {
	ClienteID  string          `json:"cliente_id"`
	Cliente    string          `json:"cliente"`
	Deudas     []VentaResponse `json:"deudas"`
	TotalDeuda decimal.Decimal `json:"total_deuda"`
}

// ResumenCarteraResponse is the portfolio-wide rollup over sales with
// estado in {pendiente, parcial}.
type ResumenCarteraResponse struct {
	VentasPendientes    int64            `json:"ventas_pendientes"`
	MontoPendienteTotal decimal.Decimal  `json:"monto_pendiente_total"`
	ClientesConDeuda    int64            `json:"clientes_con_deuda"`
	PorEstado           map[string]int64 `json:"por_estado"`
}
