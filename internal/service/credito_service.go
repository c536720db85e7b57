package service

import (
	"context"
	"errors"

	"fiadopos/internal/dto"
	"fiadopos/internal/model"
	"fiadopos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreditoService applies installment payments (abonos) against outstanding
// balances and serves the read-only debt rollups.
type CreditoService interface {
	RegistrarAbono(ctx context.Context, ventaID uuid.UUID, req dto.RegistrarAbonoRequest) (*dto.AbonoResponse, error)
	ListarAbonos(ctx context.Context, ventaID uuid.UUID) ([]dto.AbonoResponse, error)
	DeudaCliente(ctx context.Context, clienteID uuid.UUID) (*dto.DeudaClienteResponse, error)
	ResumenCartera(ctx context.Context) (*dto.ResumenCarteraResponse, error)
}

type creditoService struct {
	ventaRepo   repository.VentaRepository
	abonoRepo   repository.AbonoRepository
	clienteRepo repository.ClienteRepository
}

func NewCreditoService(
	ventaRepo repository.VentaRepository,
	abonoRepo repository.AbonoRepository,
	clienteRepo repository.ClienteRepository,
) CreditoService {
	return &creditoService{ventaRepo: ventaRepo, abonoRepo: abonoRepo, clienteRepo: clienteRepo}
}

// ── RegistrarAbono ────────────────────────────────────────────────────────────
// One transaction: lock the venta row, validate the amount against the pending
// balance (overpayment is rejected outright, never clamped), insert the abono,
// and rewrite (monto_pagado, monto_pendiente, estado) as a unit. A violated
// post-condition aborts the whole transaction with ConsistencyError.

func (s *creditoService) RegistrarAbono(ctx context.Context, ventaID uuid.UUID, req dto.RegistrarAbonoRequest) (*dto.AbonoResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, &ValidationError{Msg: "cliente_id inválido"}
	}
	if !req.Monto.IsPositive() {
		return nil, &ValidationError{Msg: "el monto del abono debe ser mayor a cero"}
	}

	var abono model.Abono
	var nuevoPendiente decimal.Decimal
	var nuevoEstado model.EstadoPago

	txErr := runTx(ctx, s.ventaRepo.DB(), func(tx *gorm.DB) error {
		// Lock: two concurrent abonos must not both fit into one balance.
		venta, err := s.ventaRepo.FindByIDForUpdateTx(tx, ventaID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Recurso: "venta"}
			}
			return err
		}
		if venta.ClienteID != clienteID {
			return &ValidationError{Msg: "el abono no corresponde al cliente de la venta"}
		}
		if req.Monto.GreaterThan(venta.MontoPendiente) {
			return &ValidationError{Msg: "el abono excede el saldo pendiente de la venta"}
		}

		abono = model.Abono{
			VentaID:    ventaID,
			ClienteID:  clienteID,
			Monto:      req.Monto,
			MetodoPago: req.MetodoPago,
			Notas:      req.Notas,
		}
		if err := s.abonoRepo.CreateTx(tx, &abono); err != nil {
			return err
		}

		nuevoPagado := venta.MontoPagado.Add(req.Monto)
		nuevoPendiente = venta.Total.Sub(nuevoPagado)
		nuevoEstado = model.DerivarEstado(venta.Total, nuevoPagado)

		// Defensive post-condition — should be unreachable given the checks
		// above; a violation is fatal, never silently repaired.
		if !nuevoPagado.Add(nuevoPendiente).Equal(venta.Total) || nuevoPendiente.IsNegative() {
			return &ConsistencyError{
				Detalle: "pagado + pendiente != total tras abono en venta " + ventaID.String(),
			}
		}

		return s.ventaRepo.UpdatePagoTx(tx, ventaID, nuevoPagado, nuevoPendiente, nuevoEstado)
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := abonoToResponse(&abono)
	resp.NuevoSaldoPendiente = nuevoPendiente
	resp.EstadoVenta = string(nuevoEstado)
	return resp, nil
}

// ── ListarAbonos ──────────────────────────────────────────────────────────────

func (s *creditoService) ListarAbonos(ctx context.Context, ventaID uuid.UUID) ([]dto.AbonoResponse, error) {
	venta, err := s.ventaRepo.FindByID(ctx, ventaID)
	if err != nil {
		return nil, &NotFoundError{Recurso: "venta"}
	}
	abonos, err := s.abonoRepo.ListByVenta(ctx, ventaID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AbonoResponse, 0, len(abonos))
	for i := range abonos {
		resp := abonoToResponse(&abonos[i])
		resp.NuevoSaldoPendiente = venta.MontoPendiente
		resp.EstadoVenta = string(venta.Estado)
		items = append(items, *resp)
	}
	return items, nil
}

// ── DeudaCliente ──────────────────────────────────────────────────────────────
// Derived entirely from current Venta rows, which eliminates drift: the total
// is the live sum of monto_pendiente over the client's open sales.

func (s *creditoService) DeudaCliente(ctx context.Context, clienteID uuid.UUID) (*dto.DeudaClienteResponse, error) {
	cliente, err := s.clienteRepo.FindByID(ctx, clienteID)
	if err != nil {
		return nil, &NotFoundError{Recurso: "cliente"}
	}

	ventas, err := s.ventaRepo.FindDeudasPorCliente(ctx, clienteID)
	if err != nil {
		return nil, err
	}

	deudas := make([]dto.VentaResponse, 0, len(ventas))
	total := decimal.Zero
	for i := range ventas {
		deudas = append(deudas, *ventaToResponse(&ventas[i]))
		total = total.Add(ventas[i].MontoPendiente)
	}
	return &dto.DeudaClienteResponse{
		ClienteID:  clienteID.String(),
		Cliente:    cliente.Nombre,
		Deudas:     deudas,
		TotalDeuda: total,
	}, nil
}

// ── ResumenCartera ────────────────────────────────────────────────────────────

func (s *creditoService) ResumenCartera(ctx context.Context) (*dto.ResumenCarteraResponse, error) {
	resumen, err := s.ventaRepo.ResumenCartera(ctx)
	if err != nil {
		return nil, err
	}
	porEstado := make(map[string]int64, len(resumen.PorEstado))
	for estado, cantidad := range resumen.PorEstado {
		porEstado[string(estado)] = cantidad
	}
	return &dto.ResumenCarteraResponse{
		VentasPendientes:    resumen.VentasPendientes,
		MontoPendienteTotal: resumen.MontoPendiente,
		ClientesConDeuda:    resumen.ClientesConDeuda,
		PorEstado:           porEstado,
	}, nil
}

func abonoToResponse(a *model.Abono) *dto.AbonoResponse {
	return &dto.AbonoResponse{
		ID:         a.ID.String(),
		VentaID:    a.VentaID.String(),
		ClienteID:  a.ClienteID.String(),
		Monto:      a.Monto,
		MetodoPago: a.MetodoPago,
		Notas:      a.Notas,
		CreatedAt:  a.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
