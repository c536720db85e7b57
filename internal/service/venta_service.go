package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"fiadopos/internal/dto"
	"fiadopos/internal/model"
	"fiadopos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Notificador is the external notification collaborator. Dispatches are
// fire-and-forget: failures are logged and never affect the outcome of the
// operation that triggered them.
type Notificador interface {
	AlertaStockBajo(ctx context.Context, producto string, stockActual int) error
	EnviarRecibo(ctx context.Context, ventaID uuid.UUID, email string) error
}

type VentaService interface {
	RegistrarVenta(ctx context.Context, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	ListVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	AnularVenta(ctx context.Context, id uuid.UUID) error
}

type ventaService struct {
	repo         repository.VentaRepository
	clienteRepo  repository.ClienteRepository
	productoRepo repository.ProductoRepository
	inventario   InventarioService
	notificador  Notificador
	umbralStock  int
}

func NewVentaService(
	repo repository.VentaRepository,
	clienteRepo repository.ClienteRepository,
	productoRepo repository.ProductoRepository,
	inventario InventarioService,
	notificador Notificador,
	umbralStock int,
) VentaService {
	return &ventaService{
		repo:         repo,
		clienteRepo:  clienteRepo,
		productoRepo: productoRepo,
		inventario:   inventario,
		notificador:  notificador,
		umbralStock:  umbralStock,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// Full ACID sale creation:
//   1. Resolve cliente; the general/walk-in client only accepts fully paid sales
//   2. Resolve each product, compute subtotal, validate discount and deposit
//   3. Derive estado from (total, monto_pagado) — caller hints terms, not state
//   4. BEGIN TX: create venta+items (+abono inicial), descontar stock per item
//      through the ledger primitive
//   5. COMMIT
//   6. (async) low-stock alerts and receipt email — best effort

func (s *ventaService) RegistrarVenta(ctx context.Context, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, &ValidationError{Msg: "cliente_id inválido"}
	}
	cliente, err := s.clienteRepo.FindByID(ctx, clienteID)
	if err != nil {
		return nil, &NotFoundError{Recurso: "cliente"}
	}

	if len(req.Items) == 0 {
		return nil, &ValidationError{Msg: "la venta debe tener al menos un item"}
	}

	// Resolve products and calculate totals (pre-flight, outside TX). The
	// authoritative stock check happens again under the row lock inside the TX.
	type resolvedItem struct {
		productoID uuid.UUID
		nombre     string
		precio     decimal.Decimal
		cantidad   int
		subtotal   decimal.Decimal
	}

	var resolved []resolvedItem
	subtotal := decimal.Zero

	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return nil, &ValidationError{Msg: "producto_id inválido"}
		}
		p, err := s.productoRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, &NotFoundError{Recurso: "producto"}
		}
		if !p.Activo {
			return nil, &ValidationError{Msg: fmt.Sprintf("el producto %s está inactivo y no puede venderse", p.Nombre)}
		}
		if p.StockActual < item.Cantidad {
			return nil, &InsufficientStockError{
				Producto:   p.Nombre,
				Solicitado: item.Cantidad,
				Disponible: p.StockActual,
			}
		}
		lineSubtotal := item.PrecioUnitario.Mul(decimal.NewFromInt(int64(item.Cantidad)))
		subtotal = subtotal.Add(lineSubtotal)
		resolved = append(resolved, resolvedItem{
			productoID: pid,
			nombre:     p.Nombre,
			precio:     item.PrecioUnitario,
			cantidad:   item.Cantidad,
			subtotal:   lineSubtotal,
		})
	}

	// Lock products in a stable order: two concurrent sales listing the same
	// products in opposite cart order must not deadlock on the row locks.
	sort.Slice(resolved, func(i, j int) bool {
		return bytes.Compare(resolved[i].productoID[:], resolved[j].productoID[:]) < 0
	})

	if req.Descuento.IsNegative() {
		return nil, &ValidationError{Msg: "el descuento no puede ser negativo"}
	}
	if req.Descuento.GreaterThan(subtotal) {
		return nil, &ValidationError{Msg: "el descuento excede el subtotal de la venta"}
	}
	total := subtotal.Sub(req.Descuento)

	// Determine monto pagado. Contado settles the full total; credito opens a
	// balance, optionally seeded with an initial deposit.
	pagado := total
	if req.TipoPago == "credito" {
		pagado = decimal.Zero
		if req.MontoPagado != nil {
			pagado = *req.MontoPagado
		}
		if pagado.IsNegative() {
			return nil, &ValidationError{Msg: "el monto pagado no puede ser negativo"}
		}
		if pagado.GreaterThan(total) {
			return nil, &ValidationError{Msg: "el monto pagado excede el total de la venta"}
		}
	}
	pendiente := total.Sub(pagado)
	estado := model.DerivarEstado(total, pagado)

	if cliente.EsGeneral() && estado != model.EstadoPagada {
		return nil, &ValidationError{Msg: "no se permiten ventas a crédito al cliente general"}
	}

	// ACID transaction: venta + items (+abono inicial) + stock per item.
	// Any failure rolls back every effect already staged.
	var venta model.Venta
	var alertas []*model.MovimientoStock
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		venta = model.Venta{
			ClienteID:      clienteID,
			Subtotal:       subtotal,
			Descuento:      req.Descuento,
			Total:          total,
			MetodoPago:     req.MetodoPago,
			Estado:         estado,
			MontoPagado:    pagado,
			MontoPendiente: pendiente,
			Notas:          req.Notas,
		}
		for _, r := range resolved {
			venta.Items = append(venta.Items, model.VentaItem{
				ProductoID:     r.productoID,
				Cantidad:       r.cantidad,
				PrecioUnitario: r.precio,
				Subtotal:       r.subtotal,
			})
		}
		// Credit sale with an initial deposit: record it in the abono ledger
		// so the sum of abonos always equals monto_pagado.
		if pagado.IsPositive() && estado != model.EstadoPagada {
			notas := "abono inicial"
			venta.Abonos = append(venta.Abonos, model.Abono{
				ClienteID:  clienteID,
				Monto:      pagado,
				MetodoPago: req.MetodoPago,
				Notas:      &notas,
			})
		}

		if err := s.repo.Create(ctx, tx, &venta); err != nil {
			return err
		}

		ref := &model.ReferenciaMovimiento{Tipo: model.RefVenta, ID: venta.ID}
		for _, r := range resolved {
			mov, err := s.inventario.AjustarStockTx(ctx, tx, r.productoID, -r.cantidad,
				fmt.Sprintf("venta %s", venta.ID), ref)
			if err != nil {
				return fmt.Errorf("error descontando stock de %s: %w", r.nombre, err)
			}
			if mov.StockNuevo < s.umbralStock {
				alertas = append(alertas, mov)
			}
		}
		return nil
	})
	if txErr != nil {
		// Unwrap typed ledger errors wrapped inside the stock loop.
		var stockErr *InsufficientStockError
		if errors.As(txErr, &stockErr) {
			return nil, stockErr
		}
		var notFound *NotFoundError
		if errors.As(txErr, &notFound) {
			return nil, notFound
		}
		return nil, txErr
	}

	// Best-effort side effects — decoupled from the transaction's outcome.
	if s.notificador != nil {
		for _, mov := range alertas {
			nombre := ""
			if mov.Producto != nil {
				nombre = mov.Producto.Nombre
			}
			if err := s.notificador.AlertaStockBajo(ctx, nombre, mov.StockNuevo); err != nil {
				log.Warn().Err(err).Str("producto", nombre).Msg("no se pudo despachar alerta de stock bajo")
			}
		}
		if req.ClienteEmail != nil && *req.ClienteEmail != "" {
			if err := s.notificador.EnviarRecibo(ctx, venta.ID, *req.ClienteEmail); err != nil {
				log.Warn().Err(err).Str("venta_id", venta.ID.String()).Msg("no se pudo despachar recibo")
			}
		}
	}

	resp := ventaToResponse(&venta)
	resp.Cliente = cliente.Nombre
	for i, r := range resolved {
		resp.Items[i].Producto = r.nombre
	}
	return resp, nil
}

// ── ObtenerVenta ──────────────────────────────────────────────────────────────

func (s *ventaService) ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Recurso: "venta"}
	}
	return ventaToResponse(venta), nil
}

// ── ListVentas ────────────────────────────────────────────────────────────────
// Paginated list filtered by fecha, estado and cliente. Default: today.

func (s *ventaService) ListVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Estado != "" && filter.Estado != "all" && !model.EstadoPago(filter.Estado).Valido() {
		return nil, &ValidationError{Msg: "estado inválido: " + filter.Estado}
	}
	ventas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		items = append(items, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── AnularVenta ───────────────────────────────────────────────────────────────
// Compensating deletion: restores stock per line item through the ledger, then
// removes abonos, items, and the venta itself. Destructive by design — only
// the restoring StockMovement rows remain as a trail. Not idempotent: a second
// call finds no venta and fails with NotFoundError.

func (s *ventaService) AnularVenta(ctx context.Context, id uuid.UUID) error {
	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return &NotFoundError{Recurso: "venta"}
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Re-take the venta under a row lock: two concurrent anulaciones must
		// not both restore the same cart. The loser blocks here and finds the
		// row already gone. Items are immutable, so the pre-flight load stays
		// valid once the row is confirmed alive.
		if _, err := s.repo.FindByIDForUpdateTx(tx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Recurso: "venta"}
			}
			return err
		}

		ref := &model.ReferenciaMovimiento{Tipo: model.RefVenta, ID: venta.ID}
		for _, item := range venta.Items {
			if _, err := s.inventario.AjustarStockTx(ctx, tx, item.ProductoID, item.Cantidad,
				fmt.Sprintf("anulación de venta %s", venta.ID), ref); err != nil {
				return err
			}
		}
		return s.repo.DeleteTx(tx, venta.ID)
	})
}

// ── Mappers ───────────────────────────────────────────────────────────────────

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, item := range v.Items {
		nombre := ""
		if item.Producto != nil {
			nombre = item.Producto.Nombre
		}
		items = append(items, dto.ItemVentaResponse{
			Producto:       nombre,
			ProductoID:     item.ProductoID.String(),
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       item.Subtotal,
		})
	}
	resp := &dto.VentaResponse{
		ID:             v.ID.String(),
		ClienteID:      v.ClienteID.String(),
		Items:          items,
		Subtotal:       v.Subtotal,
		Descuento:      v.Descuento,
		Total:          v.Total,
		MetodoPago:     v.MetodoPago,
		Estado:         string(v.Estado),
		MontoPagado:    v.MontoPagado,
		MontoPendiente: v.MontoPendiente,
		Notas:          v.Notas,
		CreatedAt:      v.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if v.Cliente != nil {
		resp.Cliente = v.Cliente.Nombre
	}
	return resp
}
