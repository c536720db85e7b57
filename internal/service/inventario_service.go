package service

import (
	"context"
	"errors"

	"fiadopos/internal/dto"
	"fiadopos/internal/model"
	"fiadopos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventarioService is the stock ledger. AjustarStockTx is the single
// primitive through which stock ever changes: it checks sufficiency under a
// row lock, updates the product, and writes the audit movement in the same
// transaction — the two writes are never observably separated.
type InventarioService interface {
	// AjustarStockTx applies delta to a product inside the caller's transaction.
	// Negative results fail with *InsufficientStockError and change nothing.
	AjustarStockTx(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, delta int, motivo string, ref *model.ReferenciaMovimiento) (*model.MovimientoStock, error)
	// AjusteManual is the administrative correction path; it opens its own
	// transaction around the same primitive.
	AjusteManual(ctx context.Context, productoID uuid.UUID, req dto.AjusteManualRequest) (*dto.MovimientoStockResponse, error)
	ListarMovimientos(ctx context.Context, filter repository.MovimientoStockFilter) (*dto.MovimientoListResponse, error)
}

type inventarioService struct {
	productoRepo   repository.ProductoRepository
	movimientoRepo repository.MovimientoStockRepository
}

func NewInventarioService(productoRepo repository.ProductoRepository, movimientoRepo repository.MovimientoStockRepository) InventarioService {
	return &inventarioService{productoRepo: productoRepo, movimientoRepo: movimientoRepo}
}

func (s *inventarioService) AjustarStockTx(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, delta int, motivo string, ref *model.ReferenciaMovimiento) (*model.MovimientoStock, error) {
	// Row lock: two concurrent adjustments against the same product must not
	// both read the same pre-change stock and both pass the sufficiency check.
	p, err := s.productoRepo.FindByIDForUpdateTx(tx, productoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Recurso: "producto"}
		}
		return nil, err
	}

	nuevo := p.StockActual + delta
	if nuevo < 0 {
		return nil, &InsufficientStockError{
			Producto:   p.Nombre,
			Solicitado: -delta,
			Disponible: p.StockActual,
		}
	}

	if err := s.productoRepo.UpdateStockTx(tx, productoID, delta); err != nil {
		return nil, err
	}

	cantidad := delta
	if cantidad < 0 {
		cantidad = -cantidad
	}
	mov := &model.MovimientoStock{
		ProductoID:    productoID,
		Tipo:          model.TipoPorDelta(delta),
		Cantidad:      cantidad,
		StockAnterior: p.StockActual,
		StockNuevo:    nuevo,
		Motivo:        motivo,
	}
	if ref != nil {
		refID := ref.ID
		mov.ReferenciaTipo = &ref.Tipo
		mov.ReferenciaID = &refID
	}
	if err := s.movimientoRepo.CreateTx(tx, mov); err != nil {
		return nil, err
	}

	// Carry the name forward for low-stock alerting without a second fetch.
	mov.Producto = p
	return mov, nil
}

func (s *inventarioService) AjusteManual(ctx context.Context, productoID uuid.UUID, req dto.AjusteManualRequest) (*dto.MovimientoStockResponse, error) {
	if req.Delta == 0 {
		return nil, &ValidationError{Msg: "el delta de un ajuste manual no puede ser cero"}
	}

	var mov *model.MovimientoStock
	txErr := runTx(ctx, s.productoRepo.DB(), func(tx *gorm.DB) error {
		var err error
		mov, err = s.AjustarStockTx(ctx, tx, productoID, req.Delta, "ajuste manual: "+req.Motivo, nil)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return movimientoToResponse(mov), nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, filter repository.MovimientoStockFilter) (*dto.MovimientoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	movimientos, total, err := s.movimientoRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovimientoStockResponse, 0, len(movimientos))
	for i := range movimientos {
		items = append(items, *movimientoToResponse(&movimientos[i]))
	}
	return &dto.MovimientoListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func movimientoToResponse(m *model.MovimientoStock) *dto.MovimientoStockResponse {
	resp := &dto.MovimientoStockResponse{
		ID:             m.ID.String(),
		ProductoID:     m.ProductoID.String(),
		Tipo:           string(m.Tipo),
		Cantidad:       m.Cantidad,
		StockAnterior:  m.StockAnterior,
		StockNuevo:     m.StockNuevo,
		Motivo:         m.Motivo,
		ReferenciaTipo: m.ReferenciaTipo,
		CreatedAt:      m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if m.Producto != nil {
		resp.Producto = m.Producto.Nombre
	}
	if m.ReferenciaID != nil {
		refID := m.ReferenciaID.String()
		resp.ReferenciaID = &refID
	}
	return resp
}
