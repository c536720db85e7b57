package service

import (
	"context"
	"sync"
	"testing"

	"fiadopos/internal/dto"
	"fiadopos/internal/model"
	"fiadopos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repositories. Every DB() returns nil so runTx executes the closure
// directly without a real transaction.

type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) seed(nombre string, stock int, precio string) *model.Producto {
	p := &model.Producto{
		ID:           uuid.New(),
		CodigoBarras: uuid.NewString(),
		Nombre:       nombre,
		PrecioCosto:  decimal.RequireFromString(precio),
		PrecioVenta:  decimal.RequireFromString(precio),
		StockActual:  stock,
		Activo:       true,
	}
	r.productos[p.ID] = p
	return p
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) FindByBarcode(_ context.Context, barcode string) (*model.Producto, error) {
	for _, p := range r.productos {
		if p.CodigoBarras == barcode && p.Activo {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductoRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StockActual += delta
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

type stubClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
}

func newStubClienteRepo() *stubClienteRepo {
	r := &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
	r.clientes[model.ClienteGeneralID] = &model.Cliente{
		ID: model.ClienteGeneralID, Nombre: "Cliente General", Activo: true,
	}
	return r
}

func (r *stubClienteRepo) seed(nombre string) *model.Cliente {
	c := &model.Cliente{ID: uuid.New(), Nombre: nombre, Activo: true}
	r.clientes[c.ID] = c
	return c
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

type stubVentaRepo struct {
	ventas map[uuid.UUID]*model.Venta
}

func newStubVentaRepo() *stubVentaRepo {
	return &stubVentaRepo{ventas: make(map[uuid.UUID]*model.Venta)}
}

func (r *stubVentaRepo) Create(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	for i := range v.Items {
		if v.Items[i].ID == uuid.Nil {
			v.Items[i].ID = uuid.New()
		}
		v.Items[i].VentaID = v.ID
	}
	for i := range v.Abonos {
		if v.Abonos[i].ID == uuid.Nil {
			v.Abonos[i].ID = uuid.New()
		}
		v.Abonos[i].VentaID = v.ID
	}
	r.ventas[v.ID] = v
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVentaRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubVentaRepo) UpdatePagoTx(_ *gorm.DB, id uuid.UUID, pagado, pendiente decimal.Decimal, estado model.EstadoPago) error {
	v, ok := r.ventas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.MontoPagado = pagado
	v.MontoPendiente = pendiente
	v.Estado = estado
	return nil
}

func (r *stubVentaRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.ventas, id)
	return nil
}

func (r *stubVentaRepo) List(_ context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var out []model.Venta
	for _, v := range r.ventas {
		if filter.Estado != "" && filter.Estado != "all" && string(v.Estado) != filter.Estado {
			continue
		}
		if filter.ClienteID != "" && v.ClienteID.String() != filter.ClienteID {
			continue
		}
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *stubVentaRepo) FindDeudasPorCliente(_ context.Context, clienteID uuid.UUID) ([]model.Venta, error) {
	var out []model.Venta
	for _, v := range r.ventas {
		if v.ClienteID == clienteID && v.Estado != model.EstadoPagada {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *stubVentaRepo) ResumenCartera(_ context.Context) (*repository.ResumenCartera, error) {
	resumen := &repository.ResumenCartera{
		MontoPendiente: decimal.Zero,
		PorEstado:      make(map[model.EstadoPago]int64),
	}
	clientes := make(map[uuid.UUID]struct{})
	for _, v := range r.ventas {
		if v.Estado == model.EstadoPagada {
			continue
		}
		resumen.VentasPendientes++
		resumen.MontoPendiente = resumen.MontoPendiente.Add(v.MontoPendiente)
		resumen.PorEstado[v.Estado]++
		clientes[v.ClienteID] = struct{}{}
	}
	resumen.ClientesConDeuda = int64(len(clientes))
	return resumen, nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

type stubAbonoRepo struct {
	abonos []model.Abono
}

func (r *stubAbonoRepo) CreateTx(_ *gorm.DB, a *model.Abono) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.abonos = append(r.abonos, *a)
	return nil
}

func (r *stubAbonoRepo) ListByVenta(_ context.Context, ventaID uuid.UUID) ([]model.Abono, error) {
	var out []model.Abono
	for _, a := range r.abonos {
		if a.VentaID == ventaID {
			out = append(out, a)
		}
	}
	return out, nil
}

var _ repository.AbonoRepository = (*stubAbonoRepo)(nil)

type stubMovimientoRepo struct {
	movimientos []model.MovimientoStock
}

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) List(_ context.Context, filter repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	var out []model.MovimientoStock
	for _, m := range r.movimientos {
		if filter.ProductoID != nil && m.ProductoID != *filter.ProductoID {
			continue
		}
		if filter.Tipo != "" && string(m.Tipo) != filter.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

// stubNotificador records dispatched notifications for assertion.
type stubNotificador struct {
	mu      sync.Mutex
	alertas []string
	recibos []string
}

func (n *stubNotificador) AlertaStockBajo(_ context.Context, producto string, _ int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alertas = append(n.alertas, producto)
	return nil
}

func (n *stubNotificador) EnviarRecibo(_ context.Context, ventaID uuid.UUID, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recibos = append(n.recibos, ventaID.String())
	return nil
}

var _ Notificador = (*stubNotificador)(nil)

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	productoRepo   *stubProductoRepo
	clienteRepo    *stubClienteRepo
	ventaRepo      *stubVentaRepo
	abonoRepo      *stubAbonoRepo
	movimientoRepo *stubMovimientoRepo
	notificador    *stubNotificador

	inventario InventarioService
	ventas     VentaService
	credito    CreditoService
}

func newFixture(umbral int) *fixture {
	f := &fixture{
		productoRepo:   newStubProductoRepo(),
		clienteRepo:    newStubClienteRepo(),
		ventaRepo:      newStubVentaRepo(),
		abonoRepo:      &stubAbonoRepo{},
		movimientoRepo: &stubMovimientoRepo{},
		notificador:    &stubNotificador{},
	}
	f.inventario = NewInventarioService(f.productoRepo, f.movimientoRepo)
	f.ventas = NewVentaService(f.ventaRepo, f.clienteRepo, f.productoRepo, f.inventario, f.notificador, umbral)
	f.credito = NewCreditoService(f.ventaRepo, f.abonoRepo, f.clienteRepo)
	return f
}
