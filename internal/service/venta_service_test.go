package service

import (
	"bytes"
	"context"
	"testing"

	"fiadopos/internal/dto"
	"fiadopos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ventaRequest(clienteID string, items ...dto.ItemVentaRequest) dto.RegistrarVentaRequest {
	return dto.RegistrarVentaRequest{
		ClienteID:  clienteID,
		Items:      items,
		MetodoPago: "efectivo",
	}
}

func item(productoID string, cantidad int, precio string) dto.ItemVentaRequest {
	return dto.ItemVentaRequest{ProductoID: productoID, Cantidad: cantidad, PrecioUnitario: dec(precio)}
}

func TestRegistrarVentaContado(t *testing.T) {
	f := newFixture(10)
	cliente := f.clienteRepo.seed("Marta Díaz")
	arroz := f.productoRepo.seed("Arroz 1kg", 50, "3.50")
	aceite := f.productoRepo.seed("Aceite 1L", 30, "8.00")

	resp, err := f.ventas.RegistrarVenta(context.Background(), ventaRequest(cliente.ID.String(),
		item(arroz.ID.String(), 3, "3.50"),
		item(aceite.ID.String(), 1, "8.00"),
	))
	require.NoError(t, err)

	assert.Equal(t, "pagada", resp.Estado)
	assert.True(t, resp.Total.Equal(dec("18.50")))
	assert.True(t, resp.MontoPagado.Equal(dec("18.50")))
	assert.True(t, resp.MontoPendiente.IsZero())

	// Stock decremented and audited per line.
	assert.Equal(t, 47, f.productoRepo.productos[arroz.ID].StockActual)
	assert.Equal(t, 29, f.productoRepo.productos[aceite.ID].StockActual)
	require.Len(t, f.movimientoRepo.movimientos, 2)
	for _, mov := range f.movimientoRepo.movimientos {
		assert.Equal(t, model.MovimientoSalida, mov.Tipo)
		require.NotNil(t, mov.ReferenciaTipo)
		assert.Equal(t, model.RefVenta, *mov.ReferenciaTipo)
	}

	// A contado sale records no abono: monto_pagado covers it whole.
	venta := f.ventaRepo.ventas[mustUUID(t, resp.ID)]
	assert.Empty(t, venta.Abonos)
}

func TestRegistrarVentaCreditoSinAnticipo(t *testing.T) {
	f := newFixture(10)
	cliente := f.clienteRepo.seed("Pedro Ruiz")
	arroz := f.productoRepo.seed("Arroz 1kg", 50, "3.50")

	req := ventaRequest(cliente.ID.String(), item(arroz.ID.String(), 2, "3.50"))
	req.TipoPago = "credito"

	resp, err := f.ventas.RegistrarVenta(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "pendiente", resp.Estado)
	assert.True(t, resp.MontoPagado.IsZero())
	assert.True(t, resp.MontoPendiente.Equal(dec("7.00")))
}

func TestRegistrarVentaCreditoConAnticipo(t *testing.T) {
	f := newFixture(10)
	cliente := f.clienteRepo.seed("Pedro Ruiz")
	arroz := f.productoRepo.seed("Arroz 1kg", 50, "3.50")

	anticipo := dec("4.00")
	req := ventaRequest(cliente.ID.String(), item(arroz.ID.String(), 4, "3.50"))
	req.TipoPago = "credito"
	req.MontoPagado = &anticipo

	resp, err := f.ventas.RegistrarVenta(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "parcial", resp.Estado)
	assert.True(t, resp.MontoPagado.Equal(dec("4.00")))
	assert.True(t, resp.MontoPendiente.Equal(dec("10.00")))

	// The deposit lands in the abono ledger so Σ abonos == monto_pagado.
	venta := f.ventaRepo.ventas[mustUUID(t, resp.ID)]
	require.Len(t, venta.Abonos, 1)
	assert.True(t, venta.Abonos[0].Monto.Equal(anticipo))
}

func TestRegistrarVentaStockInsuficiente(t *testing.T) {
	f := newFixture(10)
	cliente := f.clienteRepo.seed("Marta Díaz")
	arroz := f.productoRepo.seed("Arroz 1kg", 2, "3.50")

	_, err := f.ventas.RegistrarVenta(context.Background(), ventaRequest(cliente.ID.String(),
		item(arroz.ID.String(), 5, "3.50"),
	))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Solicitado)
	assert.Equal(t, 2, stockErr.Disponible)

	// Nothing persisted, nothing moved.
	assert.Equal(t, 2, f.productoRepo.productos[arroz.ID].StockActual)
	assert.Empty(t, f.ventaRepo.ventas)
	assert.Empty(t, f.movimientoRepo.movimientos)
}

func TestRegistrarVentaRollbackEnSegundoItem(t *testing.T) {
	// The first item has stock but the second does not: pre-flight rejects the
	// whole sale before anything is staged, leaving both products untouched.
	// (The in-transaction rollback of already-staged decrements needs real
	// Postgres and is covered by the integration test.)
	f := newFixture(10)
	cliente := f.clienteRepo.seed("Marta Díaz")
	arroz := f.productoRepo.seed("Arroz 1kg", 50, "3.50")
	aceite := f.productoRepo.seed("Aceite 1L", 1, "8.00")

	_, err := f.ventas.RegistrarVenta(context.Background(), ventaRequest(cliente.ID.String(),
		item(arroz.ID.String(), 1, "3.50"),
		item(aceite.ID.String(), 3, "8.00"),
	))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 50, f.productoRepo.productos[arroz.ID].StockActual)
	assert.Equal(t, 1, f.productoRepo.productos[aceite.ID].StockActual)
	assert.Empty(t, f.ventaRepo.ventas)
	assert.Empty(t, f.movimientoRepo.movimientos)
}

func TestRegistrarVentaCreditoClienteGeneral(t *testing.T) {
	f := newFixture(10)
	arroz := f.productoRepo.seed("Arroz 1kg", 50, "3.50")

	req := ventaRequest(model.ClienteGeneralID.String(), item(arroz.ID.String(), 1, "3.50"))
	req.TipoPago = "credito"

	_, err := f.ventas.RegistrarVenta(context.Background(), req)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Msg, "cliente general")

	// Contado to the general client is fine.
	req.TipoPago = ""
	resp, err := f.ventas.RegistrarVenta(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "pagada", resp.Estado)
}

func TestRegistrarVentaValidaciones(t *testing.T) {
	f := newFixture(10)
	cliente := f.clienteRepo.seed("Marta Díaz")
	arroz := f.productoRepo.seed("Arroz 1kg", 50, "3.50")

	t.Run("carrito vacio", func(t *testing.T) {
		_, err := f.ventas.RegistrarVenta(context.Background(), ventaRequest(cliente.ID.String()))
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
	})

	t.Run("descuento mayor al subtotal", func(t *testing.T) {
		req := ventaRequest(cliente.ID.String(), item(arroz.ID.String(), 1, "3.50"))
		req.Descuento = dec("5.00")
		_, err := f.ventas.RegistrarVenta(context.Background(), req)
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
	})

	t.Run("anticipo mayor al total", func(t *testing.T) {
		anticipo := dec("100.00")
		req := ventaRequest(cliente.ID.String(), item(arroz.ID.String(), 1, "3.50"))
		req.TipoPago = "credito"
		req.MontoPagado = &anticipo
		_, err := f.ventas.RegistrarVenta(context.Background(), req)
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
	})

	t.Run("producto inactivo", func(t *testing.T) {
		inactivo := f.productoRepo.seed("Descontinuado", 10, "1.00")
		f.productoRepo.productos[inactivo.ID].Activo = false
		_, err := f.ventas.RegistrarVenta(context.Background(),
			ventaRequest(cliente.ID.String(), item(inactivo.ID.String(), 1, "1.00")))
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
	})

	t.Run("cliente desconocido", func(t *testing.T) {
		_, err := f.ventas.RegistrarVenta(context.Background(),
			ventaRequest("9f7b9b58-0000-0000-0000-000000000000", item(arroz.ID.String(), 1, "3.50")))
		var nfErr *NotFoundError
		require.ErrorAs(t, err, &nfErr)
	})
}

func TestRegistrarVentaDescuento(t *testing.T) {
	f := newFixture(10)
	cliente := f.clienteRepo.seed("Marta Díaz")
	arroz := f.productoRepo.seed("Arroz 1kg", 50, "3.50")

	req := ventaRequest(cliente.ID.String(), item(arroz.ID.String(), 4, "3.50"))
	req.Descuento = dec("2.00")

	resp, err := f.ventas.RegistrarVenta(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Subtotal.Equal(dec("14.00")))
	assert.True(t, resp.Total.Equal(dec("12.00")))
}

func TestRegistrarVentaAlertaStockBajo(t *testing.T) {
	f := newFixture(10)
	cliente := f.clienteRepo.seed("Marta Díaz")
	arroz := f.productoRepo.seed("Arroz 1kg", 12, "3.50")

	_, err := f.ventas.RegistrarVenta(context.Background(), ventaRequest(cliente.ID.String(),
		item(arroz.ID.String(), 3, "3.50"),
	))
	require.NoError(t, err)

	// 12 − 3 = 9 < umbral 10 — one alert dispatched for the product.
	require.Len(t, f.notificador.alertas, 1)
	assert.Equal(t, "Arroz 1kg", f.notificador.alertas[0])
}

func TestRegistrarVentaDespachaRecibo(t *testing.T) {
	f := newFixture(10)
	cliente := f.clienteRepo.seed("Marta Díaz")
	arroz := f.productoRepo.seed("Arroz 1kg", 50, "3.50")

	email := "marta@example.com"
	req := ventaRequest(cliente.ID.String(), item(arroz.ID.String(), 1, "3.50"))
	req.ClienteEmail = &email

	resp, err := f.ventas.RegistrarVenta(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, f.notificador.recibos, 1)
	assert.Equal(t, resp.ID, f.notificador.recibos[0])
}

func TestAnularVenta(t *testing.T) {
	f := newFixture(10)
	cliente := f.clienteRepo.seed("Pedro Ruiz")
	arroz := f.productoRepo.seed("Arroz 1kg", 50, "3.50")

	resp, err := f.ventas.RegistrarVenta(context.Background(), ventaRequest(cliente.ID.String(),
		item(arroz.ID.String(), 5, "3.50"),
	))
	require.NoError(t, err)
	require.Equal(t, 45, f.productoRepo.productos[arroz.ID].StockActual)

	ventaID := mustUUID(t, resp.ID)
	require.NoError(t, f.ventas.AnularVenta(context.Background(), ventaID))

	// Stock restored, venta gone, both movements (salida + entrada) on record.
	assert.Equal(t, 50, f.productoRepo.productos[arroz.ID].StockActual)
	assert.Empty(t, f.ventaRepo.ventas)
	require.Len(t, f.movimientoRepo.movimientos, 2)
	assert.Equal(t, model.MovimientoEntrada, f.movimientoRepo.movimientos[1].Tipo)

	// Not idempotent: a second anulación finds nothing.
	err = f.ventas.AnularVenta(context.Background(), ventaID)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

// ventaRepoAnulacionCarrera simulates losing the reversal race: the pre-flight
// read still sees the venta, but by the time the transaction takes the row
// lock another anulación has already deleted it.
type ventaRepoAnulacionCarrera struct {
	*stubVentaRepo
	ventaID uuid.UUID
}

func (r *ventaRepoAnulacionCarrera) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	if id == r.ventaID {
		delete(r.ventas, id)
		return nil, gorm.ErrRecordNotFound
	}
	return r.stubVentaRepo.FindByIDForUpdateTx(tx, id)
}

func TestAnularVentaConcurrente(t *testing.T) {
	f := newFixture(10)
	cliente := f.clienteRepo.seed("Pedro Ruiz")
	arroz := f.productoRepo.seed("Arroz 1kg", 50, "3.50")

	resp, err := f.ventas.RegistrarVenta(context.Background(), ventaRequest(cliente.ID.String(),
		item(arroz.ID.String(), 5, "3.50"),
	))
	require.NoError(t, err)
	ventaID := mustUUID(t, resp.ID)

	carrera := &ventaRepoAnulacionCarrera{stubVentaRepo: f.ventaRepo, ventaID: ventaID}
	ventas := NewVentaService(carrera, f.clienteRepo, f.productoRepo, f.inventario, f.notificador, 10)

	// The loser must fail with NotFound and restore nothing.
	err = ventas.AnularVenta(context.Background(), ventaID)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)

	assert.Equal(t, 45, f.productoRepo.productos[arroz.ID].StockActual)
	require.Len(t, f.movimientoRepo.movimientos, 1)
	assert.Equal(t, model.MovimientoSalida, f.movimientoRepo.movimientos[0].Tipo)
}

// Stock rows are always adjusted in product-id order, independent of how the
// cart lists them, so two concurrent sales of overlapping products acquire
// their row locks in the same order and cannot deadlock.
func TestRegistrarVentaOrdenDeAjusteEstable(t *testing.T) {
	f := newFixture(10)
	cliente := f.clienteRepo.seed("Marta Díaz")
	a := f.productoRepo.seed("Arroz 1kg", 50, "3.50")
	b := f.productoRepo.seed("Aceite 1L", 50, "8.00")

	menor, mayor := a, b
	if bytes.Compare(b.ID[:], a.ID[:]) < 0 {
		menor, mayor = b, a
	}

	// Cart lists the higher id first; the ledger must still be hit lower-id first.
	_, err := f.ventas.RegistrarVenta(context.Background(), ventaRequest(cliente.ID.String(),
		item(mayor.ID.String(), 1, "8.00"),
		item(menor.ID.String(), 1, "3.50"),
	))
	require.NoError(t, err)

	require.Len(t, f.movimientoRepo.movimientos, 2)
	assert.Equal(t, menor.ID, f.movimientoRepo.movimientos[0].ProductoID)
	assert.Equal(t, mayor.ID, f.movimientoRepo.movimientos[1].ProductoID)
}

func TestListVentasEstadoInvalido(t *testing.T) {
	f := newFixture(10)
	_, err := f.ventas.ListVentas(context.Background(), dto.VentaFilter{Estado: "cancelada"})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}
