package service

import (
	"context"
	"testing"

	"fiadopos/internal/dto"
	"fiadopos/internal/model"
	"fiadopos/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAjustarStock(t *testing.T) {
	f := newFixture(10)
	arroz := f.productoRepo.seed("Arroz 1kg", 20, "3.50")

	mov, err := f.inventario.AjustarStockTx(context.Background(), nil, arroz.ID, -8, "venta test", nil)
	require.NoError(t, err)

	assert.Equal(t, model.MovimientoSalida, mov.Tipo)
	assert.Equal(t, 8, mov.Cantidad)
	assert.Equal(t, 20, mov.StockAnterior)
	assert.Equal(t, 12, mov.StockNuevo)
	assert.Equal(t, 12, f.productoRepo.productos[arroz.ID].StockActual)

	mov, err = f.inventario.AjustarStockTx(context.Background(), nil, arroz.ID, 5, "reposición", nil)
	require.NoError(t, err)
	assert.Equal(t, model.MovimientoEntrada, mov.Tipo)
	assert.Equal(t, 17, mov.StockNuevo)
}

func TestAjustarStockInsuficiente(t *testing.T) {
	f := newFixture(10)
	arroz := f.productoRepo.seed("Arroz 1kg", 3, "3.50")

	_, err := f.inventario.AjustarStockTx(context.Background(), nil, arroz.ID, -4, "venta test", nil)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, f.productoRepo.productos[arroz.ID].StockActual)
	assert.Empty(t, f.movimientoRepo.movimientos)
}

// Draining to exactly zero is allowed; only a negative result is rejected.
func TestAjustarStockHastaCero(t *testing.T) {
	f := newFixture(10)
	arroz := f.productoRepo.seed("Arroz 1kg", 3, "3.50")

	mov, err := f.inventario.AjustarStockTx(context.Background(), nil, arroz.ID, -3, "venta test", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, mov.StockNuevo)
}

func TestAjustarStockProductoDesconocido(t *testing.T) {
	f := newFixture(10)
	_, err := f.inventario.AjustarStockTx(context.Background(), nil, uuid.New(), -1, "venta test", nil)
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestAjusteManual(t *testing.T) {
	f := newFixture(10)
	arroz := f.productoRepo.seed("Arroz 1kg", 10, "3.50")

	resp, err := f.inventario.AjusteManual(context.Background(), arroz.ID, dto.AjusteManualRequest{
		Delta:  -2,
		Motivo: "producto dañado en bodega",
	})
	require.NoError(t, err)

	assert.Equal(t, "salida", resp.Tipo)
	assert.Equal(t, 8, resp.StockNuevo)
	assert.Contains(t, resp.Motivo, "ajuste manual")
	assert.Equal(t, 8, f.productoRepo.productos[arroz.ID].StockActual)
}

func TestAjusteManualDeltaCero(t *testing.T) {
	f := newFixture(10)
	arroz := f.productoRepo.seed("Arroz 1kg", 10, "3.50")

	_, err := f.inventario.AjusteManual(context.Background(), arroz.ID, dto.AjusteManualRequest{
		Delta:  0,
		Motivo: "sin efecto",
	})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

// The running trail must reconcile: for every movement,
// StockNuevo − StockAnterior equals the signed delta, and the last StockNuevo
// equals the product's current stock.
func TestMovimientosReconcilian(t *testing.T) {
	f := newFixture(10)
	arroz := f.productoRepo.seed("Arroz 1kg", 50, "3.50")

	deltas := []int{-5, -3, 10, -7}
	for _, d := range deltas {
		_, err := f.inventario.AjustarStockTx(context.Background(), nil, arroz.ID, d, "test", nil)
		require.NoError(t, err)
	}

	resp, err := f.inventario.ListarMovimientos(context.Background(), repository.MovimientoStockFilter{
		ProductoID: &arroz.ID,
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, len(deltas))

	saldo := 50
	for i, mov := range resp.Data {
		saldo += deltas[i]
		assert.Equal(t, saldo, mov.StockNuevo)
	}
	assert.Equal(t, saldo, f.productoRepo.productos[arroz.ID].StockActual)
}
