package handler

import (
	"net/http"
	"strconv"

	"fiadopos/internal/apierror"
	"fiadopos/internal/dto"
	"fiadopos/internal/repository"
	"fiadopos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventarioHandler struct {
	svc service.InventarioService
}

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// AjusteManual godoc
// @Summary      Corrección manual de stock
// @Description  Aplica un delta al stock de un producto. Pasa por el mismo ledger que las ventas: toda corrección deja un movimiento de auditoría.
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Param        id   path string true "UUID del producto"
// @Param        body body dto.AjusteManualRequest true "Delta y motivo"
// @Success      200  {object} dto.MovimientoStockResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/productos/{id}/stock [patch]
func (h *InventarioHandler) AjusteManual(c *gin.Context) {
	productoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.AjusteManualRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AjusteManual(c.Request.Context(), productoID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarMovimientos godoc
// @Summary      Listar movimientos de stock
// @Description  Trail de auditoría del inventario, más reciente primero.
// @Tags         inventario
// @Produce      json
// @Param        producto_id query string false "UUID del producto"
// @Param        tipo        query string false "entrada | salida | ajuste"
// @Param        page        query int    false "Página (default 1)"
// @Param        limit       query int    false "Registros por página (default 100)"
// @Success      200 {object} dto.MovimientoListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/inventario/movimientos [get]
func (h *InventarioHandler) ListarMovimientos(c *gin.Context) {
	var filter repository.MovimientoStockFilter

	if raw := c.Query("producto_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("producto_id invalido"))
			return
		}
		filter.ProductoID = &pid
	}
	filter.Tipo = c.Query("tipo")
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))

	resp, err := h.svc.ListarMovimientos(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
