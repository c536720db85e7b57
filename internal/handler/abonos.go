package handler

import (
	"net/http"

	"fiadopos/internal/apierror"
	"fiadopos/internal/dto"
	"fiadopos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AbonosHandler struct {
	svc service.CreditoService
}

func NewAbonosHandler(svc service.CreditoService) *AbonosHandler {
	return &AbonosHandler{svc: svc}
}

// RegistrarAbono godoc
// @Summary      Registrar un abono sobre una venta a crédito
// @Description  Aplica un pago parcial al saldo pendiente. Los sobrepagos se rechazan, nunca se recortan.
// @Tags         abonos
// @Accept       json
// @Produce      json
// @Param        id   path string true "UUID de la venta"
// @Param        body body dto.RegistrarAbonoRequest true "Detalle del abono"
// @Success      201  {object} dto.AbonoResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/ventas/{id}/abonos [post]
func (h *AbonosHandler) RegistrarAbono(c *gin.Context) {
	ventaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.RegistrarAbonoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarAbono(c.Request.Context(), ventaID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarAbonos godoc
// @Summary      Listar abonos de una venta
// @Tags         abonos
// @Produce      json
// @Param        id path string true "UUID de la venta"
// @Success      200 {array} dto.AbonoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ventas/{id}/abonos [get]
func (h *AbonosHandler) ListarAbonos(c *gin.Context) {
	ventaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	abonos, err := h.svc.ListarAbonos(c.Request.Context(), ventaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, abonos)
}
