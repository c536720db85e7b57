package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"fiadopos/internal/apierror"
	"fiadopos/internal/dto"
	"fiadopos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	carteraCacheKey = "cartera:resumen"
	carteraCacheTTL = 30 * time.Second
)

type CarteraHandler struct {
	svc service.CreditoService
	rdb *redis.Client
}

func NewCarteraHandler(svc service.CreditoService, rdb *redis.Client) *CarteraHandler {
	return &CarteraHandler{svc: svc, rdb: rdb}
}

// DeudaCliente godoc
// @Summary      Deuda pendiente de un cliente
// @Description  Suma en vivo de monto_pendiente sobre las ventas abiertas del cliente.
// @Tags         cartera
// @Produce      json
// @Param        id path string true "UUID del cliente"
// @Success      200 {object} dto.DeudaClienteResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/clientes/{id}/deuda [get]
func (h *CarteraHandler) DeudaCliente(c *gin.Context) {
	clienteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.DeudaCliente(c.Request.Context(), clienteID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResumenCartera godoc
// @Summary      Resumen de la cartera de crédito
// @Description  Conteos y saldos agregados por estado. Cacheado en Redis por 30s; el cache es best-effort y nunca bloquea la respuesta.
// @Tags         cartera
// @Produce      json
// @Success      200 {object} dto.ResumenCarteraResponse
// @Router       /v1/cartera/resumen [get]
func (h *CarteraHandler) ResumenCartera(c *gin.Context) {
	ctx := c.Request.Context()

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, carteraCacheKey).Bytes(); err == nil {
			var resp dto.ResumenCarteraResponse
			if json.Unmarshal(cached, &resp) == nil {
				c.Header("X-Cache", "HIT")
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	resp, err := h.svc.ResumenCartera(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.rdb != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := h.rdb.Set(ctx, carteraCacheKey, payload, carteraCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("no se pudo cachear el resumen de cartera")
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}
