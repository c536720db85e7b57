package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"fiadopos/internal/apierror"
	"fiadopos/internal/dto"
	"fiadopos/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const precioCacheTTL = 60 * time.Second

// ConsultaPreciosHandler serves the price-check kiosk endpoint. Lookups hit a
// short Redis cache first; stock figures may lag by at most the TTL.
type ConsultaPreciosHandler struct {
	productoRepo repository.ProductoRepository
	rdb          *redis.Client
}

func NewConsultaPreciosHandler(productoRepo repository.ProductoRepository, rdb *redis.Client) *ConsultaPreciosHandler {
	return &ConsultaPreciosHandler{productoRepo: productoRepo, rdb: rdb}
}

// ConsultarPrecio godoc
// @Summary      Consultar precio por código de barras
// @Tags         precios
// @Produce      json
// @Param        codigo path string true "Código de barras"
// @Success      200 {object} dto.ConsultaPrecioResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/precio/{codigo} [get]
func (h *ConsultaPreciosHandler) ConsultarPrecio(c *gin.Context) {
	ctx := c.Request.Context()
	codigo := c.Param("codigo")
	cacheKey := "precio:" + codigo

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.ConsultaPrecioResponse
			if json.Unmarshal(cached, &resp) == nil {
				c.Header("X-Cache", "HIT")
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	p, err := h.productoRepo.FindByBarcode(ctx, codigo)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("producto no encontrado"))
		return
	}

	resp := dto.ConsultaPrecioResponse{
		Nombre:          p.Nombre,
		PrecioVenta:     p.PrecioVenta,
		StockDisponible: p.StockActual,
	}
	if h.rdb != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := h.rdb.Set(ctx, cacheKey, payload, precioCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Str("codigo", codigo).Msg("no se pudo cachear la consulta de precio")
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}
