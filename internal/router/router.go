// Package router wires repositories, services, and handlers into the gin
// engine and declares the HTTP surface.
package router

import (
	"time"

	"fiadopos/internal/config"
	"fiadopos/internal/handler"
	"fiadopos/internal/infra"
	"fiadopos/internal/middleware"
	"fiadopos/internal/repository"
	"fiadopos/internal/service"
	"fiadopos/internal/worker"

	_ "fiadopos/docs"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, cb *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute))

	// Repositories
	productoRepo := repository.NewProductoRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	abonoRepo := repository.NewAbonoRepository(db)
	movimientoRepo := repository.NewMovimientoStockRepository(db)

	// Services
	notificador := worker.NewDispatcher(rdb)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoRepo)
	ventaSvc := service.NewVentaService(ventaRepo, clienteRepo, productoRepo, inventarioSvc, notificador, cfg.UmbralStockBajo)
	creditoSvc := service.NewCreditoService(ventaRepo, abonoRepo, clienteRepo)

	// Handlers
	ventasH := handler.NewVentasHandler(ventaSvc, ventaRepo, cfg.PDFStoragePath)
	abonosH := handler.NewAbonosHandler(creditoSvc)
	carteraH := handler.NewCarteraHandler(creditoSvc, rdb)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	preciosH := handler.NewConsultaPreciosHandler(productoRepo, rdb)
	healthH := handler.NewHealthHandler(db, rdb, cb)

	r.GET("/health", healthH.Health)

	v1 := r.Group("/v1")
	{
		ventas := v1.Group("/ventas")
		{
			ventas.POST("", ventasH.RegistrarVenta)
			ventas.GET("", ventasH.ListarVentas)
			ventas.GET("/:id", ventasH.ObtenerVenta)
			ventas.DELETE("/:id", ventasH.AnularVenta)
			ventas.GET("/:id/recibo", ventasH.DescargarRecibo)
			ventas.POST("/:id/abonos", abonosH.RegistrarAbono)
			ventas.GET("/:id/abonos", abonosH.ListarAbonos)
		}

		v1.GET("/clientes/:id/deuda", carteraH.DeudaCliente)
		v1.GET("/cartera/resumen", carteraH.ResumenCartera)

		v1.PATCH("/productos/:id/stock", inventarioH.AjusteManual)
		v1.GET("/inventario/movimientos", inventarioH.ListarMovimientos)

		v1.GET("/precio/:codigo", preciosH.ConsultarPrecio)
	}

	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
