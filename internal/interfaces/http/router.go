package http

import (
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/jhoicas/jugueria-api/internal/application/entities"
	"github.com/jhoicas/jugueria-api/internal/application/orders"
	"github.com/jhoicas/jugueria-api/internal/application/promotions"
	"github.com/jhoicas/jugueria-api/internal/application/users"
	"github.com/jhoicas/jugueria-api/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Registry   *entities.Registry
	Store      repository.RecordStore
	Orders     *orders.Service
	Promotions *promotions.Service
	Users      *users.Service
}

// NewApp crea la aplicación Fiber con el manejo de errores y middlewares comunes.
func NewApp(name string, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      name,
		Immutable:    true,
		ErrorHandler: ErrorHandler,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(RequestLogger(log))
	return app
}

// Docs sirve la UI de Swagger en /docs y la especificación en /docs/swagger.json.
func Docs(app *fiber.App, title string, spec []byte) {
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FilePath:    "./docs/swagger.json",
		FileContent: spec,
		Path:        "docs",
		Title:       title,
	}))
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": app.Config().AppName})
	})

	api := app.Group("/api")

	// CRUD genérico por entidad
	tables := api.Group("/tables")
	tableHandler := NewTableHandler(deps.Registry, deps.Store)
	tables.Get("/:entity", tableHandler.List)
	tables.Post("/:entity", tableHandler.Create)
	tables.Get("/:entity/:id", tableHandler.GetByID)
	tables.Put("/:entity/:id", tableHandler.Update)
	tables.Patch("/:entity/:id", tableHandler.Patch)
	tables.Delete("/:entity/:id", tableHandler.Delete)

	// Pedidos y ventas
	orderHandler := NewOrderHandler(deps.Orders)
	pedidos := api.Group("/pedidos")
	pedidos.Post("/completo", orderHandler.CreateWithProducts)
	pedidos.Get("/estadisticas", orderHandler.Stats)
	pedidos.Get("/:id/completo", orderHandler.GetWithProducts)
	pedidos.Patch("/:id/estado", orderHandler.UpdateStatus)
	pedidos.Post("/:id/venta", orderHandler.CreateSale)

	ventas := api.Group("/ventas")
	ventas.Get("/estadisticas", orderHandler.SalesStats)
	ventas.Get("/reporte-diario", orderHandler.DailyReport)
	ventas.Get("/top-productos", orderHandler.TopProducts)

	// Promociones
	promoHandler := NewPromotionHandler(deps.Promotions)
	promos := api.Group("/promociones")
	promos.Post("/", promoHandler.Create)
	promos.Get("/activas", promoHandler.Active)
	promos.Get("/estadisticas", promoHandler.Stats)
	promos.Get("/tipo/:tipo", promoHandler.ByType)
	promos.Post("/:id/descuento", promoHandler.CalculateDiscount)
	promos.Patch("/:id/toggle", promoHandler.ToggleActive)
	promos.Patch("/:id/extender", promoHandler.Extend)
	promos.Get("/:id/productos", promoHandler.Products)
	promos.Put("/:id/productos", promoHandler.SetProducts)
	promos.Put("/:id", promoHandler.Update)

	// Usuarios
	userHandler := NewUserHandler(deps.Users)
	usuarios := api.Group("/usuarios")
	usuarios.Post("/autenticar", userHandler.Authenticate)
	usuarios.Post("/reset-password", userHandler.ResetPassword)
	usuarios.Get("/estadisticas", userHandler.Stats)
	usuarios.Get("/tipo/:tipo", userHandler.ByType)
	usuarios.Patch("/:id/password", userHandler.ChangePassword)
	usuarios.Patch("/:id/toggle", userHandler.ToggleActive)
}
