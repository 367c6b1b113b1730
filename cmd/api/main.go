package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/jugueria-api/docs"
	"github.com/jhoicas/jugueria-api/internal/application/entities"
	"github.com/jhoicas/jugueria-api/internal/application/orders"
	"github.com/jhoicas/jugueria-api/internal/application/promotions"
	"github.com/jhoicas/jugueria-api/internal/application/users"
	"github.com/jhoicas/jugueria-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/jugueria-api/internal/interfaces/http"
	"github.com/jhoicas/jugueria-api/pkg/config"
	"github.com/jhoicas/jugueria-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("conexión a la base de datos")
	}
	defer db.Close()

	if cfg.App.MigrateOnStart {
		m, err := db.Migrator(log.Component("migrate"))
		if err != nil {
			log.Fatal().Err(err).Msg("migrador")
		}
		if err := m.Up(ctx); err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
	}

	registry := entities.NewRegistry(entities.Options{Logger: log.Component("engine")})
	orderSvc := orders.NewService(registry, db.Store, log.Component("orders"))
	promoSvc := promotions.NewService(registry, db.Store, log.Component("promotions"))
	userSvc := users.NewService(registry, db.Store, log.Component("users"))

	app := httpRouter.NewApp(cfg.App.Name, log.Component("http"))

	// Swagger UI en local: http://localhost:<port>/docs
	httpRouter.Docs(app, "Juguería API", docs.SwaggerJSON)

	httpRouter.Router(app, httpRouter.RouterDeps{
		Registry:   registry,
		Store:      db.Store,
		Orders:     orderSvc,
		Promotions: promoSvc,
		Users:      userSvc,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
