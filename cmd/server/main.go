package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/trainerhub/backend/internal/config"
	"github.com/trainerhub/backend/internal/database"
	"github.com/trainerhub/backend/internal/handlers"
	"github.com/trainerhub/backend/internal/middleware"
	"github.com/trainerhub/backend/internal/services"
	"github.com/trainerhub/backend/pkg/logger"
	"github.com/trainerhub/backend/pkg/utils"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB, cfg.Seed)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	auditService := services.NewAuditService(db)
	documentService := services.NewDocumentService(db, cfg.Documents.Types)

	authHandler := handlers.NewAuthHandler(db, auditService)
	usersHandler := handlers.NewUsersHandler(db, documentService, auditService)
	documentsHandler := handlers.NewDocumentsHandler(db, documentService, auditService)

	app := fiber.New(fiber.Config{BodyLimit: 1 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.CORSOrigins))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	api := app.Group(cfg.Server.APIPrefix)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	api.Post("/auth/login", authHandler.Login)

	api.Get("/me", middleware.RequireAuth, authHandler.Me)
	api.Patch("/me", middleware.RequireAuth, authHandler.UpdateMe)
	api.Patch("/me/password", middleware.RequireAuth, authHandler.ChangePassword)

	api.Get("/documents", middleware.RequireAuth, documentsHandler.Mine)

	adminRoutes := api.Group("/admin/users", middleware.RequireAuth, middleware.AdminOnly)
	adminRoutes.Get("/", usersHandler.List)
	adminRoutes.Post("/", usersHandler.Create)
	adminRoutes.Get("/:email", usersHandler.Get)
	adminRoutes.Get("/:email/documents", documentsHandler.AdminGet)
	adminRoutes.Put("/:email/documents", documentsHandler.AdminPut)
	adminRoutes.Patch("/:email", usersHandler.SetActive)
	adminRoutes.Patch("/:email/profile", usersHandler.UpdateProfile)
	adminRoutes.Patch("/:email/password", usersHandler.ResetPassword)
	adminRoutes.Delete("/:email", usersHandler.Delete)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
		"prefix":  cfg.Server.APIPrefix,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
