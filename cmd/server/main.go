package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/curconv/auth-service/internal/auth"
	"github.com/curconv/auth-service/internal/config"
	"github.com/curconv/auth-service/internal/database"
	"github.com/curconv/auth-service/internal/handler"
	"github.com/curconv/auth-service/internal/repository"
	"github.com/curconv/auth-service/internal/router"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	// Create tables and seed the Admin/User role catalog. Registration
	// depends on the User role existing, so a failure here is fatal.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	signer, err := auth.NewTokenSigner(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience,
		time.Duration(cfg.AccessTTLMin)*time.Minute)
	if err != nil {
		log.Fatalf("token signer: %v", err)
	}

	store := repository.NewStore(db)
	refresh := auth.NewRefreshManager(store, signer, time.Duration(cfg.RefreshTTLDays)*24*time.Hour)
	svc := auth.NewService(store, signer, refresh)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(svc), signer)
	router.RegisterAdmin(e, handler.NewAdminHandler(svc), signer)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
