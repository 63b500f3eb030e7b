package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"surveyadmin/internal/app"
	"surveyadmin/internal/db"
)

func main() {
	cfg := app.LoadConfig()
	if cfg.MissingAnswer == nil {
		log.Printf("warning: USER_DID_NOT_ANSWER is unset; exports of surveys with skipped answers will fail")
	}

	ctx := context.Background()
	dbConn, err := db.OpenPostgresWithConfig(ctx, cfg.DBDSN, cfg.Postgres())
	if err != nil {
		log.Printf("database error: %v", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := db.EnsureSchema(ctx, dbConn); err != nil {
		log.Printf("schema error: %v", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.NewRouter(cfg, dbConn),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("surveyadmin web listening on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}
