package main

import (
	"fmt"
	"log"

	"buildtrack/internal/config"
	"buildtrack/internal/database"
	"buildtrack/internal/server"
)

func main() {
	cfg := config.Load()
	database.Init(cfg.DBDSN)

	if cfg.BootstrapAdmin {
		if err := database.BootstrapAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
	}

	r := server.NewRouter(cfg)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("starting server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
