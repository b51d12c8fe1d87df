package main

import (
	"log"
	"net/http"
	"os"

	"github.com/azumag/JSMKC-sub006/internal/db"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dsn := os.Getenv("BRACKET_DB")
	if dsn == "" {
		dsn = "finals_bracket.db?_journal_mode=WAL"
	}

	database := db.InitDB(dsn)
	defer database.Close()

	if err := db.RunMigrations(database.DB, "migrations"); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	router := newRouter(database)

	log.Println("Server starting on", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal(err)
	}
}
