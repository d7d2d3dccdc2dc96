package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DBDSN            string
	TemplatesDir     string
	StaticDir        string
	LogFile          string
	OrderMaxAttempts int
	OrderRateLimit   int // per IP per minute on POST /api/order
}

func Load() Config {
	// .env is optional; real environment wins
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[warn] could not read .env: %v", err)
	}

	cfg := Config{
		Port:             getenv("PORT", "3000"),
		DBDSN:            getenv("DB_DSN", "./data/ecom.db"),
		TemplatesDir:     getenv("TEMPLATES_DIR", "./web/templates"),
		StaticDir:        getenv("STATIC_DIR", "./web/static"),
		LogFile:          os.Getenv("LOG_FILE"),
		OrderMaxAttempts: getint("ORDER_MAX_ATTEMPTS", 3),
		OrderRateLimit:   getint("ORDER_RATE_LIMIT", 60),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s TEMPLATES_DIR=%s STATIC_DIR=%s LOG_FILE=%s ORDER_MAX_ATTEMPTS=%d ORDER_RATE_LIMIT=%d",
		cfg.Port, cfg.DBDSN, cfg.TemplatesDir, cfg.StaticDir, cfg.LogFile, cfg.OrderMaxAttempts, cfg.OrderRateLimit)
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[warn] ignoring %s=%q, using %d", k, v, def)
		return def
	}
	return n
}
