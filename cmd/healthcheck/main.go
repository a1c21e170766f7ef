// healthcheck hace GET /health contra el servicio local; exit 0 si responde "ok".
// Pensado para HEALTHCHECK de contenedores sin curl.
package main

import (
	"context"
	"os"
	"time"

	"livestock-tracking/internal/platform/httpclient"
	"livestock-tracking/internal/platform/logger"
)

func main() {
	log, err := logger.NewFromEnv()
	if err != nil {
		os.Exit(1)
	}

	base := os.Getenv("HEALTHCHECK_URL")
	if base == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		base = "http://127.0.0.1:" + port
	}

	c, err := httpclient.New(base, 3*time.Second)
	if err != nil {
		log.Error("invalid healthcheck url", map[string]any{"url": base, "err": err})
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var out struct {
		Status  string `json:"status"`
		Storage string `json:"storage"`
	}
	if err := c.Get(ctx, "/health", &out); err != nil {
		log.Error("unhealthy", map[string]any{"err": err, "status": httpclient.StatusCode(err)})
		os.Exit(1)
	}
	if out.Status != "ok" {
		log.Error("unhealthy", map[string]any{"status": out.Status})
		os.Exit(1)
	}
	log.Debug("healthy", map[string]any{"storage": out.Storage})
}
