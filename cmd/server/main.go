package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/handlers"
	"github.com/shrimpsizemoose/semla/internal/metrics"
	"github.com/shrimpsizemoose/semla/internal/views"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if err := service.Store.ApplyMigrations(service.Config.Database.MigrationsDir); err != nil {
		logger.Error.Fatalf("Failed to apply migrations: %v", err)
	}

	if count, err := service.Store.CountStudents(); err == nil {
		metrics.RosterSize.Set(float64(count))
	} else {
		logger.Debug.Printf("Failed to read roster size: %v", err)
	}

	renderer, err := views.New()
	if err != nil {
		logger.Error.Fatalf("Failed to parse templates: %v", err)
	}

	studentHandler := handlers.NewStudentHandler(service, renderer)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /students/new", handlers.WithMetrics("/students/new", studentHandler.ShowCreateForm))
	mux.HandleFunc("POST /students/new", handlers.WithMetrics("/students/new", studentHandler.HandleCreate))
	mux.HandleFunc("GET /students/find", handlers.WithMetrics("/students/find", studentHandler.ShowFindForm))
	mux.HandleFunc("GET /students", handlers.WithMetrics("/students", studentHandler.HandleFind))
	mux.HandleFunc("GET /students/{id}/edit", handlers.WithMetrics("/students/{id}/edit", studentHandler.ShowEditForm))
	mux.HandleFunc("POST /students/{id}/edit", handlers.WithMetrics("/students/{id}/edit", studentHandler.HandleEdit))
	mux.HandleFunc("GET /students/{id}/delete", handlers.WithMetrics("/students/{id}/delete", studentHandler.HandleDelete))
	mux.HandleFunc("GET /students/{id}", handlers.WithMetrics("/students/{id}", studentHandler.ShowDetail))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/students/find", http.StatusFound)
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         service.Config.Server.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info.Printf("Starting semla server on %s", service.Config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error.Fatalf("Semla server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info.Println("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error.Printf("Failed to shut down cleanly: %v", err)
	}
}
