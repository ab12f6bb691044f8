// cmd/api/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"libralend/internal/auth"
	"libralend/internal/lending"
	"libralend/internal/store"
	"libralend/internal/textimport"
)

func main() {
	ctx := context.Background()

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
		if err != nil {
			log.Fatalf("Failed to create OTLP exporter: %v", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(tp)
		defer tp.Shutdown(ctx)
	}

	gate, err := auth.NewGate(
		getEnv("ADMIN_PASSWORD", "loan123"),
		[]byte(getEnv("JWT_SECRET", "dev_secret_change_in_prod")),
	)
	if err != nil {
		log.Fatalf("Failed to initialize admin gate: %v", err)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Println("GEMINI_API_KEY not set; text import will be unavailable")
	}
	parser := textimport.NewGeminiParser(apiKey)

	st := store.NewStore(store.SampleState())
	svc := lending.NewService(st)
	handler := lending.NewHandler(svc, parser)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Post("/auth/login", gate.HandleLogin)
	handler.Register(router, gate.Middleware)

	port := getEnv("PORT", "8080")
	fmt.Printf("Starting lending service on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
