package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/financetrackr/backend/src/ai"
	"github.com/username/financetrackr/backend/src/config"
	"github.com/username/financetrackr/backend/src/extractor"
	"github.com/username/financetrackr/backend/src/handlers"
	"github.com/username/financetrackr/backend/src/logger"
	"github.com/username/financetrackr/backend/src/services"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

// Limiters are kept per client IP and expire after a quiet period.
var limiterCache = cache.New(10*time.Minute, 15*time.Minute)

// getLimiter returns the limiter for ip, creating it on first sight. Add is
// atomic, so concurrent first requests from one IP settle on a single
// limiter instead of each inserting their own.
func getLimiter(ip string) *rate.Limiter {
	if cached, found := limiterCache.Get(ip); found {
		return cached.(*rate.Limiter)
	}
	fresh := rate.NewLimiter(rate.Limit(config.Cfg.RateLimitRPS), config.Cfg.RateLimitBurst)
	if err := limiterCache.Add(ip, fresh, cache.DefaultExpiration); err != nil {
		if cached, found := limiterCache.Get(ip); found {
			return cached.(*rate.Limiter)
		}
	}
	return fresh
}

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !getLimiter(ip).Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(config.Cfg.AllowedOrigins))
	for _, origin := range config.Cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	if err := config.LoadConfig(); err != nil {
		stdlog.Fatalf("Configuration error: %v", err)
	}
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("FinanceTrackr PDF parser service starting...")

	aiClient, err := ai.NewClient(context.Background(), ai.Config{
		Region:          config.Cfg.AWSRegion,
		AccessKeyID:     config.Cfg.AWSAccessKeyID,
		SecretAccessKey: config.Cfg.AWSSecretAccessKey,
		ModelID:         config.Cfg.BedrockModelID,
	})
	if err != nil {
		logger.L.Error("Failed to initialize Bedrock client", "error", err)
		os.Exit(1)
	}
	logger.L.Info("Bedrock client ready", "model", config.Cfg.BedrockModelID, "region", config.Cfg.AWSRegion)

	pdfExtractor := extractor.New()
	statementService := services.NewStatementService(pdfExtractor, aiClient, config.Cfg.MaxTextLength)
	statementHandler := handlers.NewStatementHandler(statementService, config.Cfg.MaxUploadSizeBytes)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "FinanceTrackr PDF parser is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/pdf/parse", statementHandler.HandleParse)
		r.Get("/pdf/health", statementHandler.HandleHealth)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Write covers the Bedrock round trip, which can run past a minute
		// on long statements.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr, "allowedOrigins", config.Cfg.AllowedOrigins)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
