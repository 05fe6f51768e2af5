package main

import (
	"context"
	"flag"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	llmclient "metacx/internal/llmClient"
	"metacx/internal/orchestrator"
)

func main() {
	port := flag.String("port", ":8080", "server port")
	flag.Parse()

	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	backend := llmclient.ResolveBackend()
	llm, err := backend.NewClient(context.Background())
	if err != nil {
		logger.Fatal("model backend init failed", zap.Error(err))
	}
	if llm != nil {
		llm = llmclient.Wrap(llm,
			llmclient.WithLogging(logger),
			llmclient.WithTimeout(60*time.Second),
		)
		defer llm.Close()
		logger.Info("model backend ready", zap.String("client", llm.Name()))
	} else {
		logger.Info("no model backend configured, generation is rule-based")
	}

	srv := newServer(orchestrator.New(llm, logger), logger)
	h := withCORS(srv.routes())

	logger.Info("starting API server", zap.String("port", *port))
	if err := http.ListenAndServe(*port, h2c.NewHandler(h, &http2.Server{})); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// Simple CORS middleware
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
