package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"

	"github.com/versemark/versemark/internal/gateway"
	"github.com/versemark/versemark/internal/logging"
)

func main() {
	listenAddr := flag.String("listen", ":8090", "bind address")
	origin := flag.String("origin", "http://127.0.0.1:8080", "upstream origin url")
	publicHost := flag.String("public-host", "", "host the gateway answers for; other hosts are passed through")
	cacheDir := flag.String("cache-dir", "gateway-cache", "directory for the response cache")
	fetchTimeout := flag.Duration("fetch-timeout", 10*time.Second, "upstream fetch timeout")
	flag.Parse()

	_ = godotenv.Load()

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	cache, err := gateway.NewCacheStore(*cacheDir, 256, 5*time.Minute)
	if err != nil {
		log.Fatalf("cache init: %v", err)
	}

	g, err := gateway.New(gateway.Config{
		Origin:       *origin,
		PublicHost:   *publicHost,
		FetchTimeout: *fetchTimeout,
	}, cache, logger)
	if err != nil {
		log.Fatalf("gateway init: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(slogger))
	e.Use(middleware.Recover())
	g.Register(e)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(*listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("gateway: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown error", "err", err)
	}
}
