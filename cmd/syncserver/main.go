// cmd/syncserver is a reference sync sequencer for local development and
// integration tests. It is deliberately not a production sequencing
// service: no persistence, no auth, no horizontal scaling — just enough of
// the server side of the sync protocol to drive a real replica's sync
// engine against something other than a mock.
//
// Example:
//
//	./syncserver --addr :8090
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"crdtkv/internal/rlog"
)

func main() {
	addr := flag.String("addr", ":8090", "listen address (host:port)")
	jsonLogs := flag.Bool("json-logs", false, "emit logs as JSON instead of console format")
	flag.Parse()

	rlog.Init(rlog.Config{Level: rlog.InfoLevel, JSONOutput: *jsonLogs})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(recovery(), requestLogger())

	seq := NewSequencer()
	NewHandler(seq).Register(r)

	srv := &http.Server{Addr: *addr, Handler: r}

	go func() {
		rlog.Logger.Info().Str("addr", *addr).Msg("syncserver listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			rlog.Logger.Fatal().Err(err).Msg("syncserver exited")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		rlog.Logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
