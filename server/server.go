package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Herwig9820/TCP-client-server/config"
	"github.com/Herwig9820/TCP-client-server/lib"
)

func main() {
	// Define command-line flags
	configFile := flag.String("config", "config.yaml", "Configuration file path")
	flag.Parse()

	cfg, err := config.ReadConfig(*configFile)
	if err != nil {
		log.Fatalln("Configuration file error:", err)
	}
	cfg.Role = config.RoleServer

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalln("Error creating logger:", err)
	}
	defer logger.Sync()
	diag := lib.NewZapDiag(logger)

	listener := lib.NewTCPListener(diag)
	defer listener.Close()

	drivers := lib.Drivers{
		Link:     lib.NewHostLink(cfg.Interface),
		Listener: listener,
	}

	coordinator, err := lib.NewCoordinator(cfg, drivers, diag, lib.SystemClock)
	if err != nil {
		log.Fatalln("Error creating coordinator:", err)
	}
	logger.Info("TCP server started", zap.Int("listenPort", cfg.ListenPort))

	// Handle Ctrl+C signal for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		logger.Info("Received interrupt. Shutting down...")
		cancel()
	}()

	coordinator.Run(ctx, cfg.TickInterval())

	st := coordinator.Session().Stats()
	logger.Info("TCP server stopped",
		zap.Uint32("linkConnects", st.LinkConnects),
		zap.Uint32("transportConnects", st.TransportConnects),
		zap.Uint32("errors", st.Errors))
}
