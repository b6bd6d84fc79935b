package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tareas/internal/app"
	"tareas/internal/config"
	"tareas/internal/logger"
)

func main() {
	configPath := flag.String("config", "config.yml", "ruta del fichero de configuración")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuración: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg)
	if err := application.Init(ctx); err != nil {
		logger.Error("Main: Error al inicializar la aplicación", err)
		application.Close()
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("Main: La aplicación terminó con error", err)
		os.Exit(1)
	}
	logger.Info("Main: Servidor detenido")
}
