package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/DRSN-tech/ferreteria-backend/internal/app"
	config "github.com/DRSN-tech/ferreteria-backend/internal/cfg"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/joho/godotenv"
)

//	@title			Ferreteria API
//	@version		1.0
//	@description	Каталог товаров, сканирование штрихкодов и рекомендации.
//	@BasePath		/api/v1
func main() {
	// .env читается до логгера, чтобы LOG_LEVEL и LOG_FORMAT из него применились
	envErr := godotenv.Load()
	log := logger.NewSlogLogger()
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Warnf("failed to read .env: %v", envErr)
	}

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
