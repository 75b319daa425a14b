package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophsecrets/internal/admin"
	"github.com/dmitrijs2005/gophsecrets/internal/buildinfo"
	"github.com/dmitrijs2005/gophsecrets/internal/logging"
	"github.com/dmitrijs2005/gophsecrets/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stderr)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.Development)

	app, err := admin.NewApp(cfg, os.Stdin, os.Stdout, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = app.Run(ctx, os.Args[1:])
	app.Close()
	if err != nil {
		log.Fatalf("%v", err)
	}

}
