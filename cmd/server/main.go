package main

import (
	"context"
	"log"
	"os"

	"github.com/encryptshare/encryptshare/internal/buildinfo"
	"github.com/encryptshare/encryptshare/internal/server"
	"github.com/encryptshare/encryptshare/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
