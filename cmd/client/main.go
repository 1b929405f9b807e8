package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophnotes/internal/client/cli"
	"github.com/dmitrijs2005/gophnotes/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewAppFromConfig(ctx, cfg, os.Stdin, os.Stdout, os.Stderr)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
