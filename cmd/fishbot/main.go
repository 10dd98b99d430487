// Command fishbot runs the Fish-shop Telegram bot.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/nstonic/Fish-bot/core/cmd"
	"github.com/nstonic/Fish-bot/shop/app"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			cfg, err := app.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg, ok := carrier.(*app.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			return app.Bootstrap(ctx, cfg)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
