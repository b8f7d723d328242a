package main

import (
	"log"

	"github.com/m3rciful/quizbot/core/bootstrap"
	corecmd "github.com/m3rciful/quizbot/core/cmd"
	"github.com/m3rciful/quizbot/quizbot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return quizbot.LoadConfig(path)
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg := carrier.(*quizbot.Config)
			res, err := bootstrap.Run(bootstrap.Options{
				Config:      cfg.CoreConfig(),
				Database:    cfg.Database,
				UseDatabase: cfg.UsesDatabase(),
			})
			if err != nil {
				return nil, err
			}
			return quizbot.New(cfg, res.DB)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
