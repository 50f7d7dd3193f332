package ioc

import (
	"github.com/spf13/viper"
	"github.com/tradelens/alert-engine/internal/service/push/expo"
)

func InitPushCli() *expo.Service {
	type Config struct {
		URL   string `mapstructure:"url"`
		Token string `mapstructure:"token"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("push", &cfg); err != nil {
		panic(err)
	}
	if cfg.URL == "" {
		panic("no push relay url set")
	}

	return expo.NewService(cfg.URL, cfg.Token)
}
