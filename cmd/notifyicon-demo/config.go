package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "NOTIFYICON"

type config struct {
	Icon            string `mapstructure:"icon"`
	ToolTip         string `mapstructure:"tooltip"`
	StandardToolTip bool   `mapstructure:"standard-tooltip"`
	Watch           bool   `mapstructure:"watch"`
	Debug           bool   `mapstructure:"debug"`
}

func registerFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.String("icon", "", "icon file shown in the notification area")
	flags.String("tooltip", "notifyicon demo", "tooltip text")
	flags.Bool("standard-tooltip", true, "use the shell's standard tooltip")
	flags.Bool("watch", false, "reload the icon when its file changes")
	flags.Bool("debug", false, "enable debug logging")
}

// loadConfig merges flags, NOTIFYICON_* environment variables and the
// optional config file, in that order of precedence.
func loadConfig(v *viper.Viper, flags *pflag.FlagSet) (*config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &cfg, nil
}
