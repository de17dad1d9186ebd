package utils

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	log "github.com/sirupsen/logrus"
)

// EnvName returns the environment variable bound to a config key,
// XCAT3_URL for xcat3-url and XCAT3_MAX_RETRIES for max-retries.
func EnvName(name string) string {
	env := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if strings.HasPrefix(env, "XCAT3") {
		return env
	}
	return "XCAT3_" + env
}

func bind(cmd *cobra.Command, name string) {
	err := viper.BindPFlag(name, cmd.PersistentFlags().Lookup(name))
	if err != nil {
		log.Warnf("Could not bind flag to viper: %v", err)
	}
	err = viper.BindEnv(name, EnvName(name))
	if err != nil {
		log.Warnf("Could not bind viper value to env: %v", err)
	}
}

// StringConfig adds a string flag to a cli
func StringConfig(cmd *cobra.Command, name, short, value, description string) {
	cmd.PersistentFlags().StringP(name, short, value, description)
	bind(cmd, name)
}

// BoolConfig adds a bool flag to a cli
func BoolConfig(cmd *cobra.Command, name, short string, value bool, description string) {
	cmd.PersistentFlags().BoolP(name, short, value, description)
	bind(cmd, name)
}

// IntConfig adds an int flag to a cli
func IntConfig(cmd *cobra.Command, name, short string, value int, description string) {
	cmd.PersistentFlags().IntP(name, short, value, description)
	bind(cmd, name)
}

// DurationConfig adds a duration flag to a cli
func DurationConfig(cmd *cobra.Command, name, short string, value time.Duration, description string) {
	cmd.PersistentFlags().DurationP(name, short, value, description)
	bind(cmd, name)
}
