package cmd

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// initConfig reads the config file given with --config, or ~/.xcat3.yaml
// when it exists. Flags and environment variables take precedence.
func initConfig() {
	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Debugf("Could not find home directory: %v", err)
			return
		}
		file = filepath.Join(home, ".xcat3.yaml")
		if _, err := os.Stat(file); err != nil {
			return
		}
		viper.SetConfigFile(file)
	}

	if err := viper.ReadInConfig(); err != nil {
		log.Warnf("Could not read config file: %v", err)
		return
	}
	log.Debugf("Using config file %s", viper.ConfigFileUsed())
}
