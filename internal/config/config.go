// Package config resolves runtime settings from command-line flags and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/temirov/fsviz/internal/commands"
)

const (
	// MaxDepthFlagName names the flag bounding traversal depth.
	MaxDepthFlagName = "max-depth"
	// NoColorFlagName names the flag disabling console decoration.
	NoColorFlagName = "no-color"

	// EnvironmentPrefix prefixes every environment variable read by LoadSettings.
	EnvironmentPrefix = "FSVIZ"
	// DefaultMaxDepth is the depth bound applied when neither flag nor environment sets one.
	DefaultMaxDepth = commands.DefaultMaxDepth

	noColorConventionKey      = "no-color-convention"
	noColorConventionVariable = "NO_COLOR"

	errorBindFlagFormat     = "binding flag %s: %w"
	errorBindEnvFormat      = "binding environment for %s: %w"
	errorInvalidDepthFormat = "%w: %d"
)

// ErrInvalidMaxDepth is returned when the resolved depth bound is below one.
var ErrInvalidMaxDepth = errors.New("max depth must be at least 1")

// Settings holds the values that may come from flags or the environment.
type Settings struct {
	MaxDepth int
	NoColor  bool
}

// LoadSettings resolves Settings with precedence flag, environment, default.
// FSVIZ_MAX_DEPTH and FSVIZ_NO_COLOR are read when the matching flag is not set;
// a non-empty NO_COLOR also disables decoration.
func LoadSettings(flagSet *pflag.FlagSet) (Settings, error) {
	reader := viper.New()
	reader.SetEnvPrefix(EnvironmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	reader.AutomaticEnv()
	reader.SetDefault(MaxDepthFlagName, DefaultMaxDepth)
	reader.SetDefault(NoColorFlagName, false)

	for _, flagName := range []string{MaxDepthFlagName, NoColorFlagName} {
		if flagSet == nil {
			break
		}
		flag := flagSet.Lookup(flagName)
		if flag == nil {
			continue
		}
		if bindError := reader.BindPFlag(flagName, flag); bindError != nil {
			return Settings{}, fmt.Errorf(errorBindFlagFormat, flagName, bindError)
		}
	}
	if bindError := reader.BindEnv(noColorConventionKey, noColorConventionVariable); bindError != nil {
		return Settings{}, fmt.Errorf(errorBindEnvFormat, noColorConventionKey, bindError)
	}

	settings := Settings{
		MaxDepth: reader.GetInt(MaxDepthFlagName),
		NoColor:  reader.GetBool(NoColorFlagName),
	}
	if !settings.NoColor && !flagChanged(flagSet, NoColorFlagName) && reader.GetString(noColorConventionKey) != "" {
		settings.NoColor = true
	}
	if settings.MaxDepth < 1 {
		return Settings{}, fmt.Errorf(errorInvalidDepthFormat, ErrInvalidMaxDepth, settings.MaxDepth)
	}
	return settings, nil
}

func flagChanged(flagSet *pflag.FlagSet, flagName string) bool {
	if flagSet == nil {
		return false
	}
	return flagSet.Changed(flagName)
}
