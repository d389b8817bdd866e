// Package config loads process-wide settings once at startup. Values
// come from defaults, an optional config file, and VETTA_* environment
// variables, in increasing priority. The legacy WHISPER_SOCK variable
// is honored for the worker socket path.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultStrategy    = "local"
	DefaultSocketPath  = "/tmp/whisper.sock"
	DefaultLanguage    = "en"
	DefaultDialTimeout = 5 * time.Second

	// DefaultInitialPrompt biases the model toward the vocabulary of
	// an earnings call.
	DefaultInitialPrompt = "Earnings call transcript. Financial terminology, company names, analyst questions and management responses."
)

// Config is immutable after Load from the rest of the process's point
// of view.
type Config struct {
	Strategy      string
	SocketPath    string
	DialTimeout   time.Duration
	Language      string
	InitialPrompt string
	Diarization   bool
	NumSpeakers   int
}

// Load reads configuration from the given file, or from an optional
// ./vetta.yaml when file is empty. A named file that cannot be read is
// an error; a missing default file is not.
func Load(file string) (Config, error) {
	v := viper.New()

	v.SetDefault("stt.strategy", DefaultStrategy)
	v.SetDefault("stt.socket", DefaultSocketPath)
	v.SetDefault("stt.dial_timeout", DefaultDialTimeout)
	v.SetDefault("stt.language", DefaultLanguage)
	v.SetDefault("stt.initial_prompt", DefaultInitialPrompt)
	v.SetDefault("stt.diarization", false)
	v.SetDefault("stt.num_speakers", 2)

	v.SetEnvPrefix("VETTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("stt.socket", "VETTA_STT_SOCKET", "WHISPER_SOCK"); err != nil {
		return Config{}, err
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("vetta")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return Config{
		Strategy:      v.GetString("stt.strategy"),
		SocketPath:    v.GetString("stt.socket"),
		DialTimeout:   v.GetDuration("stt.dial_timeout"),
		Language:      v.GetString("stt.language"),
		InitialPrompt: v.GetString("stt.initial_prompt"),
		Diarization:   v.GetBool("stt.diarization"),
		NumSpeakers:   v.GetInt("stt.num_speakers"),
	}, nil
}
