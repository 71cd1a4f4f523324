package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/interview-coach/internal/evaluation"
	"github.com/spigell/interview-coach/internal/screening"
	"github.com/spigell/interview-coach/internal/session"
	"github.com/spigell/interview-coach/internal/storage/redis"
)

const (
	app = "interview-coach"
)

type Config struct {
	Interview    session.Config     `mapstructure:"interview"`
	QuestionBank QuestionBankConfig `mapstructure:"question-bank"`
	Evaluation   evaluation.Config  `mapstructure:"evaluation"`
	Screening    ScreeningConfig    `mapstructure:"screening"`
	Scoring      ScoringConfig      `mapstructure:"scoring"`
	AI           AIConfig           `mapstructure:"ai"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Server       ServerConfig       `mapstructure:"server"`
}

type QuestionBankConfig struct {
	// File replaces the embedded catalog when set.
	File string `mapstructure:"file"`
}

type ScreeningConfig struct {
	screening.Config `mapstructure:",squash"`
	// Disabled lists check names (brief, off_topic, formula) to switch off.
	Disabled []string `mapstructure:"disabled"`
}

type ScoringConfig struct {
	// Weights overrides per-phase weight tables, e.g. weights.scenario.realism.
	Weights map[string]any `mapstructure:"weights"`
}

type AIConfig struct {
	Enabled  bool         `mapstructure:"enabled"`
	Provider string       `mapstructure:"provider"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile        string   `mapstructure:"api-key-file"`
	Model             string   `mapstructure:"model"`
	Temperature       *float32 `mapstructure:"temperature"`
	RequestsPerMinute int      `mapstructure:"requests-per-minute"`
	MaxLogLength      int      `mapstructure:"max-log-length"`
}

type StorageConfig struct {
	// Driver is one of none, sqlite or redis.
	Driver string        `mapstructure:"driver"`
	SQLite SQLiteConfig  `mapstructure:"sqlite"`
	Redis  redis.Options `mapstructure:"redis"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

func defaultConfig() *Config {
	return &Config{
		Interview:  session.DefaultConfig(),
		Evaluation: evaluation.DefaultConfig(),
		Screening:  ScreeningConfig{Config: screening.DefaultConfig()},
		AI: AIConfig{
			Provider: "gemini",
			Gemini: GeminiConfig{
				MaxLogLength: 500,
			},
		},
		Storage: StorageConfig{
			Driver: "none",
			SQLite: SQLiteConfig{Path: app + ".db"},
			Redis:  redis.Options{Addr: "localhost:6379"},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-coach runs mock Excel technical interviews and scores them",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	viper.SetEnvPrefix("INTERVIEW_COACH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-coach.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every key has a default, so a missing implicit config file is fine.
	// An explicit one must exist and parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	config := defaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}
	return config, nil
}
