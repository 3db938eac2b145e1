// Package cli implements the factcheck command line.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/factcheck/internal/logging"
	"github.com/ppiankov/factcheck/internal/model"
)

// Version is set at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "factcheck",
	Short: "factcheck - LLM-assisted fact checking of free text",
	Long: `factcheck extracts checkable claims from a passage, gathers context with a
web search, builds a knowledge graph from that context and rates every claim
on the Truth-O-Meter scale:

  TRUE, MOSTLY TRUE, HALF TRUE, MOSTLY FALSE, FALSE, PANTS ON FIRE

Ratings are model judgements grounded in the retrieved context.
They are not authoritative rulings.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "factcheck %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.factcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and FACTCHECK_* variables
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	if err := setDefaults(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to register defaults: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".factcheck"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match FACTCHECK_*, e.g. FACTCHECK_LLM_MODEL
	viper.SetEnvPrefix("FACTCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every default so that environment overrides apply to all keys
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return err
	}

	var defaults map[string]any
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return err
	}
	setNested(v, "", defaults)

	// omitempty keys are absent from the marshalled defaults
	for _, key := range []string{"llm.api_key", "llm.base_url", "search.static_text", "http.http_proxy", "http.https_proxy", "http.no_proxy"} {
		v.SetDefault(key, "")
	}
	return nil
}

func setNested(v *viper.Viper, prefix string, values map[string]any) {
	for key, value := range values {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			setNested(v, key, nested)
			continue
		}
		v.SetDefault(key, value)
	}
}

// loadConfig resolves the effective configuration
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if !cfg.Output.Color {
		color.NoColor = true
	}
	return cfg, nil
}

// newLogger builds the console logger and installs it as the default
func newLogger(cfg *model.Config) *slog.Logger {
	logger := logging.New(os.Stderr, cfg.Output.Verbose)
	slog.SetDefault(logger)
	return logger
}

// configYAML renders cfg with secrets masked
func configYAML(cfg *model.Config) ([]byte, error) {
	masked := *cfg
	if masked.LLM.APIKey != "" {
		masked.LLM.APIKey = "********"
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
