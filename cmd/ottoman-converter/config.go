// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ottoman-converter/internal/convert"
	"github.com/pdiddy/ottoman-converter/internal/history"
	"github.com/pdiddy/ottoman-converter/internal/httputil"
	"github.com/pdiddy/ottoman-converter/internal/secrets"
	"github.com/pdiddy/ottoman-converter/pkg/types"
)

const (
	defaultDBPath = "data/history.db"

	// defaultKnowledgeBase is picked up by serve when present in the working
	// directory and no knowledge base is configured.
	defaultKnowledgeBase = "ottoman.pdf"
)

// envKeyReplacer maps nested keys to env names: ai.api_key -> OTTOMAN_AI_API_KEY.
var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.model", types.DefaultModel)
	v.SetDefault("ai.temperature", 0.0)
	v.SetDefault("ai.max_retries", 3)
	v.SetDefault("ai.timeout", 2*time.Minute)
	v.SetDefault("ai.system_instruction", true)

	v.SetDefault("conversion.normalize", true)
	// conversion.force_ng_final has no default: each command picks its own
	// unless the key is set in the config file or environment.
	v.SetDefault("conversion.knowledge_base", "")

	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.rate", 2.0)
	v.SetDefault("server.burst", 5)
	v.SetDefault("server.max_upload_bytes", 32<<20)

	v.SetDefault("history.db", defaultDBPath)
	v.SetDefault("history.max_sessions", 20)
}

// loadConfig reads every section from v. The API key is not resolved here.
func loadConfig(v *viper.Viper) types.AppConfig {
	return types.AppConfig{
		AI: types.AIConfig{
			Model:             v.GetString("ai.model"),
			APIKey:            v.GetString("ai.api_key"),
			Temperature:       v.GetFloat64("ai.temperature"),
			MaxRetries:        v.GetInt("ai.max_retries"),
			Timeout:           v.GetDuration("ai.timeout"),
			SystemInstruction: v.GetBool("ai.system_instruction"),
		},
		Conversion: types.ConversionConfig{
			Normalize:     v.GetBool("conversion.normalize"),
			ForceNGFinal:  v.GetBool("conversion.force_ng_final"),
			KnowledgeBase: v.GetString("conversion.knowledge_base"),
		},
		Server: types.ServerConfig{
			Addr:           v.GetString("server.addr"),
			Rate:           v.GetFloat64("server.rate"),
			Burst:          v.GetInt("server.burst"),
			MaxUploadBytes: v.GetInt64("server.max_upload_bytes"),
		},
		History: types.HistoryConfig{
			DBPath:      v.GetString("history.db"),
			MaxSessions: v.GetInt("history.max_sessions"),
		},
	}
}

// addConversionFlags registers the flags shared by convert and serve.
func addConversionFlags(cmd *cobra.Command, forceNGDefault bool) {
	cmd.Flags().String("kb", "", "knowledge base document (.txt, .pdf, .docx)")
	cmd.Flags().String("model", "", "Gemini model identifier (default from config)")
	cmd.Flags().Float64("temperature", 0, "sampling temperature of the first attempt")
	cmd.Flags().Bool("normalize", true, "apply Unicode NFKC to the output")
	cmd.Flags().Bool("force-ng-final", forceNGDefault, "write the NG-final glyph when the input ends in n or ng")
}

// applyConversionFlags overrides cfg with the conversion flags the user set.
// An unset force-ng-final flag yields to conversion.force_ng_final when that
// key is set in the config file or environment; otherwise the command's own
// flag default applies.
func applyConversionFlags(cmd *cobra.Command, v *viper.Viper, cfg *types.AppConfig) {
	flags := cmd.Flags()
	if flags.Changed("kb") {
		cfg.Conversion.KnowledgeBase, _ = flags.GetString("kb")
	}
	if flags.Changed("model") {
		cfg.AI.Model, _ = flags.GetString("model")
	}
	if flags.Changed("temperature") {
		cfg.AI.Temperature, _ = flags.GetFloat64("temperature")
	}
	if flags.Changed("normalize") {
		cfg.Conversion.Normalize, _ = flags.GetBool("normalize")
	}
	if flags.Changed("force-ng-final") || !v.IsSet("conversion.force_ng_final") {
		cfg.Conversion.ForceNGFinal, _ = flags.GetBool("force-ng-final")
	}
}

// newConverter resolves the API key and builds a Gemini-backed converter.
func newConverter(ctx context.Context, cfg types.AIConfig) (*convert.Converter, error) {
	key, err := secrets.ResolveAPIKey(cfg.APIKey, loadedSecrets)
	if err != nil {
		return nil, &convert.Error{Kind: types.FailureConfig, Detail: err.Error(), Err: err}
	}
	cfg.APIKey = key

	backend, err := convert.NewGeminiBackend(ctx, cfg, convert.GeminiOptions{
		HTTPClient: httputil.NewClient(cfg.Timeout, cfg.MaxRetries, logger),
	})
	if err != nil {
		return nil, err
	}
	return convert.New(backend, convert.WithLogger(logger)), nil
}

// openStore opens the history database.
func openStore(cfg types.AppConfig) (*history.Store, error) {
	return history.NewStore(cfg.History)
}

// resolveKnowledgeBase returns path, or defaultKnowledgeBase when path is
// empty and that file exists in the working directory.
func resolveKnowledgeBase(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(defaultKnowledgeBase); err == nil {
		return defaultKnowledgeBase
	}
	return ""
}
