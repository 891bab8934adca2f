// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/ottoman-converter/internal/convert"
	"github.com/pdiddy/ottoman-converter/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [text...]",
	Short: "Convert Turkish text to Ottoman script",
	Long: `Convert sends the given text (or standard input when no arguments are
given) to the model and prints the Ottoman-script result.

With --kb the text of a .txt, .pdf, or .docx document is sent first as
reference context. With --session the exchange is appended to a stored chat
session.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	text, err := inputText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg := loadConfig(viper.GetViper())
	applyConversionFlags(cmd, viper.GetViper(), &cfg)
	sessionID, _ := cmd.Flags().GetString("session")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	conv, err := newConverter(ctx, cfg.AI)
	if err != nil {
		return reportFailure(cmd.ErrOrStderr(), err)
	}

	output, convErr := conv.Convert(ctx, types.ConversionRequest{
		Text:              text,
		KnowledgeBasePath: cfg.Conversion.KnowledgeBase,
		Model:             cfg.AI.Model,
		Temperature:       cfg.AI.Temperature,
		Normalize:         cfg.Conversion.Normalize,
		ForceNGFinal:      cfg.Conversion.ForceNGFinal,
	})

	if sessionID != "" {
		if err := recordExchange(ctx, cfg, sessionID, text, output, convErr); err != nil {
			return err
		}
	}

	if convErr != nil {
		return reportFailure(cmd.ErrOrStderr(), convErr)
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

// inputText joins args, or reads all of r when there are none.
func inputText(args []string, r io.Reader) (string, error) {
	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no text to convert: pass it as arguments or on standard input")
	}
	return text, nil
}

// reportFailure prints "<kind>: <message>" and returns an error carrying the
// same text so the process exits non-zero.
func reportFailure(w io.Writer, err error) error {
	kind := convert.KindOf(err)
	if kind == "" {
		return err
	}
	fmt.Fprintf(w, "%s: %v\n", kind, err)
	return fmt.Errorf("conversion failed (%s)", kind)
}

// recordExchange appends the user text and the result to a stored session.
func recordExchange(ctx context.Context, cfg types.AppConfig, sessionID, text, output string, convErr error) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	reply := types.Message{Role: types.RoleAssistant, Content: output}
	if convErr != nil {
		reply = types.FailedReply(convert.KindOf(convErr))
	}
	if err := store.Append(ctx, sessionID,
		types.Message{Role: types.RoleUser, Content: text},
		reply,
	); err != nil {
		return fmt.Errorf("recording to session %s: %w", sessionID, err)
	}
	logger.Debug("recorded exchange", zap.String("session", sessionID))
	return nil
}

func init() {
	addConversionFlags(convertCmd, false)
	convertCmd.Flags().String("session", "", "append the exchange to this history session ID")

	rootCmd.AddCommand(convertCmd)
}
