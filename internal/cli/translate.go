package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mgpai22/hiyori/internal/subtitle"
	"github.com/mgpai22/hiyori/internal/translate"
	"github.com/spf13/cobra"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Translate subtitles to another language using AI",
	Long: `Translate an existing subtitle file to another language using AI.

Any input format and encoding hiyori can load is accepted. Cue timing is
kept; only the text is translated. <i>, <b> and <u> styling survives.

The --overlay flag creates bilingual subtitles with the translated text
first, followed by the original text on the next line.

Examples:
  hiyori translate movie.smi --target-language english
  hiyori translate movie.ass --target-language ja --overlay
  hiyori translate movie.srt -l korean --target-language spanish -o movie.es.vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (required)")
	translateCmd.Flags().
		StringP("language", "l", "", "Source language (default: let the model detect it)")
	translateCmd.Flags().
		Bool("overlay", false, "Overlay translated text with original (bilingual subtitles)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	translateCmd.Flags().
		String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		Bool("model-override", false, "Allow any custom model, bypassing provider model validation")
	translateCmd.Flags().
		String("provider", "", "Translation provider (gemini, openai, anthropic)")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation workers")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of subtitle entries per API request")
	translateCmd.Flags().
		StringP("format", "f", "", "Output format (srt, vtt, ass); default from output name or input")

	_ = translateCmd.MarkFlagRequired("target-language")
}

var knownModels = map[translate.Provider][]string{
	translate.ProviderGemini: {
		"gemini-3-pro-preview", "gemini-3-flash-preview",
		"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.5-flash-lite",
	},
	translate.ProviderOpenAI: {
		"o1", "o3-mini", "o1-pro", "o3",
		"gpt-5", "gpt-5-nano", "gpt-5-mini", "gpt-5-pro",
		"gpt-5.1", "gpt-5.2", "gpt-5.2-pro",
	},
	translate.ProviderAnthropic: {
		"claude-opus-4-5", "claude-sonnet-4-5", "claude-haiku-4-5",
	},
}

func validateModel(provider translate.Provider, model string) error {
	models, ok := knownModels[provider]
	if !ok {
		return fmt.Errorf("unsupported translation provider: %s", provider)
	}
	if model == "" {
		return nil
	}
	for _, m := range models {
		if m == model {
			return nil
		}
	}
	return fmt.Errorf(
		"unsupported %s model %q: valid models are %s (use --model-override to bypass)",
		provider, model, strings.Join(models, ", "),
	)
}

// translated text first, original on the next line
func overlayCues(translated, original []subtitle.Cue) []subtitle.Cue {
	out := make([]subtitle.Cue, len(translated))
	for i, c := range translated {
		out[i] = c
		if i < len(original) && original[i].Text != "" && original[i].Text != c.Text {
			out[i].Text = c.Text + subtitle.LineBreak + original[i].Text
		}
	}
	return out
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]
	ctx := context.Background()
	tcfg := cfg.GetTranslateConfig()

	targetLang, _ := cmd.Flags().GetString("target-language")
	inputLang, _ := cmd.Flags().GetString("language")
	overlay, _ := cmd.Flags().GetBool("overlay")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	modelOverride, _ := cmd.Flags().GetBool("model-override")
	providerStr, _ := cmd.Flags().GetString("provider")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	if providerStr == "" {
		providerStr = tcfg.Provider
	}
	if model == "" {
		model = tcfg.Model
	}
	if !cmd.Flags().Changed("concurrency") {
		concurrency = tcfg.Concurrency
	}
	if !cmd.Flags().Changed("batch-size") {
		batchSize = tcfg.BatchSize
	}

	if strings.TrimSpace(targetLang) == "" {
		return fmt.Errorf("target language is required")
	}
	if inputLang != "" &&
		strings.EqualFold(strings.TrimSpace(inputLang), strings.TrimSpace(targetLang)) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}

	provider := translate.Provider(strings.ToLower(providerStr))
	if modelOverride {
		if _, ok := knownModels[provider]; !ok {
			return fmt.Errorf("unsupported translation provider: %s", provider)
		}
	} else if err := validateModel(provider, model); err != nil {
		return err
	}

	if apiKey == "" {
		apiKey = os.Getenv(provider.KeyEnv())
	}
	if apiKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			provider.KeyEnv(),
		)
	}

	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

	track, err := openTrack(cmd, subtitlePath)
	if err != nil {
		return err
	}
	if len(track.Cues) == 0 {
		return fmt.Errorf("subtitle file contains no cues")
	}

	format, err := outputFormat(formatStr, outputPath, track.Format)
	if err != nil {
		return err
	}
	if outputPath == "" {
		suffix := targetLang
		if overlay {
			suffix += ".overlay"
		}
		outputPath = derivedPath(subtitlePath, suffix, format)
	}

	logger.Infow("Starting subtitle translation",
		"input", subtitlePath,
		"output", outputPath,
		"provider", provider,
		"target_language", targetLang,
		"input_language", inputLang,
		"overlay", overlay,
		"model", model,
	)

	translator, err := translate.Factory(ctx, provider, apiKey, translate.Options{
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          model,
		BatchSize:      batchSize,
		Concurrency:    concurrency,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}
	defer translator.Close()

	logger.Infow("Translating subtitles",
		"cues", len(track.Cues),
		"concurrency", concurrency,
		"batch_size", batchSize,
	)

	translated, err := translate.TranslateCues(ctx, translator, track.Cues)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	if overlay {
		translated = overlayCues(translated, track.Cues)
	}

	logger.Infow("Writing output file", "format", format)
	if err := writeCues(outputPath, format, translated); err != nil {
		return err
	}

	printDone("Subtitles translated successfully", outputPath)
	fmt.Printf("  Cues: %d\n", len(translated))
	fmt.Printf("  Target language: %s\n", targetLang)
	if overlay {
		fmt.Printf("  Mode: bilingual overlay\n")
	}
	return nil
}
