package cli

import (
	"github.com/mgpai22/hiyori/internal/config"
	"github.com/mgpai22/hiyori/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hiyori",
	Short: "Subtitle loader and playback synchronizer",
	Long: `Hiyori loads subtitle files in any common encoding (SRT, SMI, ASS/SSA
and WebVTT), normalizes them to a safe markup and keeps the active cue in
step with a playback clock.

Run "hiyori serve" to push cues to attached players over websockets.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/hiyori/config.toml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("encoding", "e", "", "Subtitle charset label (e.g., utf-8, euc-kr, cp949); default auto")
}
