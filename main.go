package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ZacxDev/video-captioner/internal/compositor"
	"github.com/ZacxDev/video-captioner/internal/config"
	"github.com/ZacxDev/video-captioner/internal/ffmpeg"
	"github.com/ZacxDev/video-captioner/internal/fsutil"
	"github.com/ZacxDev/video-captioner/internal/store"
	"github.com/ZacxDev/video-captioner/pkg/captioner"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	rootCmd = &cobra.Command{
		Use:   "video-captioner",
		Short: "A caption and karaoke compositing tool for short videos",
		Long: `video-captioner renders caption overlays, karaoke word highlights and color
effects onto a video and exports it at a fixed quality tier.

Examples:
  # Render a project at 1080p and move the result next to it
  video-captioner render -p project.yaml -t 1080p -o ./out/final.mp4

  # Split long cues so each fits a 1080 pixel wide video
  video-captioner split -i cues.yaml --width 1080

  # Run a queue worker with four concurrent exports
  video-captioner worker --concurrency 4`,
		SilenceUsage: true,
	}

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Render a project file at a quality tier",
		Long: fmt.Sprintf(`Render a YAML or JSON project with its caption overlays.

Supported tiers:
%s
Example:
  video-captioner render -p project.yaml -t 720p -o final.mp4`,
			formatSupportedTiers()),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath, _ := cmd.Flags().GetString("project")
			tier, _ := cmd.Flags().GetString("tier")
			outputPath, _ := cmd.Flags().GetString("output")

			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if tier == "" {
				tier = cfg.Render.DefaultTier
			}

			video, err := captioner.LoadProject(projectPath)
			if err != nil {
				return err
			}

			var observers []compositor.Observer
			if cfg.Store.DatabasePath != "" {
				history, err := store.Open(cfg.Store.DatabasePath, logger)
				if err != nil {
					return err
				}
				defer history.Close()
				observers = append(observers, history)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			renderer := captioner.NewRenderer(cfg, logger, observers...)
			out, err := renderer.StartRender(ctx, video, types.QualityTier(tier))
			if err != nil {
				return err
			}

			if outputPath != "" {
				outputPath = destinationPath(outputPath, out)
				if err := fsutil.Move(out, outputPath); err != nil {
					return errors.Wrap(err, "failed to move rendered video")
				}
				_ = os.Remove(filepath.Dir(out))
				out = outputPath
			}

			fmt.Printf("Rendered %s at %s: %s\n", video.Source, tier, out)
			return nil
		},
	}

	splitCmd = &cobra.Command{
		Use:   "split",
		Short: "Split caption cues that are too wide for the video",
		Long: `Read a YAML or JSON list of caption cues and print them as JSON, with every
cue that does not fit the video width split into shorter consecutive cues.

Example:
  video-captioner split -i cues.yaml --width 1080 --padding 40`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath, _ := cmd.Flags().GetString("input")
			width, _ := cmd.Flags().GetFloat64("width")
			padding, _ := cmd.Flags().GetFloat64("padding")

			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("padding") {
				padding = cfg.Text.Padding
			}

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return errors.Wrap(err, "failed to read cues file")
			}
			var cues []types.TextOverlay
			if err := yaml.Unmarshal(data, &cues); err != nil {
				return errors.Wrapf(err, "failed to parse cues file %s", inputPath)
			}

			video := &types.Video{Overlays: cues}
			captioner.ApplyDefaultStyle(video)
			return printJSON(captioner.SplitSubtitleSegments(video.Overlays, width, padding))
		},
	}

	fitCmd = &cobra.Command{
		Use:   "fit",
		Short: "Check how caption text fits a video width",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, _ := cmd.Flags().GetFloat64("width")
			fontSize, _ := cmd.Flags().GetFloat64("font-size")
			padding, _ := cmd.Flags().GetFloat64("padding")

			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("padding") {
				padding = cfg.Text.Padding
			}

			text := args[0]
			bounds := captioner.FontBounds{Min: cfg.Text.MinFontSize, Max: cfg.Text.MaxFontSize}
			fmt.Printf("Fits at %gpt: %t\n", fontSize, captioner.DoesTextFitInVideo(text, width, fontSize, padding))
			fmt.Printf("Optimal font size: %d\n", captioner.CalculateOptimalFontSize(text, width, padding, bounds))
			fmt.Printf("Words per line at %gpt: %d\n", fontSize, captioner.ComputeOptimalWordsPerLine(width, fontSize, padding))
			return nil
		},
	}

	karaokeCmd = &cobra.Command{
		Use:   "karaoke",
		Short: "Print equal-division karaoke word timings for a cue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, _ := cmd.Flags().GetFloat64("start")
			end, _ := cmd.Flags().GetFloat64("end")
			if end < start {
				return errors.Wrapf(types.ErrInvertedRange, "[%g, %g]", start, end)
			}
			return printJSON(captioner.GenerateKaraokeTimings(args[0], start, end))
		},
	}

	tiersCmd = &cobra.Command{
		Use:   "tiers",
		Short: "List the supported quality tiers",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(formatSupportedTiers())
		},
	}
)

// setup loads the configuration and builds the logger. --verbose forces the
// debug level.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := config.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// destinationPath gives the -o path the extension of the rendered file.
func destinationPath(outputPath, rendered string) string {
	return ffmpeg.EnsureExtension(outputPath, filepath.Ext(rendered))
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatSupportedTiers() string {
	var sb strings.Builder
	for _, tier := range captioner.SupportedTiers() {
		sb.WriteString(fmt.Sprintf("- %s\n", tier))
	}
	return sb.String()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Render command flags
	renderCmd.Flags().StringP("project", "p", "", "Project file")
	renderCmd.Flags().StringP("tier", "t", "",
		fmt.Sprintf("Quality tier (%s), defaults to the configured tier", strings.Join(captioner.SupportedTiers(), ", ")))
	renderCmd.Flags().StringP("output", "o", "", "Move the rendered video to this path")
	renderCmd.MarkFlagRequired("project")

	// Split command flags
	splitCmd.Flags().StringP("input", "i", "", "Cues file")
	splitCmd.Flags().Float64("width", 1080, "Video width in pixels")
	splitCmd.Flags().Float64("padding", config.DefaultTextPadding, "Horizontal padding in pixels")
	splitCmd.MarkFlagRequired("input")

	// Fit command flags
	fitCmd.Flags().Float64("width", 1080, "Video width in pixels")
	fitCmd.Flags().Float64("font-size", config.DefaultFontSize, "Font size in points")
	fitCmd.Flags().Float64("padding", config.DefaultTextPadding, "Horizontal padding in pixels")

	// Karaoke command flags
	karaokeCmd.Flags().Float64("start", 0, "Cue start in seconds")
	karaokeCmd.Flags().Float64("end", 0, "Cue end in seconds")
	karaokeCmd.MarkFlagRequired("end")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(fitCmd)
	rootCmd.AddCommand(karaokeCmd)
	rootCmd.AddCommand(tiersCmd)
	rootCmd.AddCommand(newWorkerCmd())
	rootCmd.AddCommand(newEnqueueCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newHistoryCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps export failure kinds to distinct process exit codes.
func exitCode(err error) int {
	switch compositor.KindOf(err) {
	case compositor.KindCancelled:
		return 130
	case compositor.KindCannotCreateSession:
		return 3
	case compositor.KindFailed:
		return 2
	default:
		return 1
	}
}
