package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/ZacxDev/video-captioner/internal/compositor"
	"github.com/ZacxDev/video-captioner/internal/config"
	"github.com/ZacxDev/video-captioner/internal/queue"
	"github.com/ZacxDev/video-captioner/internal/store"
	"github.com/ZacxDev/video-captioner/pkg/captioner"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func queueOptions(cfg *config.Config) queue.Options {
	return queue.Options{
		JobsKey:       cfg.Queue.JobsKey,
		ProcessingKey: cfg.Queue.ProcessingKey,
		ResultsKey:    cfg.Queue.ResultsKey,
		Concurrency:   cfg.Queue.Concurrency,
		PollInterval:  cfg.Queue.PollInterval,
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Render requests from the redis queue",
		Long: `Consume render requests from the redis jobs list until interrupted.

Example:
  video-captioner worker --concurrency 4 --recover`,
		RunE: func(cmd *cobra.Command, args []string) error {
			recoverStale, _ := cmd.Flags().GetBool("recover")

			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Queue.Concurrency, _ = cmd.Flags().GetInt("concurrency")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := queue.Dial(ctx, cfg.Queue.RedisURL)
			if err != nil {
				return err
			}
			defer client.Close()

			var observers []compositor.Observer
			if cfg.Store.DatabasePath != "" {
				history, err := store.Open(cfg.Store.DatabasePath, logger)
				if err != nil {
					return err
				}
				defer history.Close()
				observers = append(observers, history)
			}

			renderer := captioner.NewRenderer(cfg, logger, observers...)
			worker := queue.New(client, renderer, queueOptions(cfg), logger)

			if recoverStale {
				n, err := worker.Recover(ctx)
				if err != nil {
					return err
				}
				logger.Info().Int("requests", n).Msg("recovered stale requests")
			}

			worker.Run(ctx)
			return nil
		},
	}
	cmd.Flags().Int("concurrency", 2, "Number of concurrent renders")
	cmd.Flags().Bool("recover", false, "Requeue requests left in the processing list first")
	return cmd
}

func newEnqueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a project for rendering by a worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath, _ := cmd.Flags().GetString("project")
			tier, _ := cmd.Flags().GetString("tier")
			id, _ := cmd.Flags().GetString("id")

			cfg, _, err := setup(cmd)
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

			client, err := queue.Dial(cmd.Context(), cfg.Queue.RedisURL)
			if err != nil {
				return err
			}
			defer client.Close()

			id, err = queue.Enqueue(cmd.Context(), client, cfg.Queue.JobsKey, queue.RenderRequest{
				ID:    id,
				Video: *video,
				Tier:  types.QualityTier(tier),
			})
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
	cmd.Flags().StringP("project", "p", "", "Project file")
	cmd.Flags().StringP("tier", "t", "", "Quality tier, defaults to the configured tier")
	cmd.Flags().String("id", "", "Request ID (generated when empty)")
	cmd.MarkFlagRequired("project")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <request-id>",
		Short: "Show the result of a queued render",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}

			client, err := queue.Dial(cmd.Context(), cfg.Queue.RedisURL)
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := queue.Result(cmd.Context(), client, cfg.Queue.ResultsKey, args[0])
			if errors.Is(err, queue.ErrNoResult) {
				fmt.Printf("%s: pending\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [export-id]",
		Short: "List recorded exports, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, _ := cmd.Flags().GetString("state")
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if cfg.Store.DatabasePath == "" {
				return errors.New("no export history: store.database_path is not configured")
			}

			history, err := store.Open(cfg.Store.DatabasePath, logger)
			if err != nil {
				return err
			}
			defer history.Close()

			if len(args) == 1 {
				rec, err := history.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(rec)
			}

			recs, err := history.List(cmd.Context(), store.ListOptions{State: compositor.State(state), Limit: limit})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATE\tTIER\tUPDATED\tOUTPUT")
			for _, r := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.State, r.Tier, r.UpdatedAt.Format(time.RFC3339), r.OutputPath)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("state", "", "Only list exports in this state")
	cmd.Flags().Int("limit", 20, "Maximum number of exports")
	return cmd
}
