// Command multitool serves the intent-routing assistant over HTTP or runs
// a single turn from the command line.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/agent-multitool/internal/adapters/filewatcher"
	"github.com/0xcro3dile/agent-multitool/internal/bootstrap"
	"github.com/0xcro3dile/agent-multitool/internal/infrastructure/config"
	httpserver "github.com/0xcro3dile/agent-multitool/internal/infrastructure/http"
	"github.com/0xcro3dile/agent-multitool/internal/infrastructure/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "multitool",
		Short:        "Route questions to chat, document QA or table QA",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.String("env", "", "runtime environment (development|production)")
	flags.String("log-file", "", "write JSON logs to this file as well")
	flags.String("provider", "", "language model provider (openai|ollama)")
	flags.String("vector-backend", "", "vector index backend (memory|sqlite|chromem)")
	flags.String("data-dir", "", "directory for persistent vector indexes")
	flags.String("pdf-service", "", "URL of the PDF text extraction service")

	root.AddCommand(newServeCommand(), newAskCommand())
	return root
}

// setup loads configuration and builds the logger and container.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, *bootstrap.Container, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.New(cfg.Log.File, cfg.App.Production())
	container, err := bootstrap.New(cfg, log)
	if err != nil {
		log.Sync()
		return nil, nil, nil, err
	}
	return cfg, log, container, nil
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, log, container, err := setup(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer container.Close()

			if err := container.StartPDFService(ctx); err != nil {
				log.Warn("pdf service unavailable", zap.Error(err))
			}

			if cfg.Resources.Dir != "" {
				watcher, err := filewatcher.NewFSNotifyWatcher(filewatcher.DefaultExtensions, log.Named("watcher"))
				if err != nil {
					return err
				}
				if _, err := container.SyncResources(ctx, cfg.Resources.Dir, watcher); err != nil {
					watcher.Stop()
					return err
				}
			}

			return httpserver.NewServer(container, cfg.App.Addr, log.Named("http")).Start(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().String("resources", "", "folder whose PDF/text/CSV files feed the default session")
	return cmd
}

func newAskCommand() *cobra.Command {
	var pdfPath, csvPath, mode string

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer one query and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, log, container, err := setup(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer container.Close()

			m, err := bootstrap.ParseMode(mode)
			if err != nil {
				return err
			}

			if pdfPath != "" {
				if err := container.StartPDFService(ctx); err != nil {
					return err
				}
			}

			ws, err := container.CreateWorkspace()
			if err != nil {
				return err
			}
			if pdfPath != "" {
				if err := ws.LoadDocumentFile(ctx, pdfPath); err != nil {
					return err
				}
			}
			if csvPath != "" {
				if err := ws.LoadDatasetFile(ctx, csvPath); err != nil {
					return err
				}
			}

			env, err := ws.Turn(ctx, m, strings.Join(args, " "))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(env); err != nil {
				return fmt.Errorf("writing result: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "document (PDF, text or markdown) to answer from")
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV dataset to answer from")
	cmd.Flags().StringVar(&mode, "mode", "smart", "smart, chat, pdf or csv")
	return cmd
}
