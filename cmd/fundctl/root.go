package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/app"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/config"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/logging"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fundctl",
		Short: "Fund quote and recommendation tool",
		Long: `fundctl runs the fund advisor pipelines from the command line.
It fetches normalized fund quotes, ranks a set of funds, and checks
that a deployed server answers on its API endpoints.`,
		Version:      version.Version,
		SilenceUsage: true,
	}

	root.AddCommand(newAcquireCmd(), newRecommendCmd(), newVerifyCmd())
	return root
}

// loadApp builds the application from the environment. Logs go to stderr so
// command output on stdout stays valid JSON.
func loadApp(stderr io.Writer) (*app.App, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := logging.NewWithWriter(cfg.Log, stderr)

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, logger, err
	}
	return a, logger, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
