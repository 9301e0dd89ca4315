package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docusort/internal/config"
	logpkg "github.com/kailas-cloud/docusort/internal/logger"
	chatuc "github.com/kailas-cloud/docusort/internal/usecase/chat"
	"github.com/kailas-cloud/docusort/internal/usecase/ingest"
)

var (
	askFiles   []string
	askJSON    bool
	askOffline bool
)

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Index files and answer one prompt without starting the server",
	Long: `Indexes the given files in memory, answers the prompt from them and,
when the prompt asks for a P&L, writes CSV and XLSX packages to the
generated directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVarP(&askFiles, "file", "f", nil, "file to index (repeatable)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full chat turn as JSON")
	askCmd.Flags().BoolVar(&askOffline, "offline", false, "never call the OpenAI API")
	_ = askCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.GetEnv())
	if err != nil {
		cfg = config.Default()
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.Chat.Driver = "memory"
	cfg.Cache.Driver = "none"
	if askOffline {
		cfg.OpenAI.APIKey = ""
	}

	logger, err := logpkg.NewLogger("cli", cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	uploads, err := localUploads(askFiles)
	if err != nil {
		return err
	}
	docs, err := a.ingest.IngestAll(ctx, uploads)
	if err != nil {
		return fmt.Errorf("index files: %w", err)
	}
	logger.Debug("Indexed files", zap.Int("documents", len(docs)))

	resp, err := a.chat.Ask(ctx, chatuc.AskRequest{Prompt: args[0]})
	if err != nil {
		return err
	}

	if askJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(resp.Message.Content)
	for _, p := range resp.GeneratedPnL {
		cmd.Println()
		cmd.Printf("P&L: %s\n", p.Summary)
		cmd.Printf("  csv:  %s\n", localArtifact(cfg.Storage.GeneratedDir, p.CSVURL))
		cmd.Printf("  xlsx: %s\n", localArtifact(cfg.Storage.GeneratedDir, p.XLSXURL))
	}
	return nil
}

func localUploads(paths []string) ([]ingest.Upload, error) {
	if len(paths) == 0 {
		return nil, errors.New("at least one --file is required")
	}
	uploads := make([]ingest.Upload, len(paths))
	for i, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		uploads[i] = ingest.Upload{
			Name:     filepath.Base(p),
			MIMEType: mime.TypeByExtension(filepath.Ext(p)),
			Size:     info.Size(),
			Path:     p,
		}
	}
	return uploads, nil
}

func localArtifact(dir, url string) string {
	return filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, chatuc.GeneratedRoute+"/")))
}
