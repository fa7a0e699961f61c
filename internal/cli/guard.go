package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/cache"
	"github.com/ppiankov/trustlens/internal/directory"
	"github.com/ppiankov/trustlens/internal/guard"
)

// guardCmd represents the guard command
var guardCmd = &cobra.Command{
	Use:   "guard <url>...",
	Short: "Check URLs against the blacklist of a control key",
	Long: `Guard decides, for each URL, whether navigation would be allowed or
blocked. The blacklist comes from the backend's /control/blacklist endpoint
and is cached for the configured TTL (on disk when caching is enabled).
Without a caller key every URL is allowed.

Example:
  trustlens guard https://example.com https://ads.example.net --key $CONTROL_KEY`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd.Flags(), map[string]string{
			"backend": "guard.backend_url",
			"key":     "guard.caller_key",
		})
	},
	RunE: runGuard,
}

func init() {
	rootCmd.AddCommand(guardCmd)

	guardCmd.Flags().String("backend", "http://localhost:8080", "TrustLens backend URL")
	guardCmd.Flags().String("key", "", "control key (prefer TRUSTLENS_GUARD_CALLER_KEY)")
}

func runGuard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var store cache.Cache
	if cfg.Cache.Enabled {
		disk := cache.NewDiskCache(cacheDir(cfg), cfg.Guard.TTL)
		if n, err := disk.Prune(); err != nil {
			logger.Warn("cache prune failed", zap.Error(err))
		} else if n > 0 {
			logger.Debug("pruned cache", zap.Int("removed", n))
		}
		store = disk
	}

	source := directory.NewPortal(cfg.Guard.BackendURL, &http.Client{Timeout: cfg.Guard.FetchTimeout + 5*time.Second})
	g := guard.New(source, cfg.Guard, store, logger)
	g.SetCallerKey(cfg.Guard.CallerKey)

	out := cmd.OutOrStdout()
	for _, u := range args {
		d := g.Decide(context.Background(), u)
		if d.Blocked() {
			fmt.Fprintf(out, "block  %s  (%s) -> %s\n", u, d.Reason, d.RedirectTo)
			continue
		}
		fmt.Fprintf(out, "allow  %s\n", u)
	}

	if verbose {
		c := g.Cache()
		fmt.Fprintf(cmd.ErrOrStderr(), "blacklist: %d entries, fetched %s\n", len(c.Entries), c.FetchedAt.Format(time.RFC3339))
	}
	return nil
}
