package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"socialharvest/pkg/auth"
	"socialharvest/pkg/config"
	"socialharvest/pkg/fetcher"
	"socialharvest/pkg/identifiers"
	"socialharvest/pkg/logger"
	"socialharvest/pkg/pipeline"
	"socialharvest/pkg/platforms/instagram"
	"socialharvest/pkg/platforms/tiktok"
	"socialharvest/pkg/platforms/x"
	"socialharvest/pkg/platforms/youtube"
	"socialharvest/pkg/ratelimit"
	"socialharvest/pkg/store"
	"socialharvest/pkg/ui"
)

var (
	// Run command flags
	handles        []string
	identifierFile string
	fromDB         bool
	workers        int
	minFollowers   int64
	rateLimitRPM   int
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <platform>",
	Short: "Run one harvest batch for a platform",
	Long: `Run one harvest batch: fetch every identifier, clean the
payloads and upsert the result into the platform's Postgres tables.

Identifiers come from --handles, a CSV file (--identifiers), or the
username_search table (--from-db). Exactly one source is used, in that
order of precedence.

Credentials are resolved from the system keychain ('socialharvest auth
set'), environment variables, or the configuration file.`,
	Example: `  # Harvest two handles directly
  socialharvest run instagram --handles natgeo,nasa

  # Harvest a CSV of handles with more workers
  socialharvest run youtube --identifiers usernames.csv --workers 8

  # Harvest handles discovered by the search crawler
  socialharvest run tiktok --from-db --min-followers 100000`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"instagram", "tiktok", "youtube", "x"},
	RunE:      runHarvest,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&handles, "handles", nil, "comma-separated handles to fetch")
	runCmd.Flags().StringVarP(&identifierFile, "identifiers", "i", "", "CSV file with one handle per row")
	runCmd.Flags().BoolVar(&fromDB, "from-db", false, "read handles from the username_search table")
	runCmd.Flags().IntVar(&workers, "workers", 0, "number of fetch workers (2-20)")
	runCmd.Flags().Int64Var(&minFollowers, "min-followers", -1, "minimum follower count to persist a profile")
	runCmd.Flags().IntVar(&rateLimitRPM, "rate-limit", 0, "platform requests per minute")
}

func runHarvest(cmd *cobra.Command, args []string) error {
	platform := args[0]

	flags := make(map[string]interface{})
	if workers > 0 {
		flags["workers"] = workers
	}
	if minFollowers >= 0 {
		flags["min-followers"] = minFollowers
	}
	if identifierFile != "" {
		flags["identifiers"] = identifierFile
	}
	if rateLimitRPM > 0 {
		flags["requests-per-minute"] = rateLimitRPM
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger().WithField("version", version)

	applyStoredCredentials(cfg, platform, log)

	if err := cfg.ValidatePlatform(platform); err != nil {
		ui.PrintError("Missing platform credentials", err.Error())
		ui.PrintInfo("Hint", "store them with 'socialharvest auth set "+platform+"'")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pg, err := store.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		ui.PrintError("Failed to connect to database", err.Error())
		os.Exit(1)
	}
	defer pg.Close()

	source, err := buildSource(cfg, platform, pg)
	if err != nil {
		ui.PrintError("No identifier source", err.Error())
		os.Exit(1)
	}

	platformFetcher, reserved, err := buildFetcher(cfg, platform, log)
	if err != nil {
		ui.PrintError("Failed to build fetcher", err.Error())
		os.Exit(1)
	}

	p, err := pipeline.New(pipeline.Options{
		Source:       source,
		Reserved:     reserved,
		Fetcher:      fetcher.NewRetrier(platformFetcher, cfg.Retry, log),
		Sink:         pg,
		Limiter:      ratelimit.NewPerMinute(cfg.RateLimit.RequestsPerMinute),
		Workers:      cfg.Pipeline.Workers,
		MinFollowers: cfg.Pipeline.MinFollowers,
		Logger:       log,
	})
	if err != nil {
		ui.PrintError("Failed to build pipeline", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Platform", platform)
	start := time.Now()

	summary, err := p.Run(ctx)
	if err != nil {
		log.WithError(err).Error("run failed")
		ui.PrintError("RUN FAILED", err.Error())
		if summary != nil {
			ui.PrintSummary(summary)
		}
		os.Exit(1)
	}

	ui.PrintSummary(summary)
	if summary.Failures() > 0 {
		ui.PrintWarning("Some identifiers failed", summary.Failures())
	} else {
		ui.PrintSuccess("Run completed")
	}
	log.WithField("elapsed", time.Since(start)).Info("done")
	return nil
}

// applyStoredCredentials overlays keychain credentials onto the config
// when the config carries none for the platform.
func applyStoredCredentials(cfg *config.Config, platform string, log logger.Logger) {
	manager, err := auth.NewManager()
	if err != nil {
		return
	}
	cred, err := manager.Retrieve(platform)
	if err != nil {
		return
	}

	switch platform {
	case "instagram":
		if cfg.Platforms.Instagram.AccessToken == "" {
			cfg.Platforms.Instagram.AccessToken = cred.Token
		}
		if cfg.Platforms.Instagram.BusinessID == "" {
			cfg.Platforms.Instagram.BusinessID = cred.Extra["business_id"]
		}
		if cfg.Platforms.Instagram.PageID == "" {
			cfg.Platforms.Instagram.PageID = cred.Extra["page_id"]
		}
	case "youtube":
		if cfg.Platforms.YouTube.APIKey == "" {
			cfg.Platforms.YouTube.APIKey = cred.Token
		}
	case "x":
		if cfg.Platforms.X.BearerToken == "" {
			cfg.Platforms.X.BearerToken = cred.Token
		}
	}

	log.WithField("platform", platform).Debug("using stored credentials")
}

// buildSource picks the identifier source: explicit handles, then the
// CSV file, then the discovery table.
func buildSource(cfg *config.Config, platform string, pg *store.Postgres) (identifiers.Source, error) {
	switch {
	case len(handles) > 0:
		return identifiers.Static(handles), nil
	case cfg.Pipeline.IdentifierFile != "":
		return identifiers.File{Path: cfg.Pipeline.IdentifierFile}, nil
	case fromDB:
		return identifiers.Query{Pool: pg.Pool(), Platform: platform}, nil
	default:
		return nil, errors.New("provide --handles, --identifiers or --from-db")
	}
}

// buildFetcher constructs the platform client and its reserved handle
// set.
func buildFetcher(cfg *config.Config, platform string, log logger.Logger) (fetcher.Fetcher, map[string]bool, error) {
	posts := cfg.Pipeline.PostsPerProfile

	switch platform {
	case "instagram":
		return instagram.NewClient(cfg.Platforms.Instagram, posts, log), instagram.ReservedPaths, nil
	case "tiktok":
		return tiktok.NewClient(cfg.Platforms.TikTok, log), nil, nil
	case "youtube":
		return youtube.NewClient(cfg.Platforms.YouTube, posts, log), nil, nil
	case "x":
		return x.NewClient(cfg.Platforms.X, log), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown platform: %s (expected instagram, tiktok, youtube or x)", platform)
	}
}
