package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"radiobank/internal/assembly"
	"radiobank/internal/catalog"
	"radiobank/internal/logging"
	"radiobank/internal/preflight"
	"radiobank/internal/report"
	"radiobank/internal/run"
	"radiobank/internal/selection"
	"radiobank/internal/services/sox"
	"radiobank/internal/storage"
)

func newFillCommand(ctx *commandContext) *cobra.Command {
	var (
		catalogFlag string
		dirFlag     string
		banks       int
		stations    int
		minutes     int
		diversity   int
		workers     int
		seed        int64
		minFill     float64
		waitForCard bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "fill TARGET_DIR",
		Short: "Fill a directory with station banks",
		Long: `Fill assembles one audio file per station under TARGET_DIR, laid out as
<bank>/<station>.wav the way the Radio Music module expects. Clips are drawn
from the configured catalog and never reused within a run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			// Flags override the config file.
			if catalogFlag != "" {
				cfg.Catalog.Source = catalogFlag
			}
			if dirFlag != "" {
				cfg.Catalog.LocalDir = dirFlag
			}
			if cmd.Flags().Changed("banks") {
				cfg.Bank.Banks = banks
			}
			if cmd.Flags().Changed("stations") {
				cfg.Bank.Stations = stations
			}
			if cmd.Flags().Changed("minutes") {
				cfg.Bank.Minutes = minutes
			}
			if cmd.Flags().Changed("diversity") {
				cfg.Bank.Diversity = diversity
			}
			if cmd.Flags().Changed("workers") {
				cfg.Run.Workers = workers
			}
			if cmd.Flags().Changed("seed") {
				cfg.Run.Seed = seed
			}
			if cmd.Flags().Changed("min-fill") {
				cfg.Bank.MinFillRatio = minFill
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if waitForCard {
				monitor := storage.NewMonitor(logger)
				fmt.Fprintln(cmd.ErrOrStderr(), "Waiting for a removable card to appear...")
				device, err := monitor.WaitForRemovable(signalCtx)
				if err != nil {
					return fmt.Errorf("wait for removable card: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Detected %s; mount it at the target directory before continuing.\n", device)
			}

			targetDir := args[0]
			if err := os.MkdirAll(targetDir, 0o755); err != nil {
				return fmt.Errorf("create target directory: %w", err)
			}

			return runFill(signalCtx, cmd, ctx, targetDir, force)
		},
	}

	cmd.Flags().StringVar(&catalogFlag, "catalog", "", "Catalog source (ubuweb or dir)")
	cmd.Flags().StringVar(&dirFlag, "dir", "", "Local catalog directory for the dir source")
	cmd.Flags().IntVar(&banks, "banks", 0, "Number of banks to fill")
	cmd.Flags().IntVar(&stations, "stations", 0, "Stations per bank")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Target minutes per station")
	cmd.Flags().IntVar(&diversity, "diversity", 0, "Distinct catalog sections per station")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent station builders")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Selection seed (0 picks a random seed)")
	cmd.Flags().Float64Var(&minFill, "min-fill", 0, "Fraction of the target below which a station counts as underfilled")
	cmd.Flags().BoolVar(&waitForCard, "wait-for-card", false, "Wait for a removable card before filling")
	cmd.Flags().BoolVar(&force, "force", false, "Skip the free disk space check")

	return cmd
}

func runFill(runCtx context.Context, cmd *cobra.Command, ctx *commandContext, targetDir string, force bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	// One fill per target directory at a time.
	lock := flock.New(filepath.Join(targetDir, ".radiobank.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire target lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another fill is already writing to %s", targetDir)
	}
	defer lock.Unlock()

	format := sox.Format{
		SampleRate: cfg.Audio.SampleRate,
		BitDepth:   cfg.Audio.BitDepth,
		Channels:   cfg.Audio.Channels,
	}
	if !force {
		required := preflight.RequiredBytes(cfg.Bank.Banks, cfg.Bank.Stations, cfg.Bank.Minutes, format)
		free, err := preflight.FreeBytes(targetDir)
		if err != nil {
			return fmt.Errorf("check free space: %w", err)
		}
		if free < required {
			return fmt.Errorf("%s has %s free but the run needs about %s (use --force to proceed anyway)",
				targetDir, preflight.HumanBytes(free), preflight.HumanBytes(required))
		}
	}

	encoder := sox.NewCLI(sox.WithBinary(cfg.Audio.SoxBinary))
	source, err := buildCatalogSource(cfg, encoder, logger)
	if err != nil {
		return err
	}

	cat, err := catalog.Load(runCtx, logger, source.source)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded",
		logging.Int("sections", cat.SectionCount()),
		logging.Int("clips", cat.ClipCount()))

	seed := cfg.Run.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	selector := selection.New(cat, rng, selection.Params{
		Diversity:    cfg.Bank.Diversity,
		MinFillRatio: cfg.Bank.MinFillRatio,
	})
	assembler := assembly.New(source.resolver, encoder, cfg.Paths.StagingDir, targetDir, sox.EncodeOptions{
		Format:    format,
		Crossfade: time.Duration(cfg.Audio.CrossfadeSeconds) * time.Second,
	}, logger)

	var store *report.Store
	if cfg.Paths.ReportDB != "" {
		store, err = report.Open(cfg.Paths.ReportDB)
		if err != nil {
			logger.Warn("report database unavailable, continuing without it", logging.Error(err))
			store = nil
		} else {
			defer store.Close()
		}
	}

	total := cfg.Bank.Banks * cfg.Bank.Stations
	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("filling stations"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}

	coordinator := run.New(selector, assembler, selection.NewUsedPool(), store, logger, run.Options{
		Banks:           cfg.Bank.Banks,
		StationsPerBank: cfg.Bank.Stations,
		Target:          time.Duration(cfg.Bank.Minutes) * time.Minute,
		Workers:         cfg.Run.Workers,
		TargetDir:       targetDir,
		CatalogDesc:     source.desc,
		Seed:            seed,
		OnStation: func(result run.StationResult) {
			if bar == nil {
				return
			}
			bar.Describe(fmt.Sprintf("station %02d/%02d %s", result.Bank, result.Station, result.Outcome))
			bar.Add(1)
		},
	})

	summary, err := coordinator.Run(runCtx)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	printSummary(cmd, summary, total)
	if summary.Succeeded() == 0 {
		if summary.Halted != nil {
			return fmt.Errorf("no stations were written: %w", summary.Halted)
		}
		return fmt.Errorf("no stations were written")
	}
	return nil
}

func printSummary(cmd *cobra.Command, summary *run.Summary, total int) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Run %s: %d of %d stations written\n", summary.RunID, summary.Succeeded(), total)
	fmt.Fprintln(out, renderOutcomeCounts(summary.CountByOutcome()))

	var failures []table.Row
	for _, result := range summary.Results {
		if result.Outcome.Succeeded() || result.Err == nil {
			continue
		}
		failures = append(failures, table.Row{
			stationLabel(result.Bank, result.Station),
			string(result.Outcome),
			result.Err.Error(),
		})
	}
	if len(failures) > 0 {
		fmt.Fprintln(out, renderTable(table.Row{"Station", "Outcome", "Reason"}, failures))
	}
	if summary.Halted != nil {
		fmt.Fprintf(out, "Catalog ran out of material: %v\n", summary.Halted)
	}
}
