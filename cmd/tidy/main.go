package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tidy-go/internal/app"
	"tidy-go/internal/config"
	"tidy-go/internal/organizer"
	"tidy-go/internal/schedule"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a TidyApp. The caller must defer app.Close().
// invocation identifies the CLI command being run (e.g. "run", "restore").
func newApp(invocation string) (*app.TidyApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = defaults["log_dir"]
	}

	a, err := app.NewTidyApp(cfg, invocation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts on stderr and reads a passphrase without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(raw), nil
}

var rootCmd = &cobra.Command{
	Use:   "tidy",
	Short: "File organizer with a reversible move journal",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Archive Root: %s\n", cfg.ArchiveRoot)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Targets:          %v\n", cfg.Targets)
		fmt.Printf("Archive Root:     %s\n", cfg.ArchiveRoot)
		fmt.Printf("Keeper Policy:    %s\n", cfg.KeeperPolicy)
		fmt.Printf("Date Granularity: %s\n", cfg.DateGranularity)
		fmt.Printf("Classifier:       %s\n", cfg.Classifier.Type)
		fmt.Printf("Journal:          %s\n", cfg.Journal.Type)
		fmt.Printf("Mirror:           %s\n", cfg.Mirror.Type)
		return nil
	},
}

// plan command
var planCmd = &cobra.Command{
	Use:   "plan [PATH...]",
	Short: "Preview the moves a run would make",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("plan")
		if err != nil {
			return err
		}
		defer a.Close()

		plan, err := a.Plan(args)
		if err != nil {
			return err
		}

		fmt.Print(organizer.PlanReport(plan))
		return nil
	},
}

// run command
var runCmd = &cobra.Command{
	Use:   "run [PATH...]",
	Short: "Organize files into the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		a, err := newApp("run")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Run(cmd.Context(), args, dryRun)
		if result != nil {
			fmt.Print(organizer.ResultReport(result))
		}
		return err
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore [RUN_ID]",
	Short: "Move files back to where they came from",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		all, _ := cmd.Flags().GetBool("all")

		runID := ""
		if len(args) > 0 {
			runID = args[0]
		}
		if runID == "" && !all {
			return fmt.Errorf("give a RUN_ID or pass --all")
		}

		a, err := newApp("restore")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Restore(cmd.Context(), runID, dryRun)
		if result != nil {
			fmt.Print(organizer.ResultReport(result))
		}
		return err
	},
}

// sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep [PATH...]",
	Short: "Remove directories left empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		a, err := newApp("sweep")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Sweep(args, dryRun)
		if result != nil {
			fmt.Print(organizer.ResultReport(result))
		}
		return err
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View journaled runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		fmt.Print(organizer.HistoryReport(runs))
		return nil
	},
}

// dupes command
var dupesCmd = &cobra.Command{
	Use:   "dupes [PATH...]",
	Short: "List duplicate files",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("dupes")
		if err != nil {
			return err
		}
		defer a.Close()

		analysis, err := a.Analyze(args)
		if err != nil {
			return err
		}

		fmt.Print(organizer.DuplicateReport(analysis.Duplicates))
		return nil
	},
}

// versions command
var versionsCmd = &cobra.Command{
	Use:   "versions [PATH...]",
	Short: "List files that look like versions of each other",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("versions")
		if err != nil {
			return err
		}
		defer a.Close()

		analysis, err := a.Analyze(args)
		if err != nil {
			return err
		}

		fmt.Print(organizer.VersionReport(analysis.Versions))
		return nil
	},
}

// schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run organize passes on a cron schedule",
	Long: "Runs in the foreground and executes an organize pass at each cron firing.\n" +
		"With --dry-run each firing only logs the plan.",
	RunE: func(cmd *cobra.Command, args []string) error {
		expr, _ := cmd.Flags().GetString("cron")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		job := func(ctx context.Context) error {
			a, err := newApp("schedule")
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Run(ctx, nil, dryRun)
			if result != nil {
				fmt.Print(organizer.ResultReport(result))
			}
			return err
		}

		sched, err := schedule.New(expr, job, app.NewConsoleLogger("schedule"))
		if err != nil {
			return err
		}

		sched.Start()
		defer sched.Stop()
		fmt.Printf("Scheduled; next firing at %s. Ctrl-C to stop.\n",
			sched.NextAfter(time.Now()).Format("2006-01-02 15:04:05"))

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

// mirror command
var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Manage the off-machine journal copy",
}

var mirrorPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload a journal snapshot to the mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("mirror-push")
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.MirrorPush(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Journal snapshot pushed to %s\n", name)
		return nil
	},
}

var mirrorFetchCmd = &cobra.Command{
	Use:   "fetch DEST",
	Short: "Download the mirrored journal snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("mirror-fetch")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase := ""
		if a.Encrypted() {
			passphrase, err = readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
		}

		if err := a.MirrorFetch(cmd.Context(), args[0], passphrase); err != nil {
			return err
		}
		fmt.Printf("Journal snapshot fetched to %s\n", args[0])
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Generate the snapshot encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("keys-setup")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.SetupKeys(passphrase); err != nil {
			return err
		}
		fmt.Println("Key pair generated.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	mirrorCmd.AddCommand(mirrorPushCmd)
	mirrorCmd.AddCommand(mirrorFetchCmd)

	keysCmd.AddCommand(keysSetupCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("dry-run", false, "Plan only, move nothing")
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().Bool("dry-run", false, "Preview only, move nothing")
	restoreCmd.Flags().Bool("all", false, "Restore every journaled run")
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().Bool("dry-run", false, "Report only, remove nothing")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(dupesCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().String("cron", "0 3 * * *", "Cron expression (minute hour dom month dow)")
	scheduleCmd.Flags().Bool("dry-run", false, "Plan only at each firing")
	rootCmd.AddCommand(mirrorCmd)
	rootCmd.AddCommand(keysCmd)
}
