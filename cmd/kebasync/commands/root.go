package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"kebasync/lib/importstore"
	"kebasync/lib/kebaweb"
	"kebasync/lib/telemetry"
	"kebasync/services/importer"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const version = "20240107"

var (
	flagCharge  bool
	flagRfid    bool
	flagStation bool
	flagAll     bool
	flagWrite   bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:     "kebasync",
	Short:   "kebasync imports charge reports, rfid cards and stations from a KEBA wallbox console.",
	Version: version,
	Run:     run,
}

func init() {
	rootCmd.Flags().BoolVarP(&flagCharge, "charge", "c", false, "import charge sessions from the last 45 days")
	rootCmd.Flags().BoolVarP(&flagRfid, "rfid", "r", false, "import rfid cards")
	rootCmd.Flags().BoolVarP(&flagStation, "station", "s", false, "import wallbox stations")
	rootCmd.Flags().BoolVarP(&flagAll, "all", "a", false, "full import: charges, rfid cards, stations")
	rootCmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "write shaped reports to json files")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

func run(cmd *cobra.Command, args []string) {
	telemetry.InitSlog(flagVerbose)

	if flagAll {
		flagCharge = true
		flagRfid = true
		flagStation = true
	}
	if !flagCharge && !flagRfid && !flagStation {
		cmd.Help()
		return
	}

	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		fatal("read config", err)
	}

	client, err := kebaweb.NewClient(kebaweb.ClientOptions{
		BaseUrl:  fmt.Sprintf("%s://%s", cfg.Console.Proto, cfg.Console.Host),
		Username: cfg.Console.Username,
		Password: cfg.Console.Password,
	})
	if err != nil {
		fatal("initialize console client", err)
	}

	database, err := importstore.Open(cfg.Database)
	if err != nil {
		fatal("open database", err)
	}
	defer database.Close()

	service := importer.NewService(importer.Options{
		Client:         client,
		Store:          importstore.NewStore(database),
		SnapshotDir:    cfg.SnapshotDir,
		WriteSnapshots: flagWrite,
	})

	sess, err := client.Login(ctx)
	if err != nil {
		fatal("login to console", err)
	}

	var reports []importer.Report
	if flagRfid {
		report, err := service.ImportRfidCards(ctx, sess)
		if err != nil {
			fatal("import rfid cards", err)
		}
		reports = append(reports, report)
	}
	if flagCharge {
		report, err := service.ImportChargeSessions(ctx, sess)
		if err != nil {
			fatal("import charge sessions", err)
		}
		reports = append(reports, report)
	}
	if flagStation {
		report, err := service.ImportStations(ctx, sess)
		if err != nil {
			fatal("import stations", err)
		}
		reports = append(reports, report)
	}

	renderReports(reports)
}

func renderReports(reports []importer.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Resource", "Inserted", "Updated", "Unchanged", "Skipped"})
	for _, r := range reports {
		t.AppendRow(table.Row{r.Resource, r.Inserted, r.Updated, r.Unchanged, r.Skipped})
	}
	t.Render()
}
