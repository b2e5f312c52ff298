package importer

import (
	"context"
	"log/slog"

	"kebasync/lib/csvutil"
	"kebasync/lib/importstore"
	"kebasync/lib/kebaweb"
	"kebasync/lib/records"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/importer")

type Service struct {
	client *kebaweb.Client
	store  importstore.Store

	windowDays     int
	snapshotDir    string
	writeSnapshots bool
}

type Options struct {
	Client *kebaweb.Client
	Store  importstore.Store
	// trailing period requested for the charge report, defaults to
	// kebaweb.DefaultExportWindowDays
	WindowDays int
	// when WriteSnapshots is set, each resource's shaped records are
	// dumped as a json array under SnapshotDir (default /tmp)
	SnapshotDir    string
	WriteSnapshots bool
}

func NewService(opts Options) Service {
	windowDays := opts.WindowDays
	if windowDays <= 0 {
		windowDays = kebaweb.DefaultExportWindowDays
	}
	snapshotDir := opts.SnapshotDir
	if snapshotDir == "" {
		snapshotDir = "/tmp"
	}
	return Service{
		client:         opts.Client,
		store:          opts.Store,
		windowDays:     windowDays,
		snapshotDir:    snapshotDir,
		writeSnapshots: opts.WriteSnapshots,
	}
}

// Report sums the upsert outcomes of one resource's import run.
type Report struct {
	Resource  string
	Inserted  int
	Updated   int
	Unchanged int
	// rows dropped before shaping (in-progress charge sessions)
	Skipped int
}

func (r *Report) count(outcome importstore.Outcome) {
	switch outcome {
	case importstore.Inserted:
		r.Inserted++
	case importstore.Updated:
		r.Updated++
	default:
		r.Unchanged++
	}
}

func (s Service) ImportChargeSessions(ctx context.Context, sess kebaweb.Session) (Report, error) {
	ctx, span := tracer.Start(ctx, "importer:ImportChargeSessions")
	defer span.End()

	report := Report{Resource: "charges"}

	csvText, ok, err := s.client.ExportChargeSessions(ctx, sess, s.windowDays)
	if err != nil {
		return report, err
	}
	if !ok {
		slog.InfoContext(ctx, "console exported no charge sessions", "window_days", s.windowDays)
		return report, nil
	}

	rows, err := csvutil.Decode(csvText, kebaweb.ChargeReportFields(), ';', true)
	if err != nil {
		return report, err
	}

	var recs []records.ChargeSession
	for _, row := range rows {
		// the export logs in-progress sessions with no end time
		if row["End"] == "" {
			report.Skipped++
			continue
		}
		rec, err := records.NewChargeSession(row)
		if err != nil {
			return report, err
		}
		recs = append(recs, rec)
	}

	writeSnapshot(ctx, s.snapshotDir, "keba_charges.json", recs, s.writeSnapshots)

	for _, rec := range recs {
		outcome, err := s.store.UpsertChargeSession(ctx, rec)
		if err != nil {
			return report, err
		}
		report.count(outcome)
	}
	return report, nil
}

func (s Service) ImportRfidCards(ctx context.Context, sess kebaweb.Session) (Report, error) {
	ctx, span := tracer.Start(ctx, "importer:ImportRfidCards")
	defer span.End()

	report := Report{Resource: "rfid cards"}

	payload, err := s.client.FetchRfidList(ctx, sess)
	if err != nil {
		return report, err
	}

	var recs []records.RfidCard
	for _, raw := range payload {
		rec, err := records.NewRfidCard(raw)
		if err != nil {
			return report, err
		}
		recs = append(recs, rec)
	}

	writeSnapshot(ctx, s.snapshotDir, "keba_rfids.json", recs, s.writeSnapshots)

	for _, rec := range recs {
		outcome, err := s.store.UpsertRfidCard(ctx, rec)
		if err != nil {
			return report, err
		}
		report.count(outcome)
	}
	return report, nil
}

func (s Service) ImportStations(ctx context.Context, sess kebaweb.Session) (Report, error) {
	ctx, span := tracer.Start(ctx, "importer:ImportStations")
	defer span.End()

	report := Report{Resource: "stations"}

	payload, err := s.client.FetchStationList(ctx, sess)
	if err != nil {
		return report, err
	}

	var recs []records.Station
	for _, raw := range payload {
		rec, err := records.NewStation(raw)
		if err != nil {
			return report, err
		}
		recs = append(recs, rec)
	}

	writeSnapshot(ctx, s.snapshotDir, "keba_stations.json", recs, s.writeSnapshots)

	for _, rec := range recs {
		outcome, err := s.store.UpsertStation(ctx, rec)
		if err != nil {
			return report, err
		}
		report.count(outcome)
	}
	return report, nil
}
