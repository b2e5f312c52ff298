package importstore

import (
	"context"
	"database/sql"
	"time"

	"kebasync/lib/importstore/db"
	"kebasync/lib/kebatime"
	"kebasync/lib/records"

	_ "modernc.org/sqlite"
)

// Outcome reports what a single upsert did to the store.
type Outcome int

const (
	Unchanged Outcome = iota
	Inserted
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open opens (or creates) the sqlite database at path and applies the
// schema.
func Open(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = database.Exec(db.Schema)
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// UpsertChargeSession inserts a session unless a row with the same
// full field set already exists. Stored sessions are never updated:
// charge history is an append-only ledger.
func (s Store) UpsertChargeSession(ctx context.Context, rec records.ChargeSession) (Outcome, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM charges
		WHERE station_id = ? AND serial = ? AND rfid = ? AND status = ?
		  AND start_time = ? AND end_time = ? AND duration = ?
		  AND meter_start = ? AND meter_end = ? AND consumption = ?
		LIMIT 1`,
		rec.StationID, rec.Serial, rec.RFID, rec.Status,
		rec.Start.Unix(), rec.End.Unix(), rec.Duration,
		rec.MeterStart, rec.MeterEnd, rec.Consumption,
	).Scan(&exists)
	if err == nil {
		return Unchanged, nil
	}
	if err != sql.ErrNoRows {
		return Unchanged, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO charges (
			station_id, serial, rfid, status, start_time, end_time,
			duration, meter_start, meter_end, consumption
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.StationID, rec.Serial, rec.RFID, rec.Status,
		rec.Start.Unix(), rec.End.Unix(), rec.Duration,
		rec.MeterStart, rec.MeterEnd, rec.Consumption,
	)
	if err != nil {
		return Unchanged, err
	}
	return Inserted, nil
}

func nullableUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func unixPtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0).In(kebatime.Location)
	return &t
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Unix() == b.Unix()
}

// UpsertRfidCard inserts a new card, overwrites an existing one whose
// fields differ, or reports Unchanged. Field equality is explicit:
// timestamps compare by unix seconds, never by the store's own
// comparison semantics.
func (s Store) UpsertRfidCard(ctx context.Context, rec records.RfidCard) (Outcome, error) {
	var stored records.RfidCard
	var changed, used, expiry sql.NullInt64
	var master int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, status, master, name, changed_date, used_date, expiry_date
		FROM rfid_cards WHERE id = ?`,
		rec.ID,
	).Scan(&stored.ID, &stored.Status, &master, &stored.Name, &changed, &used, &expiry)
	if err == sql.ErrNoRows {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO rfid_cards (id, status, master, name, changed_date, used_date, expiry_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Status, rec.Master, rec.Name,
			nullableUnix(rec.ChangedDate), nullableUnix(rec.UsedDate), nullableUnix(rec.ExpiryDate),
		)
		if err != nil {
			return Unchanged, err
		}
		return Inserted, nil
	}
	if err != nil {
		return Unchanged, err
	}

	stored.Master = master != 0
	stored.ChangedDate = unixPtr(changed)
	stored.UsedDate = unixPtr(used)
	stored.ExpiryDate = unixPtr(expiry)

	if stored.Status == rec.Status &&
		stored.Master == rec.Master &&
		stored.Name == rec.Name &&
		sameInstant(stored.ChangedDate, rec.ChangedDate) &&
		sameInstant(stored.UsedDate, rec.UsedDate) &&
		sameInstant(stored.ExpiryDate, rec.ExpiryDate) {
		return Unchanged, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE rfid_cards
		SET status = ?, master = ?, name = ?, changed_date = ?, used_date = ?, expiry_date = ?
		WHERE id = ?`,
		rec.Status, rec.Master, rec.Name,
		nullableUnix(rec.ChangedDate), nullableUnix(rec.UsedDate), nullableUnix(rec.ExpiryDate),
		rec.ID,
	)
	if err != nil {
		return Unchanged, err
	}
	return Updated, nil
}

// UpsertStation has the same insert/update/noop semantics as
// UpsertRfidCard, keyed by serial number.
func (s Store) UpsertStation(ctx context.Context, rec records.Station) (Outcome, error) {
	var stored records.Station
	err := s.db.QueryRowContext(ctx, `
		SELECT serial_number, model, alias, mac_address, ip_address, state,
		       max_phases, max_current, number, phase_used,
		       authorization_enabled, has_external_meter
		FROM stations WHERE serial_number = ?`,
		rec.SerialNumber,
	).Scan(
		&stored.SerialNumber, &stored.Model, &stored.Alias, &stored.MacAddress,
		&stored.IpAddress, &stored.State, &stored.MaxPhases, &stored.MaxCurrent,
		&stored.Number, &stored.PhaseUsed, &stored.AuthorizationEnabled,
		&stored.HasExternalMeter,
	)
	if err == sql.ErrNoRows {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO stations (
				serial_number, model, alias, mac_address, ip_address, state,
				max_phases, max_current, number, phase_used,
				authorization_enabled, has_external_meter
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.SerialNumber, rec.Model, rec.Alias, rec.MacAddress,
			rec.IpAddress, rec.State, rec.MaxPhases, rec.MaxCurrent,
			rec.Number, rec.PhaseUsed, rec.AuthorizationEnabled,
			rec.HasExternalMeter,
		)
		if err != nil {
			return Unchanged, err
		}
		return Inserted, nil
	}
	if err != nil {
		return Unchanged, err
	}

	if stored == rec {
		return Unchanged, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE stations
		SET model = ?, alias = ?, mac_address = ?, ip_address = ?, state = ?,
		    max_phases = ?, max_current = ?, number = ?, phase_used = ?,
		    authorization_enabled = ?, has_external_meter = ?
		WHERE serial_number = ?`,
		rec.Model, rec.Alias, rec.MacAddress, rec.IpAddress, rec.State,
		rec.MaxPhases, rec.MaxCurrent, rec.Number, rec.PhaseUsed,
		rec.AuthorizationEnabled, rec.HasExternalMeter,
		rec.SerialNumber,
	)
	if err != nil {
		return Unchanged, err
	}
	return Updated, nil
}
