package records

import "time"

// ChargeSession is one completed charging event from the console's
// csv export. Sessions are append-only: once stored they are never
// updated, even if a later export disagrees.
type ChargeSession struct {
	StationID   int
	Serial      string
	RFID        string
	Status      string
	Start       time.Time
	End         time.Time
	Duration    int     // seconds
	MeterStart  int     // Wh
	MeterEnd    int     // Wh
	Consumption float64 // kWh
}

// NewChargeSession shapes one decoded csv row. The caller filters out
// in-progress rows (empty End) before this point.
func NewChargeSession(row map[string]string) (ChargeSession, error) {
	start, err := dateField("Start", row["Start"])
	if err != nil {
		return ChargeSession{}, err
	}
	end, err := dateField("End", row["End"])
	if err != nil {
		return ChargeSession{}, err
	}
	stationId, err := intField("StationID", row["StationID"])
	if err != nil {
		return ChargeSession{}, err
	}
	duration, err := intField("Duration", row["Duration"])
	if err != nil {
		return ChargeSession{}, err
	}
	meterStart, err := roundedIntField("MeterStart", row["MeterStart"])
	if err != nil {
		return ChargeSession{}, err
	}
	meterEnd, err := roundedIntField("MeterEnd", row["MeterEnd"])
	if err != nil {
		return ChargeSession{}, err
	}
	consumption, err := floatField("Consumption", row["Consumption"])
	if err != nil {
		return ChargeSession{}, err
	}

	return ChargeSession{
		StationID:   stationId,
		Serial:      row["Serial"],
		RFID:        row["RFID"],
		Status:      row["Status"],
		Start:       start,
		End:         end,
		Duration:    duration,
		MeterStart:  meterStart,
		MeterEnd:    meterEnd,
		Consumption: consumption,
	}, nil
}
