package records

import (
	"errors"
	"testing"

	"kebasync/lib/kebatime"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestNewChargeSession(t *testing.T) {
	row := map[string]string{
		"StationID":   "1",
		"Serial":      "SN1",
		"RFID":        "TOK1",
		"Status":      "CLOSED",
		"Start":       "01-01-2024 10:00:00",
		"End":         "01-01-2024 11:00:00",
		"Duration":    "3600",
		"MeterStart":  "100.4",
		"MeterEnd":    "110.6",
		"Consumption": "5.50",
	}
	rec, err := NewChargeSession(row)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, 1, rec.StationID)
	require.Equal(t, "SN1", rec.Serial)
	require.Equal(t, "TOK1", rec.RFID)
	require.Equal(t, "CLOSED", rec.Status)
	require.Equal(t, 3600, rec.Duration)
	require.Equal(t, 100, rec.MeterStart)
	require.Equal(t, 111, rec.MeterEnd)
	require.Equal(t, 5.50, rec.Consumption)

	start, err := kebatime.ParseReportDate("01-01-2024 10:00:00")
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, rec.Start.Equal(start))
	require.Equal(t, int64(3600), rec.End.Unix()-rec.Start.Unix())
}

func TestNewChargeSessionFormatErrors(t *testing.T) {
	valid := map[string]string{
		"StationID":   "1",
		"Serial":      "SN1",
		"RFID":        "TOK1",
		"Status":      "CLOSED",
		"Start":       "01-01-2024 10:00:00",
		"End":         "01-01-2024 11:00:00",
		"Duration":    "3600",
		"MeterStart":  "100",
		"MeterEnd":    "110",
		"Consumption": "5.50",
	}

	for field, value := range map[string]string{
		"Start":       "2024-01-01 10:00:00",
		"End":         "",
		"StationID":   "one",
		"Duration":    "1h",
		"MeterStart":  "abc",
		"MeterEnd":    "abc",
		"Consumption": "5,50",
	} {
		row := map[string]string{}
		for k, v := range valid {
			row[k] = v
		}
		row[field] = value

		_, err := NewChargeSession(row)
		require.Error(t, err, "field %s", field)
		require.True(t, errors.Is(err, ErrFormat), "field %s: %v", field, err)
	}
}

func TestNewRfidCardDefaults(t *testing.T) {
	rec, err := NewRfidCard(map[string]any{
		"id":            "A1",
		"status":        "enabled",
		"serialNumbers": []any{"X"},
	})
	if err != nil {
		t.Fatal(err)
	}

	expect := RfidCard{ID: "A1", Status: "enabled"}
	if diff := cmp.Diff(expect, rec); diff != "" {
		t.Fatal(diff)
	}
	require.False(t, rec.Master)
	require.Equal(t, "", rec.Name)
	require.Nil(t, rec.ChangedDate)
	require.Nil(t, rec.UsedDate)
	require.Nil(t, rec.ExpiryDate)
}

func TestNewRfidCardOptionalDates(t *testing.T) {
	rec, err := NewRfidCard(map[string]any{
		"id":          "A2",
		"status":      "enabled",
		"master":      true,
		"name":        "pool car",
		"changedDate": float64(1655739267733),
		"usedDate":    "1655739267733",
	})
	if err != nil {
		t.Fatal(err)
	}

	require.True(t, rec.Master)
	require.Equal(t, "pool car", rec.Name)
	require.NotNil(t, rec.ChangedDate)
	require.Equal(t, int64(1655739267), rec.ChangedDate.Unix())
	require.NotNil(t, rec.UsedDate)
	require.Equal(t, int64(1655739267), rec.UsedDate.Unix())
	require.Nil(t, rec.ExpiryDate)
}

func TestNewRfidCardRequiresId(t *testing.T) {
	_, err := NewRfidCard(map[string]any{"status": "enabled"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrFormat))
}

func TestNewRfidCardBadDate(t *testing.T) {
	_, err := NewRfidCard(map[string]any{
		"id":         "A3",
		"status":     "enabled",
		"expiryDate": "soon",
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrFormat))
}

func TestNewStation(t *testing.T) {
	rec, err := NewStation(map[string]any{
		"serialNumber":         "22269607",
		"model":                "KC-P30",
		"alias":                "garage",
		"macAddress":           "00:11:22:33:44:55",
		"ipAddress":            "192.168.0.20",
		"state":                "ONLINE",
		"maxPhases":            float64(3),
		"maxCurrent":           float64(32),
		"number":               float64(1),
		"phaseUsed":            "THREE",
		"authorizationEnabled": true,
		"hasExternalMeter":     false,
	})
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, "22269607", rec.SerialNumber)
	require.Equal(t, "KC-P30", rec.Model)
	require.Equal(t, 3, rec.MaxPhases)
	require.Equal(t, 32, rec.MaxCurrent)
	require.Equal(t, 1, rec.Number)
	require.Equal(t, "true", rec.AuthorizationEnabled)
	require.Equal(t, "false", rec.HasExternalMeter)
}

func TestNewStationIgnoresUnknownKeys(t *testing.T) {
	rec, err := NewStation(map[string]any{
		"serialNumber":      "22269607",
		"model":             "KC-P30",
		"vehiclePlugged":    true,
		"mvaPublicKey":      "mFkwEwYHKo...",
		"dipSwitchSettings": []any{true, false},
		"meter": map[string]any{
			"meterValue": float64(123456),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "22269607", rec.SerialNumber)
	require.Equal(t, "KC-P30", rec.Model)
	require.Equal(t, 0, rec.MaxPhases)
	require.Equal(t, "", rec.PhaseUsed)
}
