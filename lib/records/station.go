package records

// Station is one physical wallbox. Only this fixed field set is
// retained from the inventory payload; everything else the firmware
// reports (live meter telemetry, plug state, public keys, dip switch
// settings) is dropped at construction time.
type Station struct {
	SerialNumber         string
	Model                string
	Alias                string
	MacAddress           string
	IpAddress            string
	State                string
	MaxPhases            int
	MaxCurrent           int
	Number               int
	PhaseUsed            string
	AuthorizationEnabled string
	HasExternalMeter     string
}

// NewStation copies the allow-listed keys out of an arbitrary superset
// of inventory fields. Unknown keys never raise: firmware revisions
// add fields over time.
func NewStation(raw map[string]any) (Station, error) {
	maxPhases, err := rawInt(raw, "maxPhases")
	if err != nil {
		return Station{}, err
	}
	maxCurrent, err := rawInt(raw, "maxCurrent")
	if err != nil {
		return Station{}, err
	}
	number, err := rawInt(raw, "number")
	if err != nil {
		return Station{}, err
	}

	return Station{
		SerialNumber:         rawString(raw, "serialNumber"),
		Model:                rawString(raw, "model"),
		Alias:                rawString(raw, "alias"),
		MacAddress:           rawString(raw, "macAddress"),
		IpAddress:            rawString(raw, "ipAddress"),
		State:                rawString(raw, "state"),
		MaxPhases:            maxPhases,
		MaxCurrent:           maxCurrent,
		Number:               number,
		PhaseUsed:            rawString(raw, "phaseUsed"),
		AuthorizationEnabled: rawString(raw, "authorizationEnabled"),
		HasExternalMeter:     rawString(raw, "hasExternalMeter"),
	}, nil
}
