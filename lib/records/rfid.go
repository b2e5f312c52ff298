package records

import (
	"errors"
	"time"
)

// RfidCard is one access token known to the console. The raw
// "serialNumbers" list the console attaches is dropped here and never
// persisted.
type RfidCard struct {
	ID          string
	Status      string
	Master      bool
	Name        string
	ChangedDate *time.Time
	UsedDate    *time.Time
	ExpiryDate  *time.Time
}

func NewRfidCard(raw map[string]any) (RfidCard, error) {
	id := rawString(raw, "id")
	if id == "" {
		return RfidCard{}, errors.Join(ErrFormat, errors.New("rfid card has no id"))
	}

	changed, err := rawMillis(raw, "changedDate")
	if err != nil {
		return RfidCard{}, err
	}
	used, err := rawMillis(raw, "usedDate")
	if err != nil {
		return RfidCard{}, err
	}
	expiry, err := rawMillis(raw, "expiryDate")
	if err != nil {
		return RfidCard{}, err
	}

	return RfidCard{
		ID:          id,
		Status:      rawString(raw, "status"),
		Master:      rawBool(raw, "master"),
		Name:        rawString(raw, "name"),
		ChangedDate: changed,
		UsedDate:    used,
		ExpiryDate:  expiry,
	}, nil
}
