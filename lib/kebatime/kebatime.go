package kebatime

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Vienna")
	if err != nil {
		panic(err)
	}
}

// force the console's timezone so imports are stable no matter
// where the importer itself runs; the wallbox reports local time
// with no offset information
func Now() time.Time {
	return time.Now().In(Location)
}

// the console's charge report writes dates like "13-07-2022 18:24:06"
const reportDateLayout = "02-01-2006 15:04:05"

func ParseReportDate(s string) (time.Time, error) {
	return time.ParseInLocation(reportDateLayout, s, Location)
}

// the ajax endpoints hand out unix timestamps in milliseconds,
// e.g. 1655739267733
func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).In(Location)
}
