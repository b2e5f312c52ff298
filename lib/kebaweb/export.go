package kebaweb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const DefaultExportWindowDays = 45

var ErrContentType = fmt.Errorf("export download is not text/csv")

// ChargeReportFields is the fixed column order of the exported csv.
func ChargeReportFields() []string {
	return []string{
		"StationID",
		"Serial",
		"RFID",
		"Status",
		"Start",
		"End",
		"Duration",
		"MeterStart",
		"MeterEnd",
		"Consumption",
	}
}

type searchValue struct {
	Value string `json:"value"`
}

type exportColumn struct {
	Data   string      `json:"data"`
	Search searchValue `json:"search"`
}

type exportOrder struct {
	Column int    `json:"column"`
	Dir    string `json:"dir"`
}

type exportSpec struct {
	Columns []exportColumn `json:"columns"`
	Order   []exportOrder  `json:"order"`
}

type exportRequest struct {
	Csrftoken string     `json:"csrftoken"`
	Export    exportSpec `json:"exportchargingsessions"`
}

// ExportChargeSessions drives the console's asynchronous export
// protocol: request an export over the trailing window, wait, poll the
// status counters, wait again, download the csv artifact. The wallbox
// generates exports in the background with no notification hook, the
// fixed settle delays are the only contract it offers.
//
// ok is false when the status poll reports nothing exported; that is
// an empty window, not an error.
func (c *Client) ExportChargeSessions(ctx context.Context, sess Session, windowDays int) (csv string, ok bool, err error) {
	ctx, span := tracer.Start(ctx, "client:ExportChargeSessions")
	defer span.End()

	if windowDays <= 0 {
		windowDays = DefaultExportWindowDays
	}
	end := c.clock.Now().UTC()
	start := end.AddDate(0, 0, -windowDays)
	endMillis := strconv.FormatInt(end.UnixMilli(), 10)
	startMillis := strconv.FormatInt(start.UnixMilli(), 10)

	res, err := c.Http.R().
		SetContext(ctx).
		SetBody(exportRequest{
			Csrftoken: sess.Csrf,
			Export: exportSpec{
				Columns: []exportColumn{
					{Data: "wallboxNumber"},
					{Data: "wallboxSerialNumber"},
					{Data: "tokenId"},
					{Data: "startDate", Search: searchValue{Value: startMillis}},
					{Data: "endDate", Search: searchValue{Value: endMillis}},
				},
				Order: []exportOrder{{Column: 5, Dir: "desc"}},
			},
		}).
		Post("/ajax.php")
	if err != nil {
		return "", false, err
	}
	if !res.IsSuccess() {
		return "", false, fmt.Errorf("%w: export request returned %s", ErrStatus, res.Status())
	}

	c.clock.Sleep(c.settle)

	res, err = c.postAjax(ctx, sess, "/chargingsessions/export/status")
	if err != nil {
		return "", false, err
	}
	// {"total":4,"exported":4}
	var status struct {
		Total    int `json:"total"`
		Exported int `json:"exported"`
	}
	err = json.Unmarshal(res.Body(), &status)
	if err != nil {
		return "", false, fmt.Errorf("decode export status: %w", err)
	}
	if status.Exported == 0 {
		return "", false, nil
	}

	c.clock.Sleep(c.settle)

	res, err = c.Http.R().
		SetContext(ctx).
		SetQueryParam("chargingsessions", "").
		SetQueryParam("t", endMillis).
		Get("/export.php")
	if err != nil {
		return "", false, err
	}
	if !res.IsSuccess() {
		return "", false, fmt.Errorf("%w: export download returned %s", ErrStatus, res.Status())
	}
	// Content-Type: text/csv;charset=UTF-8
	contentType := res.Header().Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/csv") {
		return "", false, fmt.Errorf("%w: got %q", ErrContentType, contentType)
	}

	return res.String(), true, nil
}
