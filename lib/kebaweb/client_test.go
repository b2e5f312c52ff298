package kebaweb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kebasync/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
}

type fakeConsole struct {
	noCsrfToken    bool
	denyLogin      bool
	exportStatus   string
	csvBody        string
	csvContentType string

	exportRequests []map[string]any
	restPaths      []string
}

func (f *fakeConsole) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if f.noCsrfToken {
			w.Write([]byte(`<html><head></head><body>login</body></html>`))
			return
		}
		w.Write([]byte(`<html><head><meta content="TOKEN123" name="csrf-token"/></head><body>login</body></html>`))
	})
	mux.HandleFunc("POST /ajax.php", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		err := json.NewDecoder(r.Body).Decode(&body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if _, ok := body["username"]; ok {
			if f.denyLogin {
				w.Write([]byte("Access Denied"))
				return
			}
			w.Write([]byte("OK"))
			return
		}
		if _, ok := body["exportchargingsessions"]; ok {
			f.exportRequests = append(f.exportRequests, body)
			w.Write([]byte("{}"))
			return
		}

		rest, _ := body["cpmrestrequest"].(map[string]any)
		path, _ := rest["path"].(string)
		f.restPaths = append(f.restPaths, path)
		switch path {
		case "/wallboxes":
			w.Write([]byte(`[{"serialNumber":"22269607","model":"KC-P30","vehiclePlugged":true}]`))
		case "/chargingtokens":
			w.Write([]byte(`[{"id":"A1","status":"enabled","serialNumbers":["X"]}]`))
		case "/chargingsessions/export/status":
			w.Write([]byte(f.exportStatus))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("GET /export.php", func(w http.ResponseWriter, r *http.Request) {
		contentType := f.csvContentType
		if contentType == "" {
			contentType = "text/csv;charset=UTF-8"
		}
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(f.csvBody))
	})
	return mux
}

func newTestClient(t *testing.T, console *fakeConsole) (*Client, *fakeClock) {
	t.Helper()
	cleanup := telemetry.SetupForTesting(t, "test:kebaweb")
	t.Cleanup(cleanup)

	server := httptest.NewServer(console.handler())
	t.Cleanup(server.Close)

	clock := &fakeClock{now: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)}
	client, err := NewClient(ClientOptions{
		BaseUrl:  server.URL,
		Username: "admin",
		Password: "admin",
		Clock:    clock,
	})
	if err != nil {
		t.Fatal(err)
	}
	return client, clock
}

func TestLogin(t *testing.T) {
	client, _ := newTestClient(t, &fakeConsole{})

	sess, err := client.Login(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "TOKEN123", sess.Csrf)
}

func TestLoginMissingCsrfToken(t *testing.T) {
	client, _ := newTestClient(t, &fakeConsole{noCsrfToken: true})

	_, err := client.Login(context.Background())
	require.True(t, errors.Is(err, ErrCsrfToken))
}

func TestLoginAccessDenied(t *testing.T) {
	client, _ := newTestClient(t, &fakeConsole{denyLogin: true})

	_, err := client.Login(context.Background())
	require.True(t, errors.Is(err, ErrLoginFailed))
}

func TestFetchLists(t *testing.T) {
	console := &fakeConsole{}
	client, _ := newTestClient(t, console)

	ctx := context.Background()
	sess, err := client.Login(ctx)
	if err != nil {
		t.Fatal(err)
	}

	stations, err := client.FetchStationList(ctx, sess)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, stations, 1)
	require.Equal(t, "22269607", stations[0]["serialNumber"])

	rfids, err := client.FetchRfidList(ctx, sess)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, rfids, 1)
	require.Equal(t, "A1", rfids[0]["id"])

	require.Equal(t, []string{"/wallboxes", "/chargingtokens"}, console.restPaths)
}

func TestExportChargeSessions(t *testing.T) {
	console := &fakeConsole{
		exportStatus: `{"total":2,"exported":2}`,
		csvBody:      "header\n1;SN1;TOK1;CLOSED;01-01-2024 10:00:00;01-01-2024 11:00:00;3600;100;110;5.50\n",
	}
	client, clock := newTestClient(t, console)

	ctx := context.Background()
	sess, err := client.Login(ctx)
	if err != nil {
		t.Fatal(err)
	}

	csv, ok, err := client.ExportChargeSessions(ctx, sess, 45)
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, ok)
	require.Equal(t, console.csvBody, csv)

	// both settle delays happened, but against the fake clock
	require.Equal(t, []time.Duration{time.Second, time.Second}, clock.slept)

	// the export request scopes [now - 45d, now] in unix milliseconds
	require.Len(t, console.exportRequests, 1)
	export := console.exportRequests[0]["exportchargingsessions"].(map[string]any)
	columns := export["columns"].([]any)
	require.Len(t, columns, 5)
	start := columns[3].(map[string]any)["search"].(map[string]any)["value"].(string)
	end := columns[4].(map[string]any)["search"].(map[string]any)["value"].(string)
	require.Equal(t, "1702900800000", start)
	require.Equal(t, "1706788800000", end)
}

func TestExportChargeSessionsNoData(t *testing.T) {
	console := &fakeConsole{exportStatus: `{"total":0,"exported":0}`}
	client, clock := newTestClient(t, console)

	ctx := context.Background()
	sess, err := client.Login(ctx)
	if err != nil {
		t.Fatal(err)
	}

	csv, ok, err := client.ExportChargeSessions(ctx, sess, 45)
	if err != nil {
		t.Fatal(err)
	}
	require.False(t, ok)
	require.Equal(t, "", csv)

	// nothing to download, only the first settle delay happened
	require.Equal(t, []time.Duration{time.Second}, clock.slept)
}

func TestExportChargeSessionsBadStatus(t *testing.T) {
	console := &fakeConsole{exportStatus: `<html>maintenance</html>`}
	client, _ := newTestClient(t, console)

	ctx := context.Background()
	sess, err := client.Login(ctx)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = client.ExportChargeSessions(ctx, sess, 45)
	require.Error(t, err)
}

func TestExportChargeSessionsWrongContentType(t *testing.T) {
	console := &fakeConsole{
		exportStatus:   `{"total":1,"exported":1}`,
		csvBody:        `{"error":"export expired"}`,
		csvContentType: "application/json",
	}
	client, _ := newTestClient(t, console)

	ctx := context.Background()
	sess, err := client.Login(ctx)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = client.ExportChargeSessions(ctx, sess, 45)
	require.True(t, errors.Is(err, ErrContentType))
}
