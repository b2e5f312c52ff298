package kebaweb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"kebasync/lib/chrono"
	"kebasync/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("kebaweb")

var (
	ErrCsrfToken   = fmt.Errorf("could not find csrf token on login page")
	ErrLoginFailed = fmt.Errorf("console rejected the login")
	ErrStatus      = fmt.Errorf("unexpected http status")
)

// Client holds one cookie session against a wallbox console. All auth
// state beyond the cookie jar lives in the Session value returned by
// Login, which every retrieval call takes explicitly.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	username string
	password string
	clock    chrono.API
	settle   time.Duration
}

type ClientOptions struct {
	BaseUrl  string
	Username string
	Password string
	// defaults to chrono.StandardImpl
	Clock chrono.API
	// pause between the steps of the async export protocol,
	// defaults to one second
	SettleDelay time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("Accept", "*/*")
	client.SetHeader("Content-Type", "application/json")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "kebaweb/http")

	clock := opts.Clock
	if clock == nil {
		clock = chrono.StandardImpl{}
	}
	settle := opts.SettleDelay
	if settle == 0 {
		settle = time.Second
	}

	return &Client{
		BaseUrl:  baseUrl,
		Http:     client,
		username: opts.Username,
		password: opts.Password,
		clock:    clock,
		settle:   settle,
	}, nil
}

// Session proves a completed login to the retrieval calls.
type Session struct {
	Csrf string
}

// Login scrapes the csrf token off the console's root page and posts
// the credentials. It never retries: the credentials are static, a
// rejected login stays rejected.
func (c *Client) Login(ctx context.Context) (Session, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/")
	if err != nil {
		return Session{}, err
	}
	if !res.IsSuccess() {
		return Session{}, fmt.Errorf("%w: login page returned %s", ErrStatus, res.Status())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return Session{}, err
	}

	// <meta content="XXXXX" name="csrf-token"/>
	csrf := doc.Find("meta[name=csrf-token]").AttrOr("content", "")
	if csrf == "" {
		return Session{}, ErrCsrfToken
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"username":  c.username,
			"password":  c.password,
			"csrftoken": csrf,
		}).
		Post("/ajax.php")
	if err != nil {
		return Session{}, err
	}
	if !res.IsSuccess() || strings.Contains(res.String(), "Access Denied") {
		return Session{}, ErrLoginFailed
	}

	return Session{Csrf: csrf}, nil
}

// the console multiplexes its rest resources over a single ajax
// endpoint taking this envelope
type cpmRequest struct {
	Csrftoken   string   `json:"csrftoken"`
	RestRequest restCall `json:"cpmrestrequest"`
}

type restCall struct {
	Path   string `json:"path"`
	Method string `json:"method"`
}

func (c *Client) postAjax(ctx context.Context, sess Session, path string) (*resty.Response, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		SetBody(cpmRequest{
			Csrftoken: sess.Csrf,
			RestRequest: restCall{
				Path:   path,
				Method: "GET",
			},
		}).
		Post("/ajax.php")
	if err != nil {
		return nil, err
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("%w: %s returned %s", ErrStatus, path, res.Status())
	}
	return res, nil
}

func (c *Client) fetchList(ctx context.Context, sess Session, path string) ([]map[string]any, error) {
	res, err := c.postAjax(ctx, sess, path)
	if err != nil {
		return nil, err
	}
	var payload []map[string]any
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return payload, nil
}

func (c *Client) FetchStationList(ctx context.Context, sess Session) ([]map[string]any, error) {
	ctx, span := tracer.Start(ctx, "client:FetchStationList")
	defer span.End()

	return c.fetchList(ctx, sess, "/wallboxes")
}

func (c *Client) FetchRfidList(ctx context.Context, sess Session) ([]map[string]any, error) {
	ctx, span := tracer.Start(ctx, "client:FetchRfidList")
	defer span.End()

	return c.fetchList(ctx, sess, "/chargingtokens")
}
