package wynagrodzenia

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"brutto-netto/lib/htmlutil"
	"brutto-netto/lib/money"
	"brutto-netto/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultBaseUrl = "https://wynagrodzenia.pl/kalkulator-wynagrodzen/"

var (
	// ErrNetwork is a transport level failure: connection errors, http
	// timeouts, cancellation and non-2xx statuses.
	ErrNetwork = errors.New("calculator request failed")
	// ErrProtocol means the page did not contain the expected form, token
	// or result markup.
	ErrProtocol = errors.New("unexpected calculator page")
	// ErrParse means the result markup was found but held no number.
	ErrParse = errors.New("could not parse net salary")
)

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// http timeout of each individual request, defaults to 30 seconds
	Timeout   time.Duration
	UserAgent string
	// defaults to DefaultParameters()
	Parameters *Parameters
	// if set, every request/response pair is dumped into it
	Output restyutil.InstrumentOutput
}

// Client talks to the calculator. It is safe for concurrent use, each call
// to Calculate runs in its own cookie session since the form token is bound
// to the session cookie it was issued with, only the connection pool is
// shared.
type Client struct {
	baseUrl    *url.URL
	transport  http.RoundTripper
	timeout    time.Duration
	userAgent  string
	parameters Parameters
	instrument restyutil.Instrument
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url must be absolute, got %q", opts.BaseUrl)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}
	parameters := DefaultParameters()
	if opts.Parameters != nil {
		parameters = *opts.Parameters
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &Client{
		baseUrl:    baseUrl,
		transport:  cloudflarebp.AddCloudFlareByPass(transport),
		timeout:    opts.Timeout,
		userAgent:  opts.UserAgent,
		parameters: parameters,
		instrument: restyutil.NewInstrument(tracer, opts.Output),
	}, nil
}

func (c *Client) session() (*resty.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.NewWithClient(&http.Client{
		Transport: c.transport,
		Jar:       jar,
	})
	client.SetTimeout(c.timeout)
	client.SetHeader("user-agent", c.userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(c.baseUrl.Hostname()))
	c.instrument.Apply(client)

	return client, nil
}

func checkResponse(res *resty.Response, step string) error {
	if res.IsError() {
		return fmt.Errorf("%w: %s: status %d", ErrNetwork, step, res.StatusCode())
	}
	return nil
}

// Calculate submits a canonical gross amount and returns the net amount the
// calculator computed for it, as a canonical amount string (cents kept).
func (c *Client) Calculate(ctx context.Context, amount string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:Calculate", trace.WithAttributes(
		attribute.String("amount", amount),
	))
	defer span.End()

	net, err := c.calculate(ctx, amount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to calculate net salary")
		return "", err
	}
	span.SetAttributes(attribute.String("net", net))
	return net, nil
}

func (c *Client) calculate(ctx context.Context, amount string) (string, error) {
	client, err := c.session()
	if err != nil {
		return "", err
	}

	res, err := client.R().
		SetContext(ctx).
		Get(c.baseUrl.String())
	if err != nil {
		return "", fmt.Errorf("%w: fetch form: %w", ErrNetwork, err)
	}
	err = checkResponse(res, "fetch form")
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return "", fmt.Errorf("%w: parse form page: %w", ErrProtocol, err)
	}

	pageUrl := c.baseUrl
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		pageUrl = res.RawResponse.Request.URL
	}
	f, ok := parseForm(doc, pageUrl)
	if !ok {
		return "", fmt.Errorf("%w: form %q or its token is missing", ErrProtocol, FormName)
	}

	values := merge(
		f.values,
		c.parameters.Values(),
		EarningsValues(amount),
		url.Values{TokenField: {f.token}},
	)

	req := client.R().SetContext(ctx)
	if f.method == http.MethodGet {
		res, err = req.SetQueryParamsFromValues(values).Get(f.action.String())
	} else {
		res, err = req.SetFormDataFromValues(values).Post(f.action.String())
	}
	if err != nil {
		return "", fmt.Errorf("%w: submit form: %w", ErrNetwork, err)
	}
	err = checkResponse(res, "submit form")
	if err != nil {
		return "", err
	}

	return parseResult(res.Body())
}

func parseResult(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("%w: parse result page: %w", ErrProtocol, err)
	}

	text, ok := htmlutil.FirstText(doc.Find(ResultSelector))
	if !ok {
		return "", fmt.Errorf("%w: no result in %q", ErrProtocol, ResultSelector)
	}

	net := money.Sanitize(text)
	if !strings.ContainsAny(net, "0123456789") {
		return "", fmt.Errorf("%w: %q", ErrParse, strings.TrimSpace(text))
	}
	return net, nil
}
