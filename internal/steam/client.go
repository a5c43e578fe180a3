package steam

import (
	"boilerroom-backend/internal/components/telemetry"
	"boilerroom-backend/lib/restyutil"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("boilerroom.internal.steam")

const (
	report_client_get     = "client.get"
	report_client_breaker = "client.breaker"
)

const DefaultBaseUrl = "https://store.steampowered.com"

type Options struct {
	BaseUrl string
	Timeout time.Duration
	// requests per second across every request made by the client
	RequestsPerSecond float64
	// consecutive failed requests before the client stops calling steam
	BreakerFailures uint32
	// how long the client stops calling steam once the breaker trips
	BreakerCooldown time.Duration
	// optional, receives full request/response dumps when debug logging is on
	InstrumentOutput restyutil.InstrumentOutput
}

func (o *Options) setDefaults() {
	if o.BaseUrl == "" {
		o.BaseUrl = DefaultBaseUrl
	}
	if o.Timeout == 0 {
		o.Timeout = time.Second * 30
	}
	if o.RequestsPerSecond == 0 {
		o.RequestsPerSecond = 1
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = 5
	}
	if o.BreakerCooldown == 0 {
		o.BreakerCooldown = time.Minute
	}
}

// StatusError is returned when steam answers with a non-2xx status.
type StatusError struct {
	Code int
	Url  string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.Url, e.Code)
}

// IsRetryable reports whether the request failed because steam asked us to
// back off, the same request is expected to succeed later.
func IsRetryable(err error) bool {
	var status StatusError
	if errors.As(err, &status) && status.Code == 429 {
		return true
	}
	return errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Client is a client for the public steam store api.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	tel     telemetry.API
}

func NewClient(options Options, tel telemetry.API) Client {
	options.setDefaults()
	tel = telemetry.NewScopedAPI("steam", tel)

	httpClient := resty.New()
	httpClient.SetTimeout(options.Timeout)
	httpClient.SetBaseURL(strings.TrimSuffix(options.BaseUrl, "/"))
	httpClient.SetHeader("accept", "application/json")

	restyutil.InstrumentClient(httpClient, tracer, options.InstrumentOutput)

	// max burst of 1 keeps requests evenly spaced instead of bunching them
	// up at the start of a batch
	rateLimiter := rate.NewLimiter(rate.Limit(options.RequestsPerSecond), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "steam",
		Timeout: options.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= options.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			tel.ReportWarning(report_client_breaker, from.String(), to.String())
		},
		IsSuccessful: func(err error) bool {
			// a context cancelled by the caller says nothing about steam
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return Client{http: httpClient, breaker: breaker, tel: tel}
}

func (c Client) get(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		res, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(query).
			Get(path)
		if err != nil {
			return nil, err
		}
		if res.IsError() {
			return nil, StatusError{Code: res.StatusCode(), Url: res.Request.URL}
		}
		return res.Body(), nil
	})
	if err != nil {
		c.tel.ReportBroken(report_client_get, err, path, query)
		return nil, err
	}
	return body, nil
}
