package hltb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Renderer returns the html of a page after its scripts have run.
//
// note: fault injection point
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// the site answers the default headless user agent with a 403.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/111.0.0.0 Safari/537.36"

type RodOptions struct {
	// path to a chromium binary, if empty rod downloads or finds one
	Bin       string
	Headless  bool
	UserAgent string
	// bounds navigation and rendering of a single page
	NavigationTimeout time.Duration
	// how long to wait for WaitSelector to show up before taking the html as is
	SettleTimeout time.Duration
	WaitSelector  string
}

// RodRenderer launches a fresh browser for every render, renders are rare
// (once per buffered profile) and a fresh browser keeps no state between
// users.
type RodRenderer struct {
	options RodOptions
}

func NewRodRenderer(options RodOptions) RodRenderer {
	if options.UserAgent == "" {
		options.UserAgent = DefaultUserAgent
	}
	if options.NavigationTimeout == 0 {
		options.NavigationTimeout = time.Minute * 10
	}
	if options.SettleTimeout == 0 {
		options.SettleTimeout = time.Second * 5
	}
	return RodRenderer{options: options}
}

func (r RodRenderer) Render(ctx context.Context, url string) (string, error) {
	ctx, span := tracer.Start(ctx, "RodRenderer.Render")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.options.NavigationTimeout)
	defer cancel()

	l := launcher.New().
		Headless(r.options.Headless).
		Context(ctx)
	if r.options.Bin != "" {
		l = l.Bin(r.options.Bin)
	}
	controlUrl, err := l.Launch()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlUrl).Context(ctx)
	err = browser.Connect()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("open page: %w", err)
	}
	err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: r.options.UserAgent,
	})
	if err != nil {
		return "", fmt.Errorf("set user agent: %w", err)
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1080,
		Height:            1024,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return "", fmt.Errorf("set viewport: %w", err)
	}

	err = page.Navigate(url)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("navigate: %w", err)
	}
	err = page.WaitLoad()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("wait load: %w", err)
	}

	// the table is filled in by scripts after load, an empty library never
	// renders a row so a timeout here is not an error.
	if r.options.WaitSelector != "" {
		_, err = page.Timeout(r.options.SettleTimeout).Element(r.options.WaitSelector)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			span.RecordError(err)
			return "", fmt.Errorf("wait for %s: %w", r.options.WaitSelector, err)
		}
	}

	html, err := page.HTML()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}
