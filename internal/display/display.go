// Package display shows a rendered figure to the user. The figure is kept in
// memory and served over a loopback HTTP listener; in window mode a Chrome
// app window is pointed at it.
package display

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"

	"volskew/internal/plotting"
)

const (
	ModeWindow = "window"
	ModeServe  = "serve"
)

type Config struct {
	Mode       string
	Addr       string
	ChromePath string
}

// Displayer serves figures and optionally opens them in a browser window.
type Displayer struct {
	cfg Config
	// open shows url and blocks until the viewer is gone or ctx is done.
	open func(ctx context.Context, url string) error
}

func New(cfg Config) *Displayer {
	if cfg.Mode == "" {
		cfg.Mode = ModeWindow
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	d := &Displayer{cfg: cfg}
	if cfg.Mode == ModeWindow {
		d.open = func(ctx context.Context, url string) error { return openChrome(ctx, url, cfg.ChromePath) }
	}
	return d
}

// Show renders s and blocks until the window is closed or ctx is done.
// A cancelled ctx is a normal way to finish and yields nil.
func (d *Displayer) Show(ctx context.Context, s *plotting.Surface) error {
	var buf bytes.Buffer
	if err := s.Render(&buf, "svg"); err != nil {
		return fmt.Errorf("render figure: %w", err)
	}

	ln, err := net.Listen("tcp", d.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", d.cfg.Addr, err)
	}
	fig := &Server{Title: s.Title(), SVG: buf.Bytes()}
	srv := &http.Server{
		Handler:           fig.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("display server")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	url := "http://" + ln.Addr().String() + "/"
	log.WithFields(log.Fields{"url": url, "title": fig.Title}).Info("figure ready")

	if d.open == nil {
		<-ctx.Done()
		return nil
	}
	if err := d.open(ctx, url); err != nil {
		log.WithError(err).Warnf("could not open a window, figure stays available at %s until interrupted", url)
		<-ctx.Done()
	}
	return nil
}

// openChrome launches a visible Chrome app window on url and polls it until
// the user closes it.
func openChrome(ctx context.Context, url, execPath string) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("app", url),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1440, 900),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Debugf))
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			var alive bool
			if err := chromedp.Run(browserCtx, chromedp.Evaluate(`true`, &alive)); err != nil {
				log.WithError(err).Debug("figure window closed")
				return nil
			}
		}
	}
}
