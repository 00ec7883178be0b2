package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/browser"
)

const (
	pageSourceScript    = "document.documentElement.outerHTML"
	pageSourceMediaType = "text/html"
)

// PageDigest is what a reader of a failure report wants to know about the page at the
// moment of failure.
type PageDigest struct {
	Title  string
	Alerts []string
	Inputs int
}

// DigestHTML summarizes a page source. Hidden alerts are ignored.
func DigestHTML(html string) (PageDigest, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PageDigest{}, fmt.Errorf("parse page source: %w", err)
	}
	d := PageDigest{
		Title:  strings.TrimSpace(doc.Find("title").First().Text()),
		Inputs: doc.Find("input").Length(),
	}
	doc.Find(`[role="alert"]`).Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("hidden") {
			return
		}
		if style, ok := s.Attr("style"); ok && strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none") {
			return
		}
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			d.Alerts = append(d.Alerts, text)
		}
	})
	return d, nil
}

// snapshot attaches the page source and logs its digest. Like screenshots, it never
// fails the scenario.
func (h *Hooks) snapshot(ctx context.Context, s *browser.Session, scenario string, scLog *zap.Logger) context.Context {
	captureCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()

	raw, err := s.Evaluate(captureCtx, pageSourceScript)
	if err != nil {
		scLog.Warn("Failed to read page source", zap.Error(err))
		return ctx
	}
	html, ok := raw.(string)
	if !ok || html == "" {
		scLog.Warn("Page source was empty", zap.String("type", fmt.Sprintf("%T", raw)))
		return ctx
	}

	if d, err := DigestHTML(html); err == nil {
		scLog.Info("Page at failure",
			zap.String("title", d.Title),
			zap.Strings("alerts", d.Alerts),
			zap.Int("inputs", d.Inputs))
	}

	a := Artifact{Scenario: scenario, MediaType: pageSourceMediaType, Body: []byte(html), CapturedAt: time.Now()}
	if h.sink != nil {
		if path, err := h.sink.Save(captureCtx, a); err == nil {
			a.Path = path
		} else {
			scLog.Warn("Failed to save page source", zap.Error(err))
		}
	}
	return h.attach(ctx, a)
}
