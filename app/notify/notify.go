// Package notify delivers notifications about finished capture jobs to webhook destinations
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"

	"github.com/umputun/capwatch/app/capture"
)

// Params for NewService
type Params struct {
	Destinations []string // webhook urls
	Headers      []string // extra webhook headers, "name:value"
	Timeout      time.Duration
	Attempts     int           // delivery attempts per destination
	Delay        time.Duration // initial delay between attempts, doubled each time
	OnlyFailed   bool          // skip completed jobs
}

// Service sends a message for each finished job
type Service struct {
	notifiers    []notify.Notifier
	destinations []string
	timeout      time.Duration
	onlyFailed   bool
	repeater     *repeater.Repeater
}

// NewService makes notification service, returns nil if no destinations configured
func NewService(p Params) *Service {
	if len(p.Destinations) == 0 {
		return nil
	}
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.Delay <= 0 {
		p.Delay = time.Second
	}

	wh := notify.NewWebhook(notify.WebhookParams{Timeout: p.Timeout, Headers: p.Headers})
	return &Service{
		notifiers:    []notify.Notifier{wh},
		destinations: p.Destinations,
		timeout:      p.Timeout,
		onlyFailed:   p.OnlyFailed,
		repeater:     repeater.New(&strategy.Backoff{Repeats: p.Attempts, Duration: p.Delay, Factor: 2}),
	}
}

// OnFinished sends notification for the job in background
func (s *Service) OnFinished(job capture.Job) {
	if s.onlyFailed && job.Status != capture.StatusFailed {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout*time.Duration(len(s.destinations)+1))
		defer cancel()
		if err := s.Send(ctx, job); err != nil {
			log.Printf("[WARN] failed to notify about %s, %v", job.Key(), err)
		}
	}()
}

// Send delivers message about job to all destinations, returns the first error
func (s *Service) Send(ctx context.Context, job capture.Job) error {
	text := MakeText(job)
	var firstErr error
	for _, dest := range s.destinations {
		err := s.repeater.Do(ctx, func() error { return notify.Send(ctx, s.notifiers, dest, text) })
		if err != nil {
			log.Printf("[WARN] notification to %s failed, %v", dest, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to send to %s: %w", dest, err)
			}
			continue
		}
		log.Printf("[DEBUG] notification for %s sent to %s", job.Key(), dest)
	}
	return firstErr
}

// MakeText makes a plain text message about finished job
func MakeText(job capture.Job) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Capture %s: %s (%s)", strings.ToLower(string(job.Status)), job.CaptureURL, job.Label())
	if job.AccessURL != "" {
		fmt.Fprintf(&sb, "\n%s", job.AccessURL)
	}
	return sb.String()
}
