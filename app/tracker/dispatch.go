package tracker

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/capwatch/app/capture"
)

// errors returned by mutations, the user-visible message is set in the error slot as well
var (
	ErrInvalidURLs    = errors.New("invalid urls")
	ErrMutationFailed = errors.New("mutation failed")
)

// user-visible messages
const (
	MsgInvalidURLs  = "The list above contains invalid URLs. Only http:// and https:// URLs are supported"
	MsgNoURLs       = "Please enter at least one URL"
	MsgSubmitFailed = "Sorry, an error has occurred. Capture Not Started"
	MsgDeleteFailed = "Sorry, an error has occurred. Capture Not Deleted"
)

var reURL = regexp.MustCompile(`^https?://\w+`)

// ParseURLs splits text to lines and returns all non-blank trimmed lines.
// Fails if any line is not an http(s) url.
func ParseURLs(text string) ([]string, error) {
	var res []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !reURL.MatchString(line) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidURLs, line)
		}
		res = append(res, line)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("%w: no urls", ErrInvalidURLs)
	}
	return res, nil
}

// Submit validates urls from text (one per line) and queues their capture with tag.
// Nothing is submitted if any line is invalid. Refresh triggered on success.
func (t *Tracker) Submit(ctx context.Context, text, tag string) error {
	t.setError("")
	urls, err := ParseURLs(text)
	if err != nil {
		msg := MsgInvalidURLs
		if len(strings.TrimSpace(text)) == 0 {
			msg = MsgNoURLs
		}
		t.setError(msg)
		return err
	}
	return t.queue(ctx, urls, tag)
}

// Retry queues a new capture of the job's url with the job's tag, without validation
func (t *Tracker) Retry(ctx context.Context, key capture.Key) error {
	t.setError("")
	job, ok := t.job(key)
	if !ok {
		return fmt.Errorf("can't retry %s: %w", key, ErrNotFound)
	}
	log.Printf("[INFO] retry capture %s, %s", key, job.CaptureURL)
	return t.queue(ctx, []string{job.CaptureURL}, job.UserTag)
}

// Delete removes a job. The deleting flag is set before the request is sent and cleared if it fails.
// Keys without job id or index are ignored.
func (t *Tracker) Delete(ctx context.Context, key capture.Key) error {
	if !key.Valid() {
		return nil
	}
	t.updateState(key, func(st *capture.State) { st.IsDeleting = true })

	if err := t.remote.Delete(ctx, key); err != nil {
		log.Printf("[WARN] failed to delete %s, %v", key, err)
		t.updateState(key, func(st *capture.State) { st.IsDeleting = false })
		t.setError(MsgDeleteFailed)
		return fmt.Errorf("%w: delete %s: %w", ErrMutationFailed, key, err)
	}
	log.Printf("[INFO] deleted %s", key)
	t.Trigger()
	return nil
}

func (t *Tracker) queue(ctx context.Context, urls []string, tag string) error {
	if err := t.remote.Submit(ctx, urls, tag); err != nil {
		log.Printf("[WARN] failed to queue %d urls, %v", len(urls), err)
		t.setError(MsgSubmitFailed)
		return fmt.Errorf("%w: submit: %w", ErrMutationFailed, err)
	}
	log.Printf("[INFO] queued %d urls, tag %q", len(urls), tag)
	t.Trigger()
	return nil
}

// job returns job of the latest snapshot by key
func (t *Tracker) job(key capture.Key) (capture.Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.jobs {
		if j.Key() == key {
			return j, true
		}
	}
	return capture.Job{}, false
}
