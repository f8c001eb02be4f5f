// Package logship sends log lines to a remote collector over HTTP,
// asynchronously and best-effort: lines are queued to a background
// worker, dropped when the queue is full and throttled after a failed
// POST so a dead collector never slows the logging path.
package logship

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/carlmjohnson/requests"
)

const (
	// how long to wait before resuming sends after a failure
	throttleTimeout = time.Second * 15

	postTimeout = time.Second * 10

	kPleaseStop = "please-stop"
)

type op struct {
	uri string
	d   []byte
}

// Shipper posts log lines to http://<server>/api/log as JSON. The zero
// Server disables shipping entirely.
type Shipper struct {
	Server string
	ApiKey string

	ch            chan op
	startWorker   sync.Once
	workerDone    chan struct{}
	throttleUntil time.Time
}

func New(server string, apiKey string) *Shipper {
	return &Shipper{
		Server:     server,
		ApiKey:     apiKey,
		ch:         make(chan op, 1000),
		workerDone: make(chan struct{}),
	}
}

func (s *Shipper) worker() {
	for op := range s.ch {
		if op.uri == kPleaseStop {
			break
		}
		r := requests.
			URL(op.uri).
			BodyBytes(op.d).
			ContentType("application/json")
		if s.ApiKey != "" {
			r = r.Header("X-Api-Key", s.ApiKey)
		}
		ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
		err := r.Fetch(ctx)
		cancel()
		if err != nil {
			fmt.Printf("logship: POST %s failed: %v, throttling for %s\n", op.uri, err, throttleTimeout)
			s.throttleUntil = time.Now().Add(throttleTimeout)
		}
	}
	close(s.workerDone)
}

// Ship queues one formatted log line for delivery. Never blocks: when
// the queue is full or the shipper is throttled, the line is dropped.
func (s *Shipper) Ship(level string, line string) {
	if s == nil || s.Server == "" {
		return
	}
	s.startWorker.Do(func() {
		go s.worker()
	})

	if time.Until(s.throttleUntil) > 0 {
		return
	}

	d, err := json.Marshal(map[string]string{
		"level": level,
		"line":  line,
	})
	if err != nil {
		return
	}
	o := op{
		uri: "http://" + s.Server + "/api/log",
		d:   d,
	}
	select {
	case s.ch <- o:
	default:
		// queue full, drop
	}
}

// Stop shuts down the worker and waits for queued lines to be sent.
// Ship calls after Stop are no-ops.
func (s *Shipper) Stop() {
	if s == nil {
		return
	}
	s.Server = ""
	started := true
	s.startWorker.Do(func() {
		started = false
	})
	if !started {
		return
	}
	s.ch <- op{uri: kPleaseStop}
	<-s.workerDone
}
