package logship

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert"
)

func TestShipPosts(t *testing.T) {
	type recv struct {
		body   string
		apiKey string
		path   string
	}
	got := make(chan recv, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, _ := io.ReadAll(r.Body)
		got <- recv{
			body:   string(d),
			apiKey: r.Header.Get("X-Api-Key"),
			path:   r.URL.Path,
		}
	}))
	defer srv.Close()

	s := New(strings.TrimPrefix(srv.URL, "http://"), "key123")
	s.Ship("INFO", "[INFO] hello")

	select {
	case r := <-got:
		assert.Equal(t, "/api/log", r.path)
		assert.Equal(t, "key123", r.apiKey)
		assert.Contains(t, r.body, "[INFO] hello")
		assert.Contains(t, r.body, "INFO")
	case <-time.After(5 * time.Second):
		t.Fatal("no POST received")
	}
	s.Stop()
}

func TestShipDisabled(t *testing.T) {
	// empty server disables shipping entirely
	s := New("", "key")
	s.Ship("INFO", "dropped")
	s.Stop()

	// nil shipper is safe too
	var nilShipper *Shipper
	nilShipper.Ship("INFO", "dropped")
	nilShipper.Stop()
}

func TestStopWithoutShip(t *testing.T) {
	s := New("localhost:9", "")
	s.Stop()
}
