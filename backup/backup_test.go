package backup

import (
	"testing"

	"github.com/alecthomas/assert"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	partials := []*Config{
		{},
		{Access: "a"},
		{Access: "a", Secret: "s"},
		{Access: "a", Secret: "s", Bucket: "b"},
		{Secret: "s", Bucket: "b", Endpoint: "e"},
	}
	for _, c := range partials {
		_, err := New(c)
		assert.Error(t, err)
	}
}
