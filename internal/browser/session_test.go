package browser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/stretchr/testify/assert"

	"rpa-news-robot/internal/scraper"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		stale bool
	}{
		{"object gone", cdp.ErrObjNotFound, true},
		{"context gone", &cdp.Error{Code: -32000, Message: "Cannot find context with specified id"}, true},
		{"context destroyed", fmt.Errorf("eval: %w", cdp.ErrCtxDestroyed), true},
		{"remote object", &rod.ObjectNotFoundError{}, true},
		{"element missing", &rod.ElementNotFoundError{}, false},
		{"other cdp error", &cdp.Error{Code: -32000, Message: "Node is not an element"}, false},
		{"plain error", errors.New("timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("read headline", tt.err)
			assert.Equal(t, tt.stale, scraper.IsStale(err))
			assert.ErrorIs(t, err, tt.err, "cause is kept")
			assert.Contains(t, err.Error(), "read headline")
		})
	}
}
