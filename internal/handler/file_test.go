package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

func TestParseRangeHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   *storage.Range
	}{
		{"absent", "", nil},
		{"bounded", "bytes=100-199", &storage.Range{Offset: 100, Length: 100}},
		{"open ended", "bytes=500-", &storage.Range{Offset: 500}},
		{"from zero", "bytes=0-0", &storage.Range{Offset: 0, Length: 1}},
		// Unsupported forms degrade to a full response rather than erroring.
		{"suffix range", "bytes=-500", nil},
		{"multiple ranges", "bytes=0-99,200-299", nil},
		{"other unit", "items=0-10", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRangeHeader(tt.header)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRangeHeaderMalformed(t *testing.T) {
	for _, header := range []string{
		"bytes=abc-def",
		"bytes=100",
		"bytes=200-100",
		"bytes=1.5-2",
	} {
		t.Run(header, func(t *testing.T) {
			_, err := parseRangeHeader(header)
			assert.Error(t, err)
		})
	}
}
