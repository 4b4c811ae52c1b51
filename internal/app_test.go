package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "scraper", args: []string{"scraper"}, want: ModeScraper},
		{name: "checker with extra args", args: []string{"checker", "--verbose"}, want: ModeChecker},
		{name: "missing", args: nil, wantErr: true},
		{name: "unknown", args: []string{"crawl"}, wantErr: true},
		{name: "case sensitive", args: []string{"Scraper"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMode(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLogLevel_DefaultsToInfo(t *testing.T) {
	assert.Equal(t, "INFO", parseLogLevel("verbose").String())
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
}
