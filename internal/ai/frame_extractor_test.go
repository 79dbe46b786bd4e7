package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbe(t *testing.T) {
	tests := []struct {
		name      string
		output    string
		wantTotal int
		wantFPS   float64
		wantErr   bool
	}{
		{
			name: "frame count reported",
			output: `{"streams":[{"r_frame_rate":"30/1","avg_frame_rate":"30/1","nb_frames":"60","duration":"2.000000"}],
				"format":{"duration":"2.000000"}}`,
			wantTotal: 60,
			wantFPS:   30,
		},
		{
			name:      "ntsc rate from duration",
			output:    `{"streams":[{"r_frame_rate":"30000/1001","avg_frame_rate":"30000/1001","duration":"10.010000"}]}`,
			wantTotal: 300,
			wantFPS:   30000.0 / 1001.0,
		},
		{
			name:      "container duration only",
			output:    `{"streams":[{"r_frame_rate":"25/1","avg_frame_rate":"0/0"}],"format":{"duration":"4.0"}}`,
			wantTotal: 100,
			wantFPS:   25,
		},
		{
			name:      "no rate",
			output:    `{"streams":[{"r_frame_rate":"0/0","avg_frame_rate":"0/0","duration":"4.0"}]}`,
			wantTotal: 0,
			wantFPS:   0,
		},
		{
			name:    "no video stream",
			output:  `{"streams":[],"format":{"duration":"4.0"}}`,
			wantErr: true,
		},
		{
			name:    "garbage",
			output:  `Invalid data found when processing input`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseProbe([]byte(tt.output))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, info.TotalFrames)
			assert.InDelta(t, tt.wantFPS, info.FPS, 1e-9)
		})
	}
}

func TestParseRate(t *testing.T) {
	assert.InDelta(t, 29.97, parseRate("30000/1001"), 0.001)
	assert.Equal(t, 24.0, parseRate("24"))
	assert.Zero(t, parseRate("0/0"))
	assert.Zero(t, parseRate(""))
	assert.Zero(t, parseRate("n/a"))
}
