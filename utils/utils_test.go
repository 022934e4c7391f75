package utils

import (
	"bytes"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMath_MinMaxAbsClamp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(2, Min(2, 5))
	assert.Equal(2, Min(5, 2))
	assert.Equal(5, Max(2, 5))
	assert.Equal(1.5, Max(1.5, -3.0))
	assert.Equal(3, Abs(-3))
	assert.Equal(0.25, Abs(0.25))
	assert.Equal(0, Clamp(-4, 0, 255))
	assert.Equal(255, Clamp(300, 0, 255))
	assert.Equal(17, Clamp(17, 0, 255))
}

func TestColor_HexToNRGBA(t *testing.T) {
	testCases := []struct {
		in   string
		want color.NRGBA
	}{
		{"#ff0000", color.NRGBA{R: 0xff, A: 0xff}},
		{"00ff00", color.NRGBA{G: 0xff, A: 0xff}},
		{"#fff", color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{"#ff00004d", color.NRGBA{R: 0xff, A: 0x4d}},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := HexToNRGBA(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := HexToNRGBA("#12345")
	assert.Error(t, err)
	_, err = HexToNRGBA("#zzzzzz")
	assert.Error(t, err)
}

func TestColor_NRGBAToHex(t *testing.T) {
	assert.Equal(t, "#ff0000", NRGBAToHex(color.NRGBA{R: 0xff, A: 0xff}))
	assert.Equal(t, "#0000ff80", NRGBAToHex(color.NRGBA{B: 0xff, A: 0x80}))
}

func TestFormat_DecorateText(t *testing.T) {
	assert.Equal(t, ErrorColor+"oops"+DefaultColor, DecorateText("oops", ErrorMessage))
	assert.Equal(t, "plain", DecorateText("plain", MessageType(42)))
}

func TestFormat_FormatTime(t *testing.T) {
	assert.Equal(t, "250ms", FormatTime(250*time.Millisecond))
	assert.Equal(t, "1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal(t, "2m 3.00s", FormatTime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1h 1m 1.00s", FormatTime(time.Hour+time.Minute+time.Second))
}

func TestFormat_FormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
	assert.Equal(t, "4.0 MiB", FormatBytes(4<<20))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_StartStop(t *testing.T) {
	var out syncBuffer
	s := NewSpinnerTo(&out, "working", time.Millisecond, false)
	s.StopMsg = "done"

	s.Start()
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Stop()
	s.Stop()

	assert.True(t, strings.Contains(out.String(), "working"))
	assert.True(t, strings.HasSuffix(out.String(), "done"))
}
