package notify

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/kbenzar/stovewatch/internal/domain"
	"github.com/kbenzar/stovewatch/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Alerter = (*Chime)(nil)
	_ domain.Alerter = (*NoopAlerter)(nil)
)

// Audio parameters for the generated chime.
const (
	chimeSampleRate = 24000
	chimeFreq       = 880.0 // A5
	chimeBeepMillis = 180
	chimeGapMillis  = 90
	chimeBeepCount  = 3
)

// Chime plays a short generated tone burst through the system audio
// device when a timer completes.
type Chime struct {
	ctx *oto.Context
	log *logger.Logger
	mu  sync.Mutex
	pcm []byte
}

// NewChime initializes the system audio context. Returns an error if the
// audio device is unavailable; callers typically fall back to a
// NoopAlerter in that case.
func NewChime(log *logger.Logger) (*Chime, error) {
	op := &oto.NewContextOptions{
		SampleRate:   chimeSampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	log.Debug("chime initialized (rate=%d)", chimeSampleRate)
	return &Chime{ctx: ctx, log: log, pcm: renderChime()}, nil
}

// Alert plays the chime synchronously. Playback failures never reach the
// caller's state machine; the only error returned is context
// cancellation while waiting on the device.
func (c *Chime) Alert(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	player := c.ctx.NewPlayer(bytes.NewReader(c.pcm))
	player.Play()
	c.log.Debug("chime: playing %d bytes of PCM", len(c.pcm))

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			_ = player.Close()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return player.Close()
}

// renderChime synthesizes the beep pattern as 16-bit mono PCM with a
// short linear fade at each edge to avoid clicks.
func renderChime() []byte {
	beepSamples := chimeSampleRate * chimeBeepMillis / 1000
	gapSamples := chimeSampleRate * chimeGapMillis / 1000
	fade := chimeSampleRate / 200 // 5ms

	var buf bytes.Buffer
	for b := 0; b < chimeBeepCount; b++ {
		for i := 0; i < beepSamples; i++ {
			v := math.Sin(2 * math.Pi * chimeFreq * float64(i) / chimeSampleRate)
			gain := 0.6
			if i < fade {
				gain *= float64(i) / float64(fade)
			} else if beepSamples-i < fade {
				gain *= float64(beepSamples-i) / float64(fade)
			}
			sample := int16(v * gain * math.MaxInt16)
			_ = binary.Write(&buf, binary.LittleEndian, sample)
		}
		if b < chimeBeepCount-1 {
			buf.Write(make([]byte, gapSamples*2))
		}
	}
	return buf.Bytes()
}

// NoopAlerter is used when audio is disabled or unavailable.
type NoopAlerter struct{}

// Alert does nothing.
func (NoopAlerter) Alert(ctx context.Context) error { return nil }
