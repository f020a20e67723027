package rtc

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog/log"
)

const sampleInterval = 20 * time.Millisecond

// opusSilence is the canonical 20ms opus DTX frame.
// TODO: replace the silence source with an OS capture backend.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

// Capture is the shared local media source. Every engine attaches the same
// track set, so muting affects all peer links at once.
type Capture struct {
	tracks []webrtc.TrackLocal
	audio  *webrtc.TrackLocalStaticSample
	muted  atomic.Bool
}

// NewCapture acquires the local source. Failure here is fatal to joining:
// the caller must not proceed to create or join a room without it.
func NewCapture() (*Capture, error) {
	audio, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio", "parley",
	)
	if err != nil {
		return nil, err
	}
	return &Capture{
		tracks: []webrtc.TrackLocal{audio},
		audio:  audio,
	}, nil
}

func (c *Capture) Tracks() []webrtc.TrackLocal { return c.tracks }

// Run feeds the shared audio track one sample per interval until ctx ends.
// Muted intervals write nothing, so every link goes quiet together.
func (c *Capture) Run(ctx context.Context) {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.muted.Load() {
				continue
			}
			if err := c.audio.WriteSample(media.Sample{Data: opusSilence, Duration: sampleInterval}); err != nil {
				log.Error().Err(err).Str("module", "client.rtc").Msg("write sample")
				return
			}
		}
	}
}

// SetMuted flips the shared mute flag. The producer loop checks it before
// every write.
func (c *Capture) SetMuted(m bool) { c.muted.Store(m) }

func (c *Capture) Muted() bool { return c.muted.Load() }
