//go:build !headless

package audioio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Device plays a Callback on the default audio output. A process can open
// one device.
type Device struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	started bool
}

// OpenDevice opens the audio output for interleaved float32 at sampleRate.
func OpenDevice(sampleRate, channels int, fill Callback) (*Device, error) {
	if sampleRate <= 0 || channels < 1 || fill == nil {
		return nil, fmt.Errorf("audioio: open device: rate %d, %d channels", sampleRate, channels)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	<-ready

	return &Device{
		ctx:    ctx,
		player: ctx.NewPlayer(&stream{channels: channels, fill: fill}),
	}, nil
}

// Start begins or resumes playback.
func (d *Device) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started && d.player != nil {
		d.player.Play()
		d.started = true
	}
}

// Stop pauses playback.
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started && d.player != nil {
		d.player.Pause()
		d.started = false
	}
}

// Playing reports whether the device is started.
func (d *Device) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.started
}

// Close stops playback and releases the player.
func (d *Device) Close() error {
	d.Stop()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player == nil {
		return nil
	}

	err := d.player.Close()
	d.player = nil

	return err
}
