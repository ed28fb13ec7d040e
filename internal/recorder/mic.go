package recorder

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

const (
	sampleRate = 16000
	channels   = 1
)

// Capture owns one microphone acquisition. Start begins accumulating audio
// chunks; Stop releases the device and returns the finalized payload.
type Capture interface {
	Start(ctx context.Context) error
	Stop() ([]byte, error)
}

// MicCapture records 16 kHz mono s16le PCM from the default input device and
// finalizes it into a WAV payload.
type MicCapture struct {
	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	samples []byte
}

// NewMicCapture returns an idle microphone capture.
func NewMicCapture() *MicCapture {
	return &MicCapture{}
}

// Start acquires the default input device and begins accumulating chunks.
func (c *MicCapture) Start(_ context.Context) error {
	allocated, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMicrophone, err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = channels
	deviceConfig.SampleRate = sampleRate
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			c.mu.Lock()
			c.samples = append(c.samples, input...)
			c.mu.Unlock()
		},
	}

	device, err := malgo.InitDevice(allocated.Context, deviceConfig, callbacks)
	if err != nil {
		c.freeContext(allocated)
		return fmt.Errorf("%w: %v", ErrMicrophone, err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		c.freeContext(allocated)
		return fmt.Errorf("%w: %v", ErrMicrophone, err)
	}

	c.mu.Lock()
	c.samples = nil
	c.mu.Unlock()
	c.ctx = allocated
	c.device = device
	return nil
}

// Stop releases the device and returns the accumulated audio as a WAV
// payload. A recording stopped immediately yields a header-only payload;
// sending it is the backend's concern.
func (c *MicCapture) Stop() ([]byte, error) {
	if c.device != nil {
		// Stop before Uninit so buffered frames are flushed.
		if err := c.device.Stop(); err != nil {
			// Best-effort stop; proceed with whatever was captured.
			_ = err
		}
		c.device.Uninit()
		c.device = nil
	}
	if c.ctx != nil {
		c.freeContext(c.ctx)
		c.ctx = nil
	}

	c.mu.Lock()
	pcm := c.samples
	c.samples = nil
	c.mu.Unlock()
	return EncodeWAV(pcm, sampleRate, channels), nil
}

func (c *MicCapture) freeContext(allocated *malgo.AllocatedContext) {
	if err := allocated.Uninit(); err != nil {
		// Best-effort context teardown.
		_ = err
	}
	allocated.Free()
}
