//go:build headless

package audioio

// Device is unavailable in headless builds.
type Device struct{}

// OpenDevice always fails with ErrNoDevice.
func OpenDevice(int, int, Callback) (*Device, error) { return nil, ErrNoDevice }

func (d *Device) Start()        {}
func (d *Device) Stop()         {}
func (d *Device) Playing() bool { return false }
func (d *Device) Close() error  { return nil }
