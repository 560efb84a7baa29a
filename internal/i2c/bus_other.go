//go:build !linux

// Package i2c provides the /dev/i2c-N transport used by DDC exchanges
// and EDID reads on Linux. On other platforms every operation reports
// types.ErrUnsupportedPlatform.
package i2c

import "github.com/mkarlstad/goddc/pkg/types"

// Device is one slave address on one i2c bus.
type Device struct{}

// Open reports that no i2c transport exists on this platform.
func Open(bus, addr int) (*Device, error) {
	return nil, types.ErrUnsupportedPlatform
}

// Bus returns the bus number the device was opened on.
func (d *Device) Bus() int {
	return 0
}

// Write implements ddc.Transport.
func (d *Device) Write(p []byte) error {
	return types.ErrUnsupportedPlatform
}

// Read implements ddc.Transport.
func (d *Device) Read(n int) ([]byte, error) {
	return nil, types.ErrUnsupportedPlatform
}

// Close implements ddc.Transport.
func (d *Device) Close() error {
	return nil
}

// ReadEDID reads the 128-byte base EDID block from a bus.
func ReadEDID(bus int) ([]byte, error) {
	return nil, types.ErrUnsupportedPlatform
}

// Enumerate lists the i2c bus numbers present under /dev.
func Enumerate() ([]int, error) {
	return nil, types.ErrUnsupportedPlatform
}
