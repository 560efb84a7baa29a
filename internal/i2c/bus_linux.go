//go:build linux

// Package i2c provides the /dev/i2c-N transport used by DDC exchanges
// and EDID reads on Linux.
package i2c

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/mkarlstad/goddc/pkg/types"
)

// I2C_SLAVE ioctl from linux/i2c-dev.h.
const ioctlSlave = 0x0703

// Device is one slave address on one i2c bus. It implements
// ddc.Transport when opened at the DDC slave address.
type Device struct {
	f    *os.File
	bus  int
	addr int
}

// Open opens /dev/i2c-<bus> and binds it to the given 7-bit slave
// address.
func Open(bus, addr int) (*Device, error) {
	path := fmt.Sprintf("/dev/i2c-%d", bus)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2c: open %s: %w", path, err)
	}
	if err := unix.IoctlSetInt(int(f.Fd()), ioctlSlave, addr); err != nil {
		f.Close()
		return nil, fmt.Errorf("i2c: bind %s to 0x%02x: %w", path, addr, err)
	}
	return &Device{f: f, bus: bus, addr: addr}, nil
}

// Bus returns the bus number the device was opened on.
func (d *Device) Bus() int {
	return d.bus
}

// Write sends p to the slave in one i2c transaction.
func (d *Device) Write(p []byte) error {
	if _, err := d.f.Write(p); err != nil {
		return classify(fmt.Errorf("i2c: write /dev/i2c-%d: %w", d.bus, err))
	}
	return nil
}

// Read reads up to n bytes from the slave.
func (d *Device) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := d.f.Read(buf)
	if err != nil {
		return nil, classify(fmt.Errorf("i2c: read /dev/i2c-%d: %w", d.bus, err))
	}
	return buf[:got], nil
}

// Close releases the device node.
func (d *Device) Close() error {
	return d.f.Close()
}

// classify marks errnos that no retry can cure as fatal. Anything else
// (EIO line noise, arbitration loss) stays retryable.
func classify(err error) error {
	for _, errno := range []unix.Errno{unix.EBADF, unix.ENXIO, unix.ENODEV} {
		if errors.Is(err, errno) {
			return types.Fatal(err)
		}
	}
	return err
}

// ReadEDID reads the 128-byte base EDID block from a bus.
func ReadEDID(bus int) ([]byte, error) {
	dev, err := Open(bus, 0x50)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	// set the EEPROM read pointer to the block start
	if err := dev.Write([]byte{0x00}); err != nil {
		return nil, err
	}
	return dev.Read(128)
}

// Enumerate lists the i2c bus numbers present under /dev.
func Enumerate() ([]int, error) {
	paths, err := filepath.Glob("/dev/i2c-*")
	if err != nil {
		return nil, err
	}
	var buses []int
	for _, p := range paths {
		n, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(p), "i2c-"))
		if err != nil {
			continue
		}
		buses = append(buses, n)
	}
	sort.Ints(buses)
	return buses, nil
}
