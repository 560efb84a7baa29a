package ddc

// Transport moves raw DDC packet bytes to and from one display. The
// I2C implementation lives in internal/i2c; tests substitute mocks.
//
// Implementations wrap unrecoverable device failures (the node
// vanished, permissions revoked) with types.Fatal so the retry layer
// stops immediately instead of burning its budget.
type Transport interface {
	// Write sends one request packet to the display's DDC slave.
	Write(pkt []byte) error
	// Read reads up to n reply bytes from the display's DDC slave.
	Read(n int) ([]byte, error)
	// Close releases the underlying device.
	Close() error
}
