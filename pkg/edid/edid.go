// Package edid parses the 128-byte base EDID block a display exposes
// at I2C address 0x50. Only the fields the CLI shows are decoded:
// identity, product and the descriptor strings.
package edid

import (
	"bytes"
	"fmt"
	"strings"
)

// BlockSize is the length of the base EDID block.
const BlockSize = 128

var headerMagic = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// EDID holds the decoded fields of a base block.
type EDID struct {
	// Manufacturer is the three-letter PNP id, e.g. "DEL".
	Manufacturer string
	ProductCode  uint16
	SerialNumber uint32

	WeekOfManufacture int
	YearOfManufacture int

	Version  int
	Revision int

	// ModelName and SerialString come from the display descriptors,
	// empty when the display does not provide them.
	ModelName    string
	SerialString string

	// Raw is the block the fields were decoded from.
	Raw [BlockSize]byte
}

// Parse decodes a base EDID block. The block must be exactly 128 bytes,
// start with the EDID header magic and have a valid checksum.
func Parse(raw []byte) (*EDID, error) {
	if len(raw) != BlockSize {
		return nil, fmt.Errorf("edid: block is %d bytes, expected %d", len(raw), BlockSize)
	}
	if !bytes.Equal(raw[:8], headerMagic) {
		return nil, fmt.Errorf("edid: bad header % 02X", raw[:8])
	}
	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0 {
		return nil, fmt.Errorf("edid: checksum residue 0x%02x", sum)
	}

	e := &EDID{
		Manufacturer: decodeManufacturer(raw[8], raw[9]),
		ProductCode:  uint16(raw[10]) | uint16(raw[11])<<8,
		SerialNumber: uint32(raw[12]) | uint32(raw[13])<<8 | uint32(raw[14])<<16 | uint32(raw[15])<<24,
		Version:      int(raw[18]),
		Revision:     int(raw[19]),
	}
	copy(e.Raw[:], raw)

	// week 0 means unspecified; year is offset from 1990
	if raw[16] >= 1 && raw[16] <= 54 {
		e.WeekOfManufacture = int(raw[16])
	}
	if raw[17] > 0 {
		e.YearOfManufacture = 1990 + int(raw[17])
	}

	for i := 54; i+18 <= 126; i += 18 {
		d := raw[i : i+18]
		// display descriptors are flagged by a zero pixel clock
		if d[0] != 0 || d[1] != 0 {
			continue
		}
		switch d[3] {
		case 0xFC:
			e.ModelName = decodeDescriptorText(d[5:])
		case 0xFF:
			e.SerialString = decodeDescriptorText(d[5:])
		}
	}
	return e, nil
}

// decodeManufacturer unpacks the three 5-bit letters of the PNP id.
func decodeManufacturer(hi, lo byte) string {
	v := uint16(hi)<<8 | uint16(lo)
	return string([]byte{
		'A' + byte(v>>10&0x1F) - 1,
		'A' + byte(v>>5&0x1F) - 1,
		'A' + byte(v&0x1F) - 1,
	})
}

// decodeDescriptorText trims the 0x0A terminator and padding from a
// 13-byte descriptor text field.
func decodeDescriptorText(d []byte) string {
	if i := bytes.IndexByte(d, 0x0A); i >= 0 {
		d = d[:i]
	}
	return strings.TrimRight(string(d), " ")
}

// String renders the identity line shown by display detection.
func (e *EDID) String() string {
	name := e.ModelName
	if name == "" {
		name = fmt.Sprintf("product %d", e.ProductCode)
	}
	return fmt.Sprintf("%s %s", e.Manufacturer, name)
}
