// Package ddc implements the DDC/CI packet codec and the exchange
// channel that ties the codec to a transport, the retry executor, the
// pacing tuner and the multi-part assembler.
package ddc

import (
	"fmt"

	"github.com/mkarlstad/goddc/pkg/types"
)

// Wire constants. The display's DDC slave lives at 7-bit address 0x37;
// on the wire the host identifies itself as 0x51 and packets address
// the display as 0x6E (0x37 shifted with the R/W bit).
const (
	// SlaveAddr is the 7-bit I2C address of the DDC interface.
	SlaveAddr = 0x37
	// EDIDAddr is the 7-bit I2C address of the EDID EEPROM.
	EDIDAddr = 0x50

	hostAddr     = 0x51
	displayAddr  = 0x6E
	lengthFlag   = 0x80
	replyChkSeed = 0x50

	// MaxPacketSize bounds any single DDC reply packet.
	MaxPacketSize = 32
	// MaxReplyPayload is the largest payload a reply packet can carry.
	MaxReplyPayload = MaxPacketSize - 3
	// maxRequestPayload allows a full table write chunk plus its four
	// header bytes.
	maxRequestPayload = 32
)

// VCP opcodes.
const (
	opGetVCPRequest  = 0x01
	opGetVCPReply    = 0x02
	opSetVCP         = 0x03
	opSaveSettings   = 0x0C
	opCapRequest     = 0xF3
	opCapReply       = 0xE3
	opTableReadReq   = 0xE2
	opTableReadReply = 0xE4
	opTableWriteReq  = 0xE7
)

func xorChecksum(seed byte, body []byte) byte {
	c := seed
	for _, b := range body {
		c ^= b
	}
	return c
}

// BuildRequest frames payload as a request packet: source address,
// flagged length, payload, and a checksum that covers the display
// address the packet is written to.
func BuildRequest(payload []byte) []byte {
	if len(payload) > maxRequestPayload {
		panic(fmt.Sprintf("ddc: request payload %d bytes exceeds packet size", len(payload)))
	}
	pkt := make([]byte, 0, len(payload)+3)
	pkt = append(pkt, hostAddr, lengthFlag|byte(len(payload)))
	pkt = append(pkt, payload...)
	pkt = append(pkt, xorChecksum(displayAddr, pkt))
	return pkt
}

// GetVCPRequest builds a Get VCP Feature request for one feature code.
func GetVCPRequest(code byte) []byte {
	return BuildRequest([]byte{opGetVCPRequest, code})
}

// SetVCPRequest builds a Set VCP Feature request.
func SetVCPRequest(code byte, value uint16) []byte {
	return BuildRequest([]byte{opSetVCP, code, byte(value >> 8), byte(value)})
}

// SaveSettingsRequest builds a Save Current Settings request.
func SaveSettingsRequest() []byte {
	return BuildRequest([]byte{opSaveSettings})
}

// CapabilitiesRequest builds a Capabilities Request for one fragment
// starting at offset.
func CapabilitiesRequest(offset int) []byte {
	return BuildRequest([]byte{opCapRequest, byte(offset >> 8), byte(offset)})
}

// TableReadRequest builds a Table Read request for one fragment of a
// table feature starting at offset.
func TableReadRequest(code byte, offset int) []byte {
	return BuildRequest([]byte{opTableReadReq, code, byte(offset >> 8), byte(offset)})
}

// TableWriteRequest builds a Table Write request carrying one chunk
// starting at offset.
func TableWriteRequest(code byte, offset int, chunk []byte) []byte {
	payload := make([]byte, 0, len(chunk)+4)
	payload = append(payload, opTableWriteReq, code, byte(offset>>8), byte(offset))
	return BuildRequest(append(payload, chunk...))
}

// ParseReply validates the framing of a raw reply buffer and returns
// its payload. It detects the two definitive negatives: the DDC Null
// Message (types.ErrNullResponse) and an all-zero buffer
// (types.ErrAllZeroResponse). Framing and checksum violations return
// ordinary errors, which retry as transient.
func ParseReply(raw []byte) ([]byte, error) {
	if len(raw) < 3 {
		return nil, fmt.Errorf("ddc: reply truncated at %d bytes", len(raw))
	}
	if allZero(raw) {
		return nil, types.ErrAllZeroResponse
	}
	if raw[0] != displayAddr {
		return nil, fmt.Errorf("ddc: reply source address 0x%02x, expected 0x%02x", raw[0], displayAddr)
	}
	if raw[1] == lengthFlag {
		return nil, types.ErrNullResponse
	}
	if raw[1]&lengthFlag == 0 {
		return nil, fmt.Errorf("ddc: reply length byte 0x%02x missing protocol flag", raw[1])
	}
	n := int(raw[1] &^ lengthFlag)
	if n > MaxReplyPayload || len(raw) < n+3 {
		return nil, fmt.Errorf("ddc: reply declares %d payload bytes, buffer holds %d", n, len(raw))
	}
	body := raw[1 : n+2]
	if got, want := raw[n+2], xorChecksum(replyChkSeed, body); got != want {
		return nil, fmt.Errorf("ddc: reply checksum 0x%02x, computed 0x%02x", got, want)
	}
	return raw[2 : n+2], nil
}

func allZero(p []byte) bool {
	for _, b := range p {
		if b != 0 {
			return false
		}
	}
	return true
}

// VCPValue is a decoded Get VCP Feature reply.
type VCPValue struct {
	Code    byte
	Type    byte
	Max     uint16
	Current uint16

	// Unsupported is set when the display answered the exchange but
	// reported the feature as unsupported.
	Unsupported bool
}

// ParseVCPReply decodes a Get VCP Feature reply payload.
func ParseVCPReply(code byte, payload []byte) (VCPValue, error) {
	if len(payload) != 8 {
		return VCPValue{}, fmt.Errorf("ddc: vcp reply payload %d bytes, expected 8", len(payload))
	}
	if payload[0] != opGetVCPReply {
		return VCPValue{}, fmt.Errorf("ddc: vcp reply opcode 0x%02x, expected 0x%02x", payload[0], opGetVCPReply)
	}
	if payload[2] != code {
		return VCPValue{}, fmt.Errorf("ddc: vcp reply for feature 0x%02x, requested 0x%02x", payload[2], code)
	}
	return VCPValue{
		Code:        payload[2],
		Type:        payload[3],
		Max:         uint16(payload[4])<<8 | uint16(payload[5]),
		Current:     uint16(payload[6])<<8 | uint16(payload[7]),
		Unsupported: payload[1] == 0x01,
	}, nil
}

// ParseFragmentReply decodes a capabilities or table read reply payload
// into its declared offset and data bytes.
func ParseFragmentReply(opcode byte, payload []byte) (offset int, data []byte, err error) {
	if len(payload) < 3 {
		return 0, nil, fmt.Errorf("ddc: fragment reply payload %d bytes, expected at least 3", len(payload))
	}
	if payload[0] != opcode {
		return 0, nil, fmt.Errorf("ddc: fragment reply opcode 0x%02x, expected 0x%02x", payload[0], opcode)
	}
	offset = int(payload[1])<<8 | int(payload[2])
	return offset, payload[3:], nil
}
