package ddc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mkarlstad/goddc/pkg/types"
)

// buildReply frames payload the way a display would.
func buildReply(payload []byte) []byte {
	pkt := make([]byte, 0, len(payload)+3)
	pkt = append(pkt, displayAddr, lengthFlag|byte(len(payload)))
	pkt = append(pkt, payload...)
	pkt = append(pkt, xorChecksum(replyChkSeed, pkt[1:]))
	return pkt
}

func TestBuildRequest_Framing(t *testing.T) {
	got := GetVCPRequest(0x10)

	// source, flagged length, opcode, feature, checksum over 0x6E + body
	want := []byte{0x51, 0x82, 0x01, 0x10, 0xAC}
	if !bytes.Equal(got, want) {
		t.Errorf("GetVCPRequest(0x10) = % 02X, want % 02X", got, want)
	}
}

func TestBuildRequest_SetVCP(t *testing.T) {
	got := SetVCPRequest(0x10, 0x1234)
	if got[2] != 0x03 || got[3] != 0x10 || got[4] != 0x12 || got[5] != 0x34 {
		t.Errorf("Unexpected set request % 02X", got)
	}
}

func TestParseReply_Roundtrip(t *testing.T) {
	payload := []byte{0x02, 0x00, 0x10, 0x00, 0x00, 0x64, 0x00, 0x32}

	got, err := ParseReply(buildReply(payload))
	if err != nil {
		t.Fatalf("ParseReply failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Payload = % 02X, want % 02X", got, payload)
	}
}

func TestParseReply_NullResponse(t *testing.T) {
	raw := []byte{displayAddr, lengthFlag, 0xD0}

	_, err := ParseReply(raw)
	if !errors.Is(err, types.ErrNullResponse) {
		t.Errorf("Expected ErrNullResponse, got %v", err)
	}
}

func TestParseReply_AllZero(t *testing.T) {
	_, err := ParseReply(make([]byte, 11))
	if !errors.Is(err, types.ErrAllZeroResponse) {
		t.Errorf("Expected ErrAllZeroResponse, got %v", err)
	}
}

func TestParseReply_RejectsCorruption(t *testing.T) {
	good := buildReply([]byte{0x02, 0x00, 0x10, 0x00, 0x00, 0x64, 0x00, 0x32})

	tests := []struct {
		name   string
		mangle func([]byte) []byte
	}{
		{"truncated", func(p []byte) []byte { return p[:2] }},
		{"bad source address", func(p []byte) []byte { p[0] = 0x42; return p }},
		{"bad checksum", func(p []byte) []byte { p[len(p)-1] ^= 0xFF; return p }},
		{"missing length flag", func(p []byte) []byte { p[1] &^= 0x80; return p }},
		{"length exceeds buffer", func(p []byte) []byte { p[1] = 0x80 | 0x1C; return p }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.mangle(append([]byte(nil), good...))
			_, err := ParseReply(raw)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if types.IsDefinitive(err) {
				t.Errorf("Corruption must stay retryable, got definitive %v", err)
			}
		})
	}
}

func TestParseVCPReply(t *testing.T) {
	payload := []byte{0x02, 0x00, 0x10, 0x00, 0x00, 0x64, 0x00, 0x32}

	val, err := ParseVCPReply(0x10, payload)
	if err != nil {
		t.Fatalf("ParseVCPReply failed: %v", err)
	}
	if val.Code != 0x10 || val.Max != 100 || val.Current != 50 {
		t.Errorf("Unexpected value %+v", val)
	}
	if val.Unsupported {
		t.Error("Expected supported feature")
	}
}

func TestParseVCPReply_UnsupportedFlag(t *testing.T) {
	payload := []byte{0x02, 0x01, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00}

	val, err := ParseVCPReply(0x10, payload)
	if err != nil {
		t.Fatalf("ParseVCPReply failed: %v", err)
	}
	if !val.Unsupported {
		t.Error("Expected unsupported flag set")
	}
}

func TestParseVCPReply_WrongFeature(t *testing.T) {
	payload := []byte{0x02, 0x00, 0x12, 0x00, 0x00, 0x64, 0x00, 0x32}

	if _, err := ParseVCPReply(0x10, payload); err == nil {
		t.Error("Expected error for mismatched feature code")
	}
}

func TestParseFragmentReply(t *testing.T) {
	payload := append([]byte{opCapReply, 0x01, 0x2C}, []byte("vcp(10)")...)

	offset, data, err := ParseFragmentReply(opCapReply, payload)
	if err != nil {
		t.Fatalf("ParseFragmentReply failed: %v", err)
	}
	if offset != 0x012C {
		t.Errorf("Expected offset 300, got %d", offset)
	}
	if string(data) != "vcp(10)" {
		t.Errorf("Expected fragment data, got %q", data)
	}
}

func TestParseFragmentReply_WrongOpcode(t *testing.T) {
	payload := []byte{opTableReadReply, 0x00, 0x00, 0x01}

	if _, _, err := ParseFragmentReply(opCapReply, payload); err == nil {
		t.Error("Expected error for wrong opcode")
	}
}
