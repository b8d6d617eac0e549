package rom

import (
	"fmt"
	"strings"
)

// Cartridge header layout.
const (
	// TitleOffset is the start of the upper-case ASCII title
	TitleOffset = 0x134

	// TitleLength covers the title including the CGB flag byte
	TitleLength = 16

	// CGBFlagOffset holds 0x80 or 0xC0 on Game Boy Color titles
	CGBFlagOffset = 0x143

	// CartridgeTypeOffset identifies the memory bank controller
	CartridgeTypeOffset = 0x147

	// ROMSizeOffset encodes the ROM size as 32 KiB << n
	ROMSizeOffset = 0x148

	// RAMSizeOffset encodes the external RAM size
	RAMSizeOffset = 0x149

	// HeaderChecksumOffset holds the checksum over 0x134..0x14C
	HeaderChecksumOffset = 0x14D

	// HeaderEnd is the first byte past the cartridge header
	HeaderEnd = 0x150
)

// Header is the decoded cartridge header.
type Header struct {
	Title         string
	CGB           bool
	CartridgeType byte
	ROMSize       byte
	RAMSize       byte
	Checksum      byte
	ChecksumValid bool
}

// ParseHeader decodes the cartridge header of a ROM image.
func ParseHeader(img []byte) (*Header, error) {
	if len(img) < HeaderEnd {
		return nil, fmt.Errorf("image too short for header: %d bytes", len(img))
	}

	cgb := img[CGBFlagOffset]&0x80 != 0
	titleEnd := TitleOffset + TitleLength
	if cgb {
		titleEnd = CGBFlagOffset
	}

	h := &Header{
		Title:         parseTitle(img[TitleOffset:titleEnd]),
		CGB:           cgb,
		CartridgeType: img[CartridgeTypeOffset],
		ROMSize:       img[ROMSizeOffset],
		RAMSize:       img[RAMSizeOffset],
		Checksum:      img[HeaderChecksumOffset],
	}
	h.ChecksumValid = HeaderChecksum(img) == h.Checksum

	return h, nil
}

// HeaderChecksum computes the boot ROM's header checksum. img must hold at
// least HeaderChecksumOffset bytes.
func HeaderChecksum(img []byte) byte {
	var x byte
	for _, b := range img[TitleOffset:HeaderChecksumOffset] {
		x = x - b - 1
	}
	return x
}

// parseTitle stops at the first NUL and drops non-printable bytes.
func parseTitle(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c == 0 {
			break
		}
		if c >= 0x20 && c < 0x7F {
			sb.WriteByte(c)
		}
	}
	return strings.TrimSpace(sb.String())
}

var cartridgeTypes = map[byte]string{
	0x00: "ROM ONLY",
	0x01: "MBC1",
	0x02: "MBC1+RAM",
	0x03: "MBC1+RAM+BATTERY",
	0x05: "MBC2",
	0x06: "MBC2+BATTERY",
	0x08: "ROM+RAM",
	0x09: "ROM+RAM+BATTERY",
	0x0F: "MBC3+TIMER+BATTERY",
	0x10: "MBC3+TIMER+RAM+BATTERY",
	0x11: "MBC3",
	0x12: "MBC3+RAM",
	0x13: "MBC3+RAM+BATTERY",
	0x19: "MBC5",
	0x1A: "MBC5+RAM",
	0x1B: "MBC5+RAM+BATTERY",
}

// CartridgeTypeName returns the name of the cartridge type byte.
func (h *Header) CartridgeTypeName() string {
	if name, ok := cartridgeTypes[h.CartridgeType]; ok {
		return name
	}
	return fmt.Sprintf("type 0x%02X", h.CartridgeType)
}

// ROMOnly reports whether the header declares a cartridge without a bank
// controller, the only kind the GB-LIVE32 runs unmodified.
func (h *Header) ROMOnly() bool {
	return h.CartridgeType == 0x00 || h.CartridgeType == 0x08 || h.CartridgeType == 0x09
}

func (h *Header) String() string {
	valid := "ok"
	if !h.ChecksumValid {
		valid = "bad"
	}
	return fmt.Sprintf("%q %s, header checksum 0x%02X (%s)", h.Title, h.CartridgeTypeName(), h.Checksum, valid)
}
