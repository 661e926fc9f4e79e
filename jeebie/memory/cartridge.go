package memory

import (
	"fmt"
)

const (
	entryPointAddress    = 0x100
	logoAddress          = 0x104
	logoLength           = 48
	titleAddress         = 0x134
	titleLength          = 16
	cartridgeTypeAddress = 0x147
	romSizeAddress       = 0x148
	ramSizeAddress       = 0x149
	headerChecksumAddr   = 0x14D
)

// nintendoLogo is the fixed 48-byte bitmap every official DMG ROM carries at
// 0x104-0x133. Real hardware refuses to boot without a byte-exact match; we
// use it only to sanity-check that a file is a plausible Game Boy ROM.
var nintendoLogo = [logoLength]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// MBCType identifies which memory bank controller a cartridge uses.
type MBCType int

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC1MultiType
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknownType
)

func (t MBCType) String() string {
	switch t {
	case NoMBCType:
		return "ROM ONLY"
	case MBC1Type:
		return "MBC1"
	case MBC1MultiType:
		return "MBC1 (multicart)"
	case MBC2Type:
		return "MBC2"
	case MBC3Type:
		return "MBC3"
	case MBC5Type:
		return "MBC5"
	default:
		return "unknown"
	}
}

// cartridgeTypeInfo describes the hardware features implied by the cartridge
// type byte at 0x147, per https://gbdev.io/pandocs/The_Cartridge_Header.html.
type cartridgeTypeInfo struct {
	mbc        MBCType
	hasRAM     bool
	hasBattery bool
	hasRTC     bool
	hasRumble  bool
}

var cartridgeTypeTable = map[byte]cartridgeTypeInfo{
	0x00: {mbc: NoMBCType},
	0x01: {mbc: MBC1Type},
	0x02: {mbc: MBC1Type, hasRAM: true},
	0x03: {mbc: MBC1Type, hasRAM: true, hasBattery: true},
	0x05: {mbc: MBC2Type, hasRAM: true},
	0x06: {mbc: MBC2Type, hasRAM: true, hasBattery: true},
	0x08: {mbc: NoMBCType, hasRAM: true},
	0x09: {mbc: NoMBCType, hasRAM: true, hasBattery: true},
	0x0F: {mbc: MBC3Type, hasBattery: true, hasRTC: true},
	0x10: {mbc: MBC3Type, hasRAM: true, hasBattery: true, hasRTC: true},
	0x11: {mbc: MBC3Type},
	0x12: {mbc: MBC3Type, hasRAM: true},
	0x13: {mbc: MBC3Type, hasRAM: true, hasBattery: true},
	0x19: {mbc: MBC5Type},
	0x1A: {mbc: MBC5Type, hasRAM: true},
	0x1B: {mbc: MBC5Type, hasRAM: true, hasBattery: true},
	0x1C: {mbc: MBC5Type, hasRumble: true},
	0x1D: {mbc: MBC5Type, hasRAM: true, hasRumble: true},
	0x1E: {mbc: MBC5Type, hasRAM: true, hasBattery: true, hasRumble: true},
}

// ramBankCountForCode maps the 0x149 RAM-size header byte to a bank count
// (each bank is 8 KiB).
var ramBankCountForCode = map[byte]uint8{
	0x00: 0,
	0x01: 1, // unofficial, 2KiB; we round up to one 8KiB bank
	0x02: 1,
	0x03: 4,
	0x04: 16,
	0x05: 8,
}

// RomFormatError reports a cartridge that cannot be loaded as-is.
type RomFormatError struct {
	Reason string
}

func (e *RomFormatError) Error() string {
	return fmt.Sprintf("rom format error: %s", e.Reason)
}

// Cartridge holds the parsed header and raw ROM bytes of a loaded Game Boy
// cartridge. The MBC built from it owns bank-switching; Cartridge itself is
// just the immutable data plus metadata.
type Cartridge struct {
	data []byte

	title          string
	mbcType        MBCType
	hasBattery     bool
	hasRTC         bool
	hasRumble      bool
	ramBankCount   uint8
	romBankCount   uint16
	headerChecksum uint8
}

// NewCartridge returns an empty cartridge with no ROM data loaded, useful as
// a placeholder when no game is inserted.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data:    make([]byte, 0x8000),
		mbcType: NoMBCType,
	}
}

// NewCartridgeWithData parses a ROM image into a Cartridge. It validates the
// Nintendo logo and the declared ROM size against the actual file size, as
// real hardware (and most emulators) do before accepting a cartridge.
func NewCartridgeWithData(data []byte) (*Cartridge, error) {
	if len(data) < 0x150 {
		return nil, &RomFormatError{Reason: "file too small to contain a header"}
	}

	logo := data[logoAddress : logoAddress+logoLength]
	for i, want := range nintendoLogo {
		if logo[i] != want {
			return nil, &RomFormatError{Reason: "missing or corrupt Nintendo logo"}
		}
	}

	info, ok := cartridgeTypeTable[data[cartridgeTypeAddress]]
	if !ok {
		return nil, &RomFormatError{Reason: fmt.Sprintf("unsupported cartridge type 0x%02X", data[cartridgeTypeAddress])}
	}

	romSizeCode := data[romSizeAddress]
	if romSizeCode > 0x08 {
		return nil, &RomFormatError{Reason: fmt.Sprintf("unsupported ROM size code 0x%02X", romSizeCode)}
	}
	romBankCount := uint16(2) << romSizeCode
	wantSize := int(romBankCount) * 0x4000
	if len(data) != wantSize {
		return nil, &RomFormatError{Reason: fmt.Sprintf("ROM size mismatch: header wants %d bytes, file has %d", wantSize, len(data))}
	}

	ramBankCount, ok := ramBankCountForCode[data[ramSizeAddress]]
	if !ok {
		return nil, &RomFormatError{Reason: fmt.Sprintf("unsupported RAM size code 0x%02X", data[ramSizeAddress])}
	}
	if !info.hasRAM {
		ramBankCount = 0
	}

	title := cleanGameboyTitle(data[titleAddress : titleAddress+titleLength])

	cart := &Cartridge{
		data:           make([]byte, len(data)),
		title:          title,
		mbcType:        info.mbc,
		hasBattery:     info.hasBattery,
		hasRTC:         info.hasRTC,
		hasRumble:      info.hasRumble,
		ramBankCount:   ramBankCount,
		romBankCount:   romBankCount,
		headerChecksum: data[headerChecksumAddr],
	}
	copy(cart.data, data)

	return cart, nil
}

// Title returns the cleaned-up cartridge title from the header.
func (c *Cartridge) Title() string { return c.title }

// MBCType returns the memory bank controller variant this cartridge uses.
func (c *Cartridge) MBCType() MBCType { return c.mbcType }

// HasBattery reports whether external RAM should be persisted across runs.
func (c *Cartridge) HasBattery() bool { return c.hasBattery }

// RAMSize returns the size, in bytes, of the cartridge's external RAM.
func (c *Cartridge) RAMSize() int { return int(c.ramBankCount) * 0x2000 }

// verifyHeaderChecksum recomputes the header checksum the same way the boot
// ROM does, purely informational (we don't refuse to load on mismatch).
func (c *Cartridge) verifyHeaderChecksum() bool {
	var sum byte
	for addr := 0x134; addr <= 0x14C; addr++ {
		sum = sum - c.data[addr] - 1
	}
	return sum == c.headerChecksum
}
