package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildHeaderedROM returns a minimal valid ROM image of the given bank count
// (16KiB each) with a correct Nintendo logo and the given cart/ram type bytes.
func buildHeaderedROM(t *testing.T, romSizeCode, ramSizeCode, cartType byte, title string) []byte {
	t.Helper()
	bankCount := 2 << romSizeCode
	data := make([]byte, bankCount*0x4000)
	copy(data[logoAddress:], nintendoLogo[:])
	copy(data[titleAddress:], title)
	data[cartridgeTypeAddress] = cartType
	data[romSizeAddress] = romSizeCode
	data[ramSizeAddress] = ramSizeCode
	return data
}

func TestNewCartridgeWithData(t *testing.T) {
	data := buildHeaderedROM(t, 0x00, 0x02, 0x03, "POKEMON RED")

	cart, err := NewCartridgeWithData(data)
	require.NoError(t, err)
	assert.Equal(t, "POKEMON RED", cart.Title())
	assert.Equal(t, MBC1Type, cart.MBCType())
	assert.True(t, cart.HasBattery())
	assert.Equal(t, 0x2000, cart.RAMSize())
}

func TestNewCartridgeWithDataRejectsBadLogo(t *testing.T) {
	data := buildHeaderedROM(t, 0x00, 0x00, 0x00, "BAD")
	data[logoAddress] ^= 0xFF

	_, err := NewCartridgeWithData(data)
	require.Error(t, err)
	var romErr *RomFormatError
	assert.ErrorAs(t, err, &romErr)
}

func TestNewCartridgeWithDataRejectsSizeMismatch(t *testing.T) {
	data := buildHeaderedROM(t, 0x01, 0x00, 0x00, "TOO SHORT")
	data = data[:len(data)-0x4000] // truncate below the declared size

	_, err := NewCartridgeWithData(data)
	require.Error(t, err)
}

func TestNewCartridgeWithDataMBC2HasNoExternalRAM(t *testing.T) {
	data := buildHeaderedROM(t, 0x00, 0x00, 0x06, "MBC2 GAME")

	cart, err := NewCartridgeWithData(data)
	require.NoError(t, err)
	assert.Equal(t, MBC2Type, cart.MBCType())
	assert.True(t, cart.HasBattery())
	assert.Equal(t, 0, cart.RAMSize())
}

func TestCleanGameboyTitleBlankDefaultsToPlaceholder(t *testing.T) {
	assert.Equal(t, "(Untitled)", cleanGameboyTitle(make([]byte, 16)))
}
