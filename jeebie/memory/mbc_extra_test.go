package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMBC2(t *testing.T) {
	rom := make([]uint8, 4*0x4000)
	for i := range rom {
		rom[i] = uint8(i / 0x4000)
	}
	mbc := NewMBC2(rom)

	assert.Equal(t, uint8(0), mbc.Read(0x0000), "bank 0 is fixed")

	mbc.Write(0x2100, 2) // bit 8 set -> ROM bank select
	assert.Equal(t, uint8(2), mbc.Read(0x4000))

	mbc.Write(0x2100, 0) // bank 0 remaps to 1
	assert.Equal(t, uint8(1), mbc.Read(0x4000))

	assert.Equal(t, uint8(0xFF), mbc.Read(0xA000), "RAM disabled by default")

	mbc.Write(0x0000, 0x0A) // bit 8 clear -> RAM enable
	mbc.Write(0xA000, 0x1F)
	got := mbc.Read(0xA000)
	assert.Equal(t, uint8(0xF0|0x0F), got, "only low nibble stored, high nibble always reads 1s")

	// address aliasing: 512-byte window repeats across 0xA000-0xBFFF
	assert.Equal(t, mbc.Read(0xA000), mbc.Read(0xA200))
}

func TestMBC3RTC(t *testing.T) {
	rom := make([]uint8, 2*0x4000)
	mbc := NewMBC3(rom, true, 4)

	mbc.Write(0x0000, 0x0A) // enable RAM/RTC access
	mbc.Write(0x4000, 0x08) // select seconds register
	mbc.Write(0xA000, 42)

	// latch: 0 then 1 copies live registers into the latched snapshot
	mbc.Write(0x6000, 0x00)
	mbc.Write(0x6000, 0x01)

	got := mbc.Read(0xA000)
	assert.Equal(t, uint8(42), got)

	// without a fresh 0->1 edge, a second latch write has no effect
	mbc.rtc[rtcSeconds] = 99
	mbc.Write(0x6000, 0x01)
	assert.Equal(t, uint8(42), mbc.Read(0xA000), "latched snapshot unchanged without a new 0->1 edge")

	mbc.Write(0x6000, 0x00)
	mbc.Write(0x6000, 0x01)
	assert.Equal(t, uint8(99), mbc.Read(0xA000), "new latch picks up updated live register")
}

func TestMBC3RAMBanking(t *testing.T) {
	rom := make([]uint8, 2*0x4000)
	mbc := NewMBC3(rom, false, 4)

	mbc.Write(0x0000, 0x0A)
	mbc.Write(0x4000, 0x02)
	mbc.Write(0xA000, 0x77)

	mbc.Write(0x4000, 0x00)
	assert.NotEqual(t, uint8(0x77), mbc.Read(0xA000))

	mbc.Write(0x4000, 0x02)
	assert.Equal(t, uint8(0x77), mbc.Read(0xA000))
}

func TestMBC5(t *testing.T) {
	rom := make([]uint8, 512*0x4000)
	for bank := 0; bank < 512; bank++ {
		rom[bank*0x4000] = uint8(bank)
		rom[bank*0x4000+1] = uint8(bank >> 8)
	}
	mbc := NewMBC5(rom, false, 1)

	// select bank 0x1FF (all 9 bits set) and confirm both register writes matter
	mbc.Write(0x2000, 0xFF)
	mbc.Write(0x3000, 0x01)
	assert.Equal(t, uint8(0xFF), mbc.Read(0x4000))
	assert.Equal(t, uint8(0x01), mbc.Read(0x4001))

	// bank 0 is legal (no remap-to-1 quirk, unlike MBC1/3)
	mbc.Write(0x2000, 0x00)
	mbc.Write(0x3000, 0x00)
	assert.Equal(t, uint8(0x00), mbc.Read(0x4000))

	mbc.Write(0x0000, 0x0A)
	mbc.Write(0x4000, 0x00) // RAM bank 0, also legal on MBC5
	mbc.Write(0xA000, 0x5A)
	assert.Equal(t, uint8(0x5A), mbc.Read(0xA000))
}
