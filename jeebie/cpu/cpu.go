package cpu

import (
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/bit"
	"github.com/valerio/go-jeebie/jeebie/memory"
)

// Flag is one of the 4 possible flags used in the flag register.
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag            = 0x40
	halfCarryFlag      = 0x20
	carryFlag          = 0x10
)

// Bus is the memory-mapped interface the CPU drives. *memory.MMU satisfies
// it directly. Peripheral ticking (timer/PPU/APU) happens out-of-band, driven
// by the caller of Step with the cycle count it returns, not through this
// interface — see DMG.stepOne.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
}

// CPU holds the full state of the Sharp SM83 core: the flat byte registers,
// stack pointer, program counter, and the interrupt/HALT bookkeeping needed
// to reproduce their quirks.
type CPU struct {
	a, b, c, d, e, h, l uint8
	f                   uint8

	sp uint16
	pc uint16

	bus Bus

	currentOpcode uint16

	interruptsEnabled bool
	eiPending         bool
	halted            bool
	haltBug           bool
	stopped           bool

	cycles uint64
}

// New returns a CPU with its registers set to the state they're in right
// after the DMG boot ROM hands off control.
func New(bus Bus) *CPU {
	return &CPU{
		bus: bus,
		a:   0x01,
		f:   0xB0,
		b:   0x00,
		c:   0x13,
		d:   0x00,
		e:   0xD8,
		h:   0x01,
		l:   0x4D,
		sp:  0xFFFE,
		pc:  0x100,
	}
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

// flagToBit returns 1 if the flag is set, 0 otherwise. Used by the rotate
// helpers to fold the carry flag into the rotated value.
func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

// GetA, GetF, ... expose register state for debug tooling.
func (c *CPU) GetA() uint8 { return c.a }
func (c *CPU) GetF() uint8 { return c.f }
func (c *CPU) GetB() uint8 { return c.b }
func (c *CPU) GetC() uint8 { return c.c }
func (c *CPU) GetD() uint8 { return c.d }
func (c *CPU) GetE() uint8 { return c.e }
func (c *CPU) GetH() uint8 { return c.h }
func (c *CPU) GetL() uint8 { return c.l }
func (c *CPU) GetSP() uint16 { return c.sp }
func (c *CPU) GetPC() uint16 { return c.pc }
func (c *CPU) IME() bool     { return c.interruptsEnabled }
func (c *CPU) GetCycles() uint64 { return c.cycles }

// Tick runs a single Step; it exists alongside Step so callers driving the
// bus loop can read "tick the CPU" the way they read "tick the GPU/APU".
func (c *CPU) Tick() int { return c.Step() }

// GetFlagString renders the flag register as the classic ZNHC letters,
// uppercase when set and lowercase when clear.
func (c *CPU) GetFlagString() string {
	flags := [4]struct {
		flag Flag
		set  byte
		clr  byte
	}{
		{zeroFlag, 'Z', 'z'},
		{subFlag, 'N', 'n'},
		{halfCarryFlag, 'H', 'h'},
		{carryFlag, 'C', 'c'},
	}

	out := make([]byte, 4)
	for i, f := range flags {
		if c.isSetFlag(f.flag) {
			out[i] = f.set
		} else {
			out[i] = f.clr
		}
	}
	return string(out)
}

func (c *CPU) getBC() uint16 { return bit.Combine(c.b, c.c) }
func (c *CPU) getDE() uint16 { return bit.Combine(c.d, c.e) }
func (c *CPU) getHL() uint16 { return bit.Combine(c.h, c.l) }

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

// peekImmediate returns the byte at pc without advancing it, for use by
// Decode which must not mutate CPU state while only fetching.
func (c *CPU) peekImmediate() uint8 {
	return c.bus.Read(c.pc)
}

// peekImmediateWord returns the word at pc without advancing it.
func (c *CPU) peekImmediateWord() uint16 {
	low := c.bus.Read(c.pc)
	high := c.bus.Read(c.pc + 1)
	return bit.Combine(high, low)
}

// readImmediate consumes the byte at pc, advancing it by one.
func (c *CPU) readImmediate() uint8 {
	value := c.bus.Read(c.pc)
	c.pc++
	return value
}

// readImmediateWord consumes the word at pc, advancing it by two.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

// readSignedImmediate consumes a signed byte at pc, advancing it by one.
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

// interruptVectors lists each interrupt bit with its priority (lowest index
// wins) and the fixed address the CPU jumps to when servicing it.
var interruptVectors = []struct {
	bit    uint8
	vector uint16
}{
	{uint8(addr.VBlankInterrupt), 0x40},
	{uint8(addr.LCDSTATInterrupt), 0x48},
	{uint8(addr.TimerInterrupt), 0x50},
	{uint8(addr.SerialInterrupt), 0x58},
	{uint8(addr.JoypadInterrupt), 0x60},
}

// handleInterrupts checks IF & IE for a pending interrupt. It reports
// whether one is pending regardless of IME, since HALT wakes on a pending
// interrupt even with interrupts globally disabled; it only actually
// dispatches (push PC, jump to vector, clear IF, cost 20 cycles) when
// interruptsEnabled is true.
func (c *CPU) handleInterrupts() bool {
	flags := c.bus.Read(addr.IF)
	enabled := c.bus.Read(addr.IE)
	pending := flags & enabled

	for _, iv := range interruptVectors {
		if pending&iv.bit == 0 {
			continue
		}

		if !c.interruptsEnabled {
			return true
		}

		c.bus.Write(addr.IF, flags&^iv.bit)
		c.interruptsEnabled = false
		c.pushStack(c.pc)
		c.pc = iv.vector
		c.cycles += 20

		return true
	}

	return false
}

// Step executes a single instruction (or services a pending interrupt, or
// idles while halted) and returns the number of T-cycles it took.
func (c *CPU) Step() int {
	if c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	if c.halted {
		before := c.cycles
		interruptPending := c.handleInterrupts()
		if !interruptPending {
			return 4
		}

		c.halted = false
		if dispatched := c.cycles - before; dispatched > 0 {
			return int(dispatched)
		}

		if !c.interruptsEnabled {
			c.haltBug = true
		}
		return 4
	}

	before := c.cycles
	if c.handleInterrupts() && c.cycles != before {
		return 20
	}

	opcode := Decode(c)

	if c.haltBug {
		c.haltBug = false
	} else {
		c.pc++
		if c.currentOpcode&0xCB00 == 0xCB00 {
			c.pc++
		}
	}

	cycles := opcode(c)
	c.cycles += uint64(cycles)

	return cycles
}
