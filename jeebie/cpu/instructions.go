package cpu

import "github.com/valerio/go-jeebie/jeebie/bit"

func (c *CPU) pushStack(r uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.Low(r))
	c.sp--
	c.bus.Write(c.sp, bit.High(r))
}

func (c *CPU) popStack() uint16 {
	high := c.bus.Read(c.sp)
	c.sp++
	low := c.bus.Read(c.sp)
	c.sp++

	return bit.Combine(high, low)
}

func (c *CPU) inc(r *uint8) {
	*r++
	value := *r

	c.setFlagToCondition(zeroFlag, value == 0)
	c.setFlagToCondition(halfCarryFlag, (value&0xF) == 0x0)
	c.resetFlag(subFlag)
}

func (c *CPU) dec(r *uint8) {
	*r--
	value := *r

	c.setFlagToCondition(zeroFlag, value == 0)
	c.setFlagToCondition(halfCarryFlag, (value&0xF) == 0xF)
	c.setFlag(subFlag)
}

// setRotateZeroFlag sets the zero flag on the rotated result, except when r
// is register A: RLCA/RRCA/RLA/RRA always reset it on real hardware, unlike
// their CB-prefixed rotate-register counterparts.
func (c *CPU) setRotateZeroFlag(r *uint8, value uint8) {
	if r == &c.a {
		c.resetFlag(zeroFlag)
		return
	}
	c.setFlagToCondition(zeroFlag, value == 0)
}

func (c *CPU) rlc(r *uint8) {
	value := *r

	c.setFlagToCondition(carryFlag, value > 0x7F)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)

	value = (value << 1) | (value >> 7)
	*r = value

	c.setRotateZeroFlag(r, value)
}

func (c *CPU) rl(r *uint8) {
	value := *r
	carry := c.flagToBit(carryFlag)

	c.setFlagToCondition(carryFlag, value > 0x7F)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)

	value = (value << 1) | carry
	*r = value

	c.setRotateZeroFlag(r, value)
}

func (c *CPU) rrc(r *uint8) {
	value := *r

	c.setFlagToCondition(carryFlag, value&1 == 1)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)

	value = (value >> 1) | ((value & 1) << 7)
	*r = value

	c.setRotateZeroFlag(r, value)
}

func (c *CPU) rr(r *uint8) {
	value := *r
	carry := c.flagToBit(carryFlag) << 7

	c.setFlagToCondition(carryFlag, value&1 == 1)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)

	value = (value >> 1) | carry
	*r = value

	c.setRotateZeroFlag(r, value)
}

// addToA sets the result of adding an 8 bit register to A, while setting all relevant flags.
func (c *CPU) addToA(value uint8) {
	a := c.a
	result := a + value

	carry := (uint16(a) + uint16(value)) > 0xFF
	halfCarry := (a&0xF)+(value&0xF) > 0xF

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(carryFlag, carry)
	c.setFlagToCondition(halfCarryFlag, halfCarry)

	c.a = result
}

// addToHL sets the result of adding a 16 bit register to HL, while setting relevant flags.
func (c *CPU) addToHL(reg uint16) {
	hl := bit.Combine(c.h, c.l)
	result := hl + reg

	carry := (uint32(hl) + uint32(reg)) > 0xFFFF
	halfCarry := (hl&0xFFF)+(reg&0xFFF) > 0xFFF

	c.resetFlag(subFlag)
	c.setFlagToCondition(carryFlag, carry)
	c.setFlagToCondition(halfCarryFlag, halfCarry)

	c.h = bit.High(result)
	c.l = bit.Low(result)
}

// sub will subtract the value from register A and set all relevant flags.
func (c *CPU) sub(value uint8) {
	a := c.a
	c.a = a - value

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(carryFlag, a < value)
	c.setFlagToCondition(halfCarryFlag, (int(a)&0xF)-(int(value)&0xF) < 0)
}

// sbc will subtract the value and carry (1 if set, 0 otherwise) from the register A.
func (c *CPU) sbc(value uint8) {
	a := c.a
	carry := 0
	if c.isSetFlag(carryFlag) {
		carry = 1
	}

	result := int(c.a) - int(value) - carry
	c.a = uint8(result)

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(carryFlag, result < 0)
	c.setFlagToCondition(halfCarryFlag, (int(a)&0xF)-(int(value)&0xF)-carry < 0)
}

func (c *CPU) and(value uint8) {
	c.a &= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(carryFlag)
	c.resetFlag(halfCarryFlag)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(carryFlag)
	c.resetFlag(halfCarryFlag)
}

// jr performs a relative jump using the signed immediate byte.
func (c *CPU) jr() {
	offset := int8(c.readImmediate())
	c.pc = uint16(int32(c.pc) + int32(offset))
}

// jp performs an absolute jump using the immediate word.
func (c *CPU) jp() {
	c.pc = c.readImmediateWord()
}

// jrConditional always consumes the signed offset (so pc lands past it
// either way) and applies the jump only if taken.
func (c *CPU) jrConditional(taken bool) int {
	offset := int8(c.readImmediate())
	if taken {
		c.pc = uint16(int32(c.pc) + int32(offset))
		return 12
	}
	return 8
}

// jpConditional always consumes the immediate word and jumps only if taken.
func (c *CPU) jpConditional(taken bool) int {
	addr := c.readImmediateWord()
	if taken {
		c.pc = addr
		return 16
	}
	return 12
}

// callConditional always consumes the immediate word; if taken, pushes the
// return address and jumps to it.
func (c *CPU) callConditional(taken bool) int {
	addr := c.readImmediateWord()
	if taken {
		c.pushStack(c.pc)
		c.pc = addr
		return 24
	}
	return 12
}

// retConditional pops the return address and jumps only if taken.
func (c *CPU) retConditional(taken bool) int {
	if taken {
		c.pc = c.popStack()
		return 20
	}
	return 8
}

// adc adds value plus the carry flag to register A.
func (c *CPU) adc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := uint16(a) + uint16(value) + uint16(carry)

	c.setFlagToCondition(zeroFlag, uint8(result) == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(carryFlag, result > 0xFF)
	c.setFlagToCondition(halfCarryFlag, (a&0xF)+(value&0xF)+carry > 0xF)

	c.a = uint8(result)
}

// cp compares value against register A, setting flags as sub would without
// storing the result.
func (c *CPU) cp(value uint8) {
	a := c.a
	c.setFlagToCondition(zeroFlag, a == value)
	c.setFlag(subFlag)
	c.setFlagToCondition(carryFlag, a < value)
	c.setFlagToCondition(halfCarryFlag, (int(a)&0xF)-(int(value)&0xF) < 0)
}

// daa adjusts register A to valid packed BCD after an add or sub.
func (c *CPU) daa() {
	a := c.a

	if !c.isSetFlag(subFlag) {
		if c.isSetFlag(carryFlag) || a > 0x99 {
			a += 0x60
			c.setFlag(carryFlag)
		}
		if c.isSetFlag(halfCarryFlag) || (a&0xF) > 0x9 {
			a += 0x06
		}
	} else {
		if c.isSetFlag(carryFlag) {
			a -= 0x60
		}
		if c.isSetFlag(halfCarryFlag) {
			a -= 0x06
		}
	}

	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(zeroFlag, a == 0)
	c.a = a
}

// sla shifts the register left by one, shifting in a 0.
func (c *CPU) sla(r *uint8) {
	value := *r
	c.setFlagToCondition(carryFlag, value > 0x7F)
	value <<= 1
	*r = value

	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(zeroFlag, value == 0)
}

// sra shifts the register right by one, preserving the sign bit (MSb).
func (c *CPU) sra(r *uint8) {
	value := *r
	msb := value & 0x80
	c.setFlagToCondition(carryFlag, value&1 == 1)
	value = (value >> 1) | msb
	*r = value

	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(zeroFlag, value == 0)
}

// srl shifts the register right by one, shifting in a 0.
func (c *CPU) srl(r *uint8) {
	value := *r
	c.setFlagToCondition(carryFlag, value&1 == 1)
	value >>= 1
	*r = value

	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(zeroFlag, value == 0)
}

// swap exchanges the low and high nibbles of the register.
func (c *CPU) swap(r *uint8) {
	value := *r
	value = (value << 4) | (value >> 4)
	*r = value

	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
	c.setFlagToCondition(zeroFlag, value == 0)
}

// bit tests bit idx of value, setting the zero flag to its complement.
func (c *CPU) bit(idx uint8, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(idx, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

// set sets bit idx of the register.
func (c *CPU) set(idx uint8, r *uint8) {
	*r = bit.Set(idx, *r)
}

// res resets bit idx of the register.
func (c *CPU) res(idx uint8, r *uint8) {
	*r = bit.Reset(idx, *r)
}
