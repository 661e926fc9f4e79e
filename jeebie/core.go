package jeebie

import (
	"fmt"
	"os"
	"log/slog"
	"sync"

	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/audio"
	"github.com/valerio/go-jeebie/jeebie/cpu"
	"github.com/valerio/go-jeebie/jeebie/debug"
	"github.com/valerio/go-jeebie/jeebie/input/action"
	"github.com/valerio/go-jeebie/jeebie/memory"
	"github.com/valerio/go-jeebie/jeebie/timing"
	"github.com/valerio/go-jeebie/jeebie/video"
)

// DebuggerState represents the current debugger mode
type DebuggerState int

const (
	DebuggerRunning   DebuggerState = iota // Normal execution
	DebuggerPaused                         // Paused, waiting for commands
	DebuggerStep                           // Execute one instruction then pause
	DebuggerStepFrame                      // Execute one frame then pause
)

// snapshotRadius is how far before the PC a debug memory snapshot starts,
// matching the window CreateDisassembly scans backwards from.
const snapshotRadius = 30
const snapshotSize = 200

// DMG is the root struct and entry point for running the emulation: a
// Sharp SM83 core, PPU, and the memory bus wiring them together.
type DMG struct {
	cpu *cpu.CPU
	gpu *video.GPU
	mem *memory.MMU

	limiter timing.Limiter

	// Debugger state
	debuggerState    DebuggerState
	debuggerMutex    sync.RWMutex
	stepRequested    bool
	frameRequested   bool
	instructionCount uint64
	frameCount       uint64
}

func (e *DMG) init(mem *memory.MMU) {
	e.cpu = cpu.New(mem)
	e.gpu = video.NewGpu(mem)
	e.mem = mem
	e.limiter = timing.NewNoOpLimiter()

	mem.SetTimerSeed(0xABCC)
}

// New creates a new DMG instance with no cartridge inserted.
func New() *DMG {
	e := &DMG{}
	e.init(memory.NewWithCartridge(memory.NewCartridge()))

	return e
}

// NewWithFile creates a new DMG instance and loads the ROM file into it.
func NewWithFile(path string) (*DMG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded ROM data", "size", len(data))

	cart, err := memory.NewCartridgeWithData(data)
	if err != nil {
		return nil, err
	}

	e := &DMG{}
	e.init(memory.NewWithCartridge(cart))

	return e, nil
}

// RunUntilFrame advances emulation until a full frame (70224 T-cycles) has
// been produced, honoring the debugger's current mode.
func (e *DMG) RunUntilFrame() error {
	e.debuggerMutex.RLock()
	state := e.debuggerState
	e.debuggerMutex.RUnlock()

	if state == DebuggerPaused {
		e.limiter.WaitForNextFrame()
		return nil
	}

	if state == DebuggerStep {
		e.debuggerMutex.Lock()
		requested := e.stepRequested
		if requested {
			e.stepRequested = false
		}
		e.debuggerMutex.Unlock()

		if requested {
			oldPC := e.cpu.GetPC()
			e.stepOne()

			slog.Debug("Step executed", "pc", fmt.Sprintf("0x%04X", oldPC), "new_pc", fmt.Sprintf("0x%04X", e.cpu.GetPC()))
			e.SetDebuggerState(DebuggerPaused)
		}
		return nil
	}

	if state == DebuggerStepFrame {
		e.debuggerMutex.Lock()
		requested := e.frameRequested
		if requested {
			e.frameRequested = false
		}
		e.debuggerMutex.Unlock()

		if requested {
			e.runFrame()
			e.SetDebuggerState(DebuggerPaused)
		}
		return nil
	}

	e.runFrame()
	e.limiter.WaitForNextFrame()
	return nil
}

// stepOne executes a single CPU instruction and ticks the rest of the
// system by the cycles it consumed.
func (e *DMG) stepOne() int {
	cycles := e.cpu.Tick()
	e.mem.Tick(cycles)
	e.gpu.Tick(cycles)
	e.mem.APU.Tick(cycles)
	e.instructionCount++
	return cycles
}

func (e *DMG) runFrame() {
	total := 0
	for total < timing.CyclesPerFrame {
		total += e.stepOne()
	}
	e.frameCount++
	if e.frameCount%60 == 0 {
		slog.Debug("Frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%04X", e.cpu.GetPC()))
	}
}

// GetCurrentFrame returns the framebuffer for the most recently rendered frame.
func (e *DMG) GetCurrentFrame() *video.FrameBuffer {
	return e.gpu.GetFrameBuffer()
}

// HandleAction routes a logical input action to the joypad or debugger.
func (e *DMG) HandleAction(act action.Action, pressed bool) {
	if key, ok := joypadKeyFor(act); ok {
		if pressed {
			e.mem.HandleKeyPress(key)
		} else {
			e.mem.HandleKeyRelease(key)
		}
		return
	}

	if !pressed {
		return
	}

	switch act {
	case action.EmulatorPauseToggle:
		if e.GetDebuggerState() == DebuggerPaused {
			e.DebuggerResume()
		} else {
			e.DebuggerPause()
		}
	case action.EmulatorStepInstruction:
		e.DebuggerStepInstruction()
	case action.EmulatorStepFrame:
		e.DebuggerStepFrame()
	}
}

func joypadKeyFor(act action.Action) (memory.JoypadKey, bool) {
	switch act {
	case action.GBButtonA:
		return memory.JoypadA, true
	case action.GBButtonB:
		return memory.JoypadB, true
	case action.GBButtonStart:
		return memory.JoypadStart, true
	case action.GBButtonSelect:
		return memory.JoypadSelect, true
	case action.GBDPadUp:
		return memory.JoypadUp, true
	case action.GBDPadDown:
		return memory.JoypadDown, true
	case action.GBDPadLeft:
		return memory.JoypadLeft, true
	case action.GBDPadRight:
		return memory.JoypadRight, true
	default:
		return 0, false
	}
}

func (e *DMG) HandleKeyPress(key memory.JoypadKey) {
	e.mem.HandleKeyPress(key)
}

func (e *DMG) HandleKeyRelease(key memory.JoypadKey) {
	e.mem.HandleKeyRelease(key)
}

func (e *DMG) GetCPU() *cpu.CPU {
	return e.cpu
}

func (e *DMG) GetMMU() *memory.MMU {
	return e.mem
}

// GetAudioProvider exposes the APU's sample/debug surface to audio backends.
func (e *DMG) GetAudioProvider() audio.Provider {
	if e.mem == nil {
		return nil
	}
	return e.mem.APU
}

// SetFrameLimiter installs the frame pacer used by RunUntilFrame; pass nil
// to run unthrottled (used by headless/benchmark callers).
func (e *DMG) SetFrameLimiter(limiter timing.Limiter) {
	if limiter == nil {
		e.limiter = timing.NewNoOpLimiter()
	} else {
		e.limiter = limiter
	}
}

func (e *DMG) ResetFrameTiming() {
	e.limiter.Reset()
}

// ExtractDebugData snapshots CPU/memory/OAM/VRAM state for debug displays.
// Returns nil if the DMG hasn't been initialized yet.
func (e *DMG) ExtractDebugData() *debug.CompleteDebugData {
	if e.cpu == nil || e.mem == nil || e.gpu == nil {
		return nil
	}

	pc := e.cpu.GetPC()

	var startAddr uint16
	if pc >= snapshotRadius {
		startAddr = pc - snapshotRadius
	}

	size := snapshotSize
	if uint32(startAddr)+uint32(size) > 0xFFFF {
		size = int(0x10000 - uint32(startAddr))
	}

	bytes := make([]uint8, size)
	for i := 0; i < size; i++ {
		bytes[i] = e.mem.Read(startAddr + uint16(i))
	}

	lcdc := e.mem.Read(addr.LCDC)
	spriteHeight := 8
	if lcdc&0x04 != 0 {
		spriteHeight = 16
	}
	currentLine := int(e.mem.Read(addr.LY))

	return &debug.CompleteDebugData{
		OAM:  debug.ExtractOAMData(e.mem, currentLine, spriteHeight),
		VRAM: debug.ExtractVRAMData(e.mem),
		CPU: &debug.CPUState{
			A: e.cpu.GetA(), F: e.cpu.GetF(),
			B: e.cpu.GetB(), C: e.cpu.GetC(),
			D: e.cpu.GetD(), E: e.cpu.GetE(),
			H: e.cpu.GetH(), L: e.cpu.GetL(),
			SP:     e.cpu.GetSP(),
			PC:     pc,
			IME:    e.cpu.IME(),
			Cycles: e.cpu.GetCycles(),
		},
		Memory: &debug.MemorySnapshot{
			StartAddr: startAddr,
			Bytes:     bytes,
		},
		DebuggerState:   debug.DebuggerState(e.GetDebuggerState()),
		InterruptEnable: e.mem.Read(addr.IE),
		InterruptFlags:  e.mem.Read(addr.IF),
	}
}

// Debugger control methods
func (e *DMG) SetDebuggerState(state DebuggerState) {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.debuggerState = state
	slog.Debug("Debugger state changed", "state", state)
}

func (e *DMG) GetDebuggerState() DebuggerState {
	e.debuggerMutex.RLock()
	defer e.debuggerMutex.RUnlock()
	return e.debuggerState
}

func (e *DMG) DebuggerPause() {
	e.SetDebuggerState(DebuggerPaused)
	slog.Info("Emulator paused")
}

func (e *DMG) DebuggerResume() {
	e.SetDebuggerState(DebuggerRunning)
	slog.Info("Emulator resumed")
}

func (e *DMG) DebuggerStepInstruction() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.stepRequested = true
	e.debuggerState = DebuggerStep
	slog.Info("Step instruction requested")
}

func (e *DMG) DebuggerStepFrame() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.frameRequested = true
	e.debuggerState = DebuggerStepFrame
	slog.Info("Step frame requested")
}

func (e *DMG) GetInstructionCount() uint64 {
	return e.instructionCount
}

func (e *DMG) GetFrameCount() uint64 {
	return e.frameCount
}
