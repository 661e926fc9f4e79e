//go:build sdl2

package sdl2

import (
	"github.com/valerio/go-jeebie/jeebie/debug"
	"github.com/valerio/go-jeebie/jeebie/video"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	DebugWindowWidth  = 680
	DebugWindowHeight = 420
	spriteScale       = 2
	tileScale         = 2
)

// DebugWindow renders a live view of OAM sprite state and the VRAM tile set
// in a secondary SDL2 window, toggled independently of the main display.
type DebugWindow struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	visible  bool

	oam  *debug.OAMData
	vram *debug.VRAMData

	spriteTileBuffer []uint32 // 8x8 scratch buffer for one sprite/tile
	defaultPalette   []uint32

	needsUpdate bool
}

func NewDebugWindow() *DebugWindow {
	return &DebugWindow{
		visible:     false,
		needsUpdate: true,
	}
}

func (dw *DebugWindow) Init() error {
	window, err := sdl.CreateWindow(
		"Game Boy Debug",
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		DebugWindowWidth,
		DebugWindowHeight,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		return err
	}
	dw.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		return err
	}
	dw.renderer = renderer

	dw.spriteTileBuffer = make([]uint32, 8*8)
	dw.defaultPalette = []uint32{
		uint32(video.WhiteColor),
		uint32(video.LightGreyColor),
		uint32(video.DarkGreyColor),
		uint32(video.BlackColor),
	}

	dw.window.Hide()
	return nil
}

// UpdateData replaces the OAM/VRAM snapshots the window renders from; pass
// nil for either to skip that panel on the next Render.
func (dw *DebugWindow) UpdateData(oam *debug.OAMData, vram *debug.VRAMData) {
	dw.oam = oam
	dw.vram = vram
	dw.needsUpdate = true
}

func (dw *DebugWindow) Render() error {
	if !dw.visible || !dw.needsUpdate {
		return nil
	}

	dw.renderer.SetDrawColor(30, 30, 30, 255)
	dw.renderer.Clear()

	dw.renderSpritePanel()
	dw.renderTilePanel()

	dw.renderer.Present()
	dw.needsUpdate = false
	return nil
}

func (dw *DebugWindow) renderSpritePanel() {
	panelRect := &sdl.Rect{X: 10, Y: 10, W: 320, H: 400}
	dw.renderer.SetDrawColor(40, 40, 40, 255)
	dw.renderer.FillRect(panelRect)
	dw.renderer.SetDrawColor(100, 100, 100, 255)
	dw.renderer.DrawRect(panelRect)

	if dw.oam == nil {
		return
	}

	const perRow = 8
	const cell = 8 * spriteScale + 4

	for _, sprite := range dw.oam.Sprites {
		col := sprite.Index % perRow
		row := sprite.Index / perRow
		x := int32(20 + col*cell)
		y := int32(20 + row*cell)

		if !sprite.IsVisible {
			dw.renderer.SetDrawColor(60, 60, 60, 255)
			dw.renderer.DrawRect(&sdl.Rect{X: x, Y: y, W: 8 * spriteScale, H: 8 * spriteScale})
			continue
		}

		r, g, b := uint8(100), uint8(200), uint8(100)
		if sprite.Sprite.PaletteOBP1 {
			r, g, b = 100, 150, 220
		}
		dw.renderer.SetDrawColor(r, g, b, 255)
		dw.renderer.FillRect(&sdl.Rect{X: x, Y: y, W: 8 * spriteScale, H: 8 * spriteScale})
	}
}

func (dw *DebugWindow) renderTilePanel() {
	panelRect := &sdl.Rect{X: 340, Y: 10, W: 330, H: 400}
	dw.renderer.SetDrawColor(40, 40, 40, 255)
	dw.renderer.FillRect(panelRect)
	dw.renderer.SetDrawColor(100, 100, 100, 255)
	dw.renderer.DrawRect(panelRect)

	if dw.vram == nil {
		return
	}

	const perRow = 16
	const cell = 8*tileScale + 1

	for _, pattern := range dw.vram.TilePatterns {
		col := pattern.Index % perRow
		row := pattern.Index / perRow
		ox := int32(350 + col*cell)
		oy := int32(20 + row*cell)
		pixels := pattern.Pixels()

		for py := 0; py < 8; py++ {
			for px := 0; px < 8; px++ {
				color := pixels[py][px]
				var r, g, b uint8
				switch color {
				case video.WhiteColor:
					r, g, b = 230, 230, 230
				case video.LightGreyColor:
					r, g, b = 170, 170, 170
				case video.DarkGreyColor:
					r, g, b = 90, 90, 90
				default:
					r, g, b = 20, 20, 20
				}
				dw.renderer.SetDrawColor(r, g, b, 255)
				dw.renderer.FillRect(&sdl.Rect{
					X: ox + int32(px*tileScale),
					Y: oy + int32(py*tileScale),
					W: tileScale,
					H: tileScale,
				})
			}
		}
	}
}

func (dw *DebugWindow) SetVisible(visible bool) {
	dw.visible = visible
	if dw.window == nil {
		return
	}
	if visible {
		dw.window.Show()
		dw.needsUpdate = true
	} else {
		dw.window.Hide()
	}
}

func (dw *DebugWindow) IsVisible() bool {
	return dw.visible
}

func (dw *DebugWindow) IsInitialized() bool {
	return dw.window != nil
}

// ProcessEvent lets the debug window react to window-close events targeted
// at it; all other events are the main window's concern.
func (dw *DebugWindow) ProcessEvent(evt sdl.Event) {
	we, ok := evt.(*sdl.WindowEvent)
	if !ok || dw.window == nil {
		return
	}
	if we.WindowID == dw.window.GetID() && we.Event == sdl.WINDOWEVENT_CLOSE {
		dw.SetVisible(false)
	}
}

func (dw *DebugWindow) Cleanup() error {
	if dw.renderer != nil {
		dw.renderer.Destroy()
	}
	if dw.window != nil {
		dw.window.Destroy()
	}
	return nil
}
