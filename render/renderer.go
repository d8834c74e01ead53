//go:build !libretro

package render

import (
	"fmt"
	"image/color"

	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/lockstep/kernel/ecs"
	"github.com/lockstep/kernel/facade"
	"github.com/lockstep/kernel/fixed"
)

// shapeEntry is one sprite queued for drawing this frame, captured up
// front so depth sorting by layer doesn't have to re-walk the query.
type shapeEntry struct {
	pose    Pose
	shape   uint8
	width   float64
	height  float64
	radius  float64
	col     color.RGBA
	layer   uint8
	scale   float64
	offsetX float64
	offsetY float64
}

// Renderer draws the interpolated Transform2D/Sprite state of a world
// onto an Ebiten screen, the same responsibility bridge/ebiten's
// Emulator.DrawToScreen holds for the VDP framebuffer, generalized from
// "blit one fixed image" to "draw N depth-sorted primitives".
type Renderer struct {
	// DebugNetwork and DebugRollback gate the HUD overlay lines they
	// each name (spec.md §6 "build-time toggles that gate logging").
	DebugNetwork  bool
	DebugRollback bool

	ui            *ebitenui.UI
	rollbackLabel *widget.Text
	networkLabel  *widget.Text
}

// hudFace is the cached font face every HUD label shares, following the
// same lazily-initialized text.Face pattern ui/theme.go's GetFontFace used.
var hudFace text.Face

func hudFontFace() text.Face {
	if hudFace == nil {
		hudFace = text.NewGoXFace(basicfont.Face7x13)
	}
	return hudFace
}

// NewRenderer creates a renderer with both debug overlays off and an
// ebitenui container holding the two HUD labels DrawHUD fills in.
func NewRenderer() *Renderer {
	rollbackLabel := widget.NewText(
		widget.TextOpts.Text("", hudFontFace(), color.White),
	)
	networkLabel := widget.NewText(
		widget.TextOpts.Text("", hudFontFace(), color.White),
	)

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Padding(widget.NewInsetsSimple(4)),
			widget.RowLayoutOpts.Spacing(2),
		)),
	)
	root.AddChild(rollbackLabel)
	root.AddChild(networkLabel)

	return &Renderer{
		ui:            &ebitenui.UI{Container: root},
		rollbackLabel: rollbackLabel,
		networkLabel:  networkLabel,
	}
}

// Update advances the HUD's ebitenui container; call once per game Update
// alongside the simulation tick, mirroring ui.App's ui.Update() call.
func (r *Renderer) Update() {
	r.ui.Update()
}

// Draw renders every visible sprite in w, interpolated by alpha via in,
// in ascending-layer order (so layer behaves as a simple paint-order
// depth, lowest drawn first).
func (r *Renderer) Draw(screen *ebiten.Image, w *ecs.World, in *Interpolator, alpha float64) {
	var entries []shapeEntry
	w.QueryComponent(facade.CompSprite).Each(func(id ecs.EntityID) {
		if !w.HasComponent(id, facade.CompTransform2D) {
			return
		}
		sprite, err := w.Get(id, facade.CompSprite)
		if err != nil || !sprite.Bool("visible") {
			return
		}
		pose, ok := in.At(id, alpha)
		if !ok {
			return
		}
		entries = append(entries, shapeEntry{
			pose:    pose,
			shape:   sprite.U8("shape"),
			width:   fixed.ToFloat(sprite.Fixed("width")),
			height:  fixed.ToFloat(sprite.Fixed("height")),
			radius:  fixed.ToFloat(sprite.Fixed("radius")),
			col:     color.RGBA{R: sprite.U8("colorR"), G: sprite.U8("colorG"), B: sprite.U8("colorB"), A: sprite.U8("colorA")},
			layer:   sprite.U8("layer"),
			scale:   fixed.ToFloat(sprite.Fixed("scale")),
			offsetX: fixed.ToFloat(sprite.Fixed("offsetX")),
			offsetY: fixed.ToFloat(sprite.Fixed("offsetY")),
		})
	})

	sortByLayer(entries)
	for _, e := range entries {
		drawShape(screen, e)
	}
}

func sortByLayer(entries []shapeEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].layer > entries[j].layer; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

// whiteDot is a 1x1 opaque white image, reused as the source for every
// box draw: a box at any angle is just this pixel scaled, rotated, and
// tinted via DrawImageOptions, the same GeoM.Scale/Translate recipe
// bridge/ebiten's DrawToScreen uses to fit the VDP framebuffer to the
// window.
var whiteDot = newWhiteDot()

func newWhiteDot() *ebiten.Image {
	img := ebiten.NewImage(1, 1)
	img.Fill(color.White)
	return img
}

func drawShape(screen *ebiten.Image, e shapeEntry) {
	scale := e.scale
	if scale == 0 {
		scale = 1
	}
	cx := e.pose.X + e.offsetX
	cy := e.pose.Y + e.offsetY

	const spriteShapeCircle = 0
	switch e.shape {
	case spriteShapeCircle:
		radius := e.radius * scale
		vector.DrawFilledCircle(screen, float32(cx), float32(cy), float32(radius), e.col, true)
	default: // box
		w, h := e.width*scale, e.height*scale
		drawBox(screen, cx, cy, w, h, e.pose.Angle, e.col)
	}
}

// drawBox draws a (possibly rotated) filled box centered at (cx, cy) by
// scaling and rotating whiteDot, then tinting it with ColorScale.
func drawBox(screen *ebiten.Image, cx, cy, w, h, angle float64, col color.RGBA) {
	var opts ebiten.DrawImageOptions
	opts.GeoM.Scale(w, h)
	opts.GeoM.Translate(-w/2, -h/2)
	if angle != 0 {
		opts.GeoM.Rotate(angle)
	}
	opts.GeoM.Translate(cx, cy)
	opts.ColorScale.Scale(float32(col.R)/255, float32(col.G)/255, float32(col.B)/255, float32(col.A)/255)
	screen.DrawImage(whiteDot, &opts)
}

// HUDState is the debug overlay's input: whatever the façade/rollback
// layer wants surfaced without pulling a renderer dependency into those
// packages (spec.md §9 Design Notes keeps kernel packages free of any
// drawing import).
type HUDState struct {
	Frame             uint32
	PendingCount      int
	LastMisprediction string
	PeerCount         int
	LastDriftFrame    uint32
	HasDrift          bool
}

// DrawHUD fills in the enabled labels and draws the HUD container
// top-left of screen; a disabled toggle's label is left blank rather than
// removed, so the row layout doesn't reflow between frames.
func (r *Renderer) DrawHUD(screen *ebiten.Image, s HUDState) {
	if r.DebugRollback {
		r.rollbackLabel.Label = fmt.Sprintf("frame=%d pending=%d last_mispredict=%s", s.Frame, s.PendingCount, s.LastMisprediction)
	} else {
		r.rollbackLabel.Label = ""
	}
	if r.DebugNetwork {
		drift := "none"
		if s.HasDrift {
			drift = fmt.Sprintf("frame %d", s.LastDriftFrame)
		}
		r.networkLabel.Label = fmt.Sprintf("peers=%d last_drift=%s", s.PeerCount, drift)
	} else {
		r.networkLabel.Label = ""
	}
	r.ui.Draw(screen)
}
