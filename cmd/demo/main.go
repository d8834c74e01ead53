//go:build !libretro

// Command demo runs a small standalone showcase of the simulation
// kernel: one locally controlled player entity moving over a flat
// physics world, driven by the façade and rendered with interpolation.
// It follows cli.Runner's shape — Update polls input and steps the
// simulation, Draw renders the result — generalized from "one emulated
// console" to "one façade-assembled world".
package main

import (
	"flag"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/lockstep/kernel/ecs"
	"github.com/lockstep/kernel/facade"
	"github.com/lockstep/kernel/fixed"
	"github.com/lockstep/kernel/render"
	"github.com/lockstep/kernel/sched"
)

const (
	screenW     = 640
	screenH     = 480
	tickRateHz  = 60
	playerSpeed = 4.0

	localClientID = 1
)

// playerInput is the opaque payload RouteInput hands to the input-phase
// system below; whether it's transmitted as JSON or opaque bytes on the
// wire is a transport concern (spec.md §6), not the kernel's.
type playerInput struct {
	Up, Down, Left, Right bool
}

func main() {
	debugNetwork := flag.Bool("debug-network", false, "show the network debug overlay")
	debugRollback := flag.Bool("debug-rollback", false, "show the rollback debug overlay")
	flag.Parse()

	f, err := facade.New(facade.Config{
		Dt:            fixed.FromFloat(1.0 / tickRateHz),
		IsClient:      true,
		HistoryBound:  120,
		SnapshotBound: 60,
	})
	if err != nil {
		log.Fatal(err)
	}

	if _, err := f.World.DefineEntity("player").
		With(facade.CompTransform2D).
		With(facade.CompRigidBody).
		With(facade.CompSprite).
		Register(); err != nil {
		log.Fatal(err)
	}

	f.Prefabs.Register("player", facade.EntityPrefab("player", map[string]any{
		"transform2d.x":    float64(screenW / 2),
		"transform2d.y":    float64(screenH / 2),
		"rigidbody.kind":   int(1), // physics.Kinematic: player-driven, not force-driven
		"rigidbody.shape":  int(0), // physics.ShapeCircle
		"rigidbody.radius": 16.0,
		"rigidbody.mass":   1.0,
		"rigidbody.layer":  1,
		"rigidbody.mask":   0xFF,
		"sprite.shape":     int(0),
		"sprite.radius":    16.0,
		"sprite.colorR":    80,
		"sprite.colorG":    180,
		"sprite.colorB":    255,
		"sprite.colorA":    255,
		"sprite.scale":     1.0,
		"sprite.visible":   true,
	}))

	playerID, err := f.Prefabs.Spawn(f.World, "player", nil)
	if err != nil {
		log.Fatal(err)
	}
	if err := f.World.SetClientID(playerID, localClientID); err != nil {
		log.Fatal(err)
	}

	f.Scheduler.AddSystem(sched.Input, "demo.playerControl", func(w *ecs.World) error {
		return applyPlayerInput(w, playerID)
	})

	renderer := render.NewRenderer()
	renderer.DebugNetwork = *debugNetwork
	renderer.DebugRollback = *debugRollback

	game := &demoGame{
		facade:       f,
		interp:       render.NewInterpolator(),
		renderer:     renderer,
		tickInterval: time.Second / tickRateHz,
		lastTick:     time.Now(),
	}
	game.interp.Capture(f.World)

	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("kernel demo")
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}

// applyPlayerInput reads the routed input for id and writes its
// resulting velocity directly into the rigidbody component; the
// physics plugin mirrors that velocity into the paired body during
// prePhysics.
func applyPlayerInput(w *ecs.World, id ecs.EntityID) error {
	raw, ok := w.Input(id)
	if !ok {
		return nil
	}
	in, ok := raw.(playerInput)
	if !ok {
		return nil
	}

	var vx, vy fixed.Scalar
	speed := fixed.FromFloat(playerSpeed)
	if in.Left {
		vx -= speed
	}
	if in.Right {
		vx += speed
	}
	if in.Up {
		vy -= speed
	}
	if in.Down {
		vy += speed
	}

	rb, err := w.Get(id, facade.CompRigidBody)
	if err != nil {
		return err
	}
	rb.SetFixed("vx", vx)
	rb.SetFixed("vy", vy)
	return nil
}

// demoGame implements ebiten.Game, pairing one façade-driven tick per
// Update call with alpha-interpolated drawing in Draw — the interpolator
// is exactly what lets Draw run at a different cadence than Update
// without the player ever seeing the simulation step.
type demoGame struct {
	facade       *facade.Facade
	interp       *render.Interpolator
	renderer     *render.Renderer
	tickInterval time.Duration
	lastTick     time.Time
}

func (g *demoGame) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	in := pollInput()
	g.facade.World.RouteInput(localClientID, in)

	// This demo has no transport collaborator confirming ticks from an
	// authority, so it runs OnLocalInput and treats its own prediction
	// as final — a real client instead calls OnServerTick as the
	// transport delivers confirmations (spec.md §4.5).
	if err := g.facade.Rollback.OnLocalInput(localClientID, in); err != nil {
		return err
	}
	g.interp.Capture(g.facade.World)
	g.lastTick = time.Now()
	g.renderer.Update()
	return nil
}

func (g *demoGame) Draw(screen *ebiten.Image) {
	alpha := float64(time.Since(g.lastTick)) / float64(g.tickInterval)
	g.renderer.Draw(screen, g.facade.World, g.interp, alpha)
	g.renderer.DrawHUD(screen, render.HUDState{
		Frame:        g.facade.World.Frame(),
		PendingCount: g.facade.Rollback.PendingCount(),
	})
}

func (g *demoGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenW, screenH
}

func pollInput() playerInput {
	return playerInput{
		Up:    ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:  ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		Left:  ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Right: ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight),
	}
}
