// Package game is the endless runner itself: a session context that owns
// the world, the scene and every task, plus the components that act on it
// each frame and on every timer.
package game

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/rollrun/internal/audio"
	"github.com/tomz197/rollrun/internal/config"
	"github.com/tomz197/rollrun/internal/input"
	"github.com/tomz197/rollrun/internal/object"
	"github.com/tomz197/rollrun/internal/physics"
	"github.com/tomz197/rollrun/internal/render"
	"github.com/tomz197/rollrun/internal/sched"
)

// Phase is the state of a run.
type Phase int

const (
	Running Phase = iota
	Lost
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Lost:
		return "lost"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// UI is the host's score and lose screen.
type UI interface {
	SetScore(n int)
	SetHighScore(n int)
	ShowLose()
	HideLose()
}

// Stats counts what happened in a session.
type Stats struct {
	Frames   int
	Spawned  int
	Expired  int
	Hits     int // Collisions loud enough to play
	Runs     int
	LastLoss time.Time
}

// Camera placement relative to the player, in player radii.
const (
	cameraHeight = 4
	cameraBehind = 5.5
	cameraFOV    = 75
	cameraNear   = 0.1
	cameraFar    = 100
)

// Options configures a Session.
type Options struct {
	Config    config.Config
	Scheduler *sched.Scheduler
	UI        UI
	Sound     audio.Sound
	Rand      *rand.Rand
	Logger    *log.Logger

	// Environment lights obstacles and tints the sky; nil renders without it.
	Environment *render.Environment
	// Aspect is the initial camera aspect ratio.
	Aspect float64
	// OnFrame draws the scene; called once per tick before the camera moves.
	OnFrame func(*render.Scene, *render.PerspectiveCamera)
}

// Session is the context every component works on. Everything it owns is
// touched only from the goroutine pumping its scheduler.
type Session struct {
	cfg   config.Config
	log   *log.Logger
	sched *sched.Scheduler
	tasks sched.Group
	ui    UI
	sound audio.Sound
	rnd   *rand.Rand

	ids      object.IDSource
	world    *physics.World
	material *physics.Material
	floor    *physics.Body
	scene    *render.Scene
	camera   *render.PerspectiveCamera
	style    object.ObstacleStyle
	onFrame  func(*render.Scene, *render.PerspectiveCamera)

	player      *object.Player
	unsubPlayer func()
	pool        *ObstaclePool
	input       *input.State

	phase Phase
	stats Stats

	Spawner    *Spawner
	Controller *PlayerController
	Collisions *CollisionListener
	Score      *ScoreTracker
	Loop       *GameLoop
}

// New builds a session with its world, scene and player. Call Start to run it.
func New(opts Options) (*Session, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Scheduler == nil {
		return nil, errors.New("game: scheduler is required")
	}
	if opts.UI == nil {
		return nil, errors.New("game: UI is required")
	}

	s := &Session{
		cfg:     cfg,
		log:     opts.Logger,
		sched:   opts.Scheduler,
		ui:      opts.UI,
		sound:   opts.Sound,
		rnd:     opts.Rand,
		input:   input.NewState(),
		onFrame: opts.OnFrame,
		style:   object.DefaultObstacleStyle,
	}
	if s.log == nil {
		s.log = log.New(io.Discard)
	}
	if s.sound == nil {
		s.sound = audio.Silent{}
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s.style.EnvMap = opts.Environment

	s.buildWorld()
	s.buildScene(opts.Environment, opts.Aspect)

	s.pool = newObstaclePool(s)
	s.Spawner = &Spawner{s: s}
	s.Controller = &PlayerController{s: s}
	s.Collisions = &CollisionListener{s: s}
	s.Score = &ScoreTracker{s: s}
	s.Loop = &GameLoop{s: s}

	s.spawnPlayer()
	return s, nil
}

func (s *Session) buildWorld() {
	cfg := s.cfg
	var bp physics.Broadphase
	switch cfg.Broadphase {
	case config.BroadphaseSpace:
		// Obstacles spawn up to SpawnAheadMax ahead and drift well past the camera before expiring.
		half := int(math.Ceil(cfg.LaneHalfWidth)) + 16
		behind := int(math.Ceil(cfg.SpawnAheadMax)) + 16
		ahead := int(cfg.ConveyorStep*float64(cfg.FPS)*cfg.ObstacleTTL.Seconds()) + 16
		bp = physics.NewSpaceBroadphase(float64(-half), float64(-behind), 2*half, behind+ahead, 8)
	case config.BroadphaseGrid:
		bp = physics.NewGridBroadphase(-cfg.LaneHalfWidth-16, -cfg.SpawnAheadMax-16, 2*cfg.LaneHalfWidth+32, 1024, gridCellSize(cfg))
	default:
		bp = &physics.NaiveBroadphase{}
	}

	s.world = physics.NewWorld(bp)
	s.world.Gravity = physics.Vec3{0, cfg.Gravity, 0}
	s.world.AllowSleep = true
	s.world.DefaultContactMaterial = physics.ContactMaterial{Friction: cfg.Friction, Restitution: cfg.Restitution}
	s.material = &physics.Material{Name: "default"}

	// The plane's normal is its local +Z; a quarter turn about -X makes it +Y.
	s.floor = physics.NewBody(uint64(s.ids.Next()), 0, physics.Plane{}, s.material)
	s.floor.Quaternion = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{-1, 0, 0})
	s.world.AddBody(s.floor)
}

// gridCellSize is at least the largest sphere diameter, so grid
// neighbours cover every possible contact.
func gridCellSize(cfg config.Config) float64 {
	return max(8, 2*cfg.SpawnRadiusMax, 2*cfg.PlayerRadius)
}

func (s *Session) buildScene(env *render.Environment, aspect float64) {
	s.scene = render.NewScene()
	if env != nil {
		s.scene.Environment = env
		s.scene.SetBackground(env.Tint)
	}

	flat := mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0})
	lane := 2 * s.cfg.LaneHalfWidth
	floors := []struct {
		color string
		width float64
		x     float64
	}{
		{"#ffffff", lane, 0},
		{"#739bd0", lane + 2, -(lane + 2)},
		{"#739bd0", lane + 2, lane + 2},
	}
	for _, f := range floors {
		mat := render.NewMaterial(f.color, 1, 0.4)
		mat.Transparent = true
		mat.Opacity = 0.8
		m := render.NewMesh(render.PlaneGeometry{Width: f.width, Height: 10000}, mat)
		m.Position = mgl64.Vec3{f.x, 0, 0}
		m.Quaternion = flat
		m.ReceiveShadow = true
		s.scene.Add(m)
	}

	s.scene.Add(render.NewAmbientLight("#ffffff", 2.1))
	sun := render.NewDirectionalLight("#ffffff", 0.6)
	sun.Position = mgl64.Vec3{5, 5, 5}
	sun.CastShadow = true
	sun.ShadowMapSize = 1024
	s.scene.Add(sun)

	if aspect <= 0 {
		aspect = 1
	}
	r := s.cfg.PlayerRadius
	s.camera = render.NewPerspectiveCamera(cameraFOV, aspect, cameraNear, cameraFar)
	s.camera.Position = mgl64.Vec3{0, r * cameraHeight, r * cameraBehind}
	s.camera.LookAt(s.startPosition())
}

// startPosition is the canonical player start: centred, resting on the floor.
func (s *Session) startPosition() mgl64.Vec3 {
	return mgl64.Vec3{0, s.cfg.PlayerRadius, 0}
}

// spawnPlayer replaces the player with a fresh one at the start position.
func (s *Session) spawnPlayer() {
	if s.player != nil {
		if s.unsubPlayer != nil {
			s.unsubPlayer()
		}
		s.world.RemoveBody(s.player.Body)
		s.scene.Remove(s.player.Mesh)
	}

	s.player = object.NewPlayer(s.ids.Next(), s.cfg.PlayerRadius, s.startPosition(), s.material)
	s.unsubPlayer = s.player.Body.OnCollide(s.Collisions.Handle)
	s.world.AddBody(s.player.Body)
	s.scene.Add(s.player.Mesh)
}

// Start begins the first run.
func (s *Session) Start() {
	s.begin()
	s.log.Info("run started")
}

// begin cancels whatever the session still runs and starts a fresh run:
// frame loop, spawner and score accrual.
func (s *Session) begin() {
	s.tasks.CancelAll()
	s.phase = Running
	s.stats.Runs++
	s.Loop.Start()
	s.Spawner.Start()
	s.Score.Start()
}

// lose ends the run: every task stops, the score freezes and the lose
// screen is shown.
func (s *Session) lose(now time.Time) {
	s.phase = Lost
	s.tasks.CancelAll()
	s.Score.Freeze()
	s.stats.LastLoss = now
	s.ui.ShowLose()
	s.log.Info("run lost", "high", s.Score.High(), "obstacles", s.pool.Len())
}

// Stop cancels every task the session owns without touching its state.
func (s *Session) Stop() {
	s.tasks.CancelAll()
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Player returns the current player.
func (s *Session) Player() *object.Player { return s.player }

// Pool returns the live obstacles.
func (s *Session) Pool() *ObstaclePool { return s.pool }

// Input returns the held-key state read by the player controller.
func (s *Session) Input() *input.State { return s.input }

// Scene returns the scene drawn each frame.
func (s *Session) Scene() *render.Scene { return s.scene }

// Camera returns the camera trailing the player.
func (s *Session) Camera() *render.PerspectiveCamera { return s.camera }

// World returns the physics world.
func (s *Session) World() *physics.World { return s.world }

// Tasks returns the number of live tasks the session owns.
func (s *Session) Tasks() int { return s.tasks.Len() }

// Stats returns the session counters.
func (s *Session) Stats() Stats { return s.stats }

// Config returns the session's configuration.
func (s *Session) Config() config.Config { return s.cfg }
