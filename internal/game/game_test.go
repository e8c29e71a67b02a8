package game

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/rollrun/internal/audio"
	"github.com/tomz197/rollrun/internal/clock"
	"github.com/tomz197/rollrun/internal/config"
	"github.com/tomz197/rollrun/internal/errkind"
	"github.com/tomz197/rollrun/internal/input"
	"github.com/tomz197/rollrun/internal/physics"
	"github.com/tomz197/rollrun/internal/sched"
)

type fakeUI struct {
	score   int
	high    int
	shows   int
	hides   int
	visible bool
}

func (u *fakeUI) SetScore(n int)     { u.score = n }
func (u *fakeUI) SetHighScore(n int) { u.high = n }
func (u *fakeUI) ShowLose()          { u.shows++; u.visible = true }
func (u *fakeUI) HideLose()          { u.hides++; u.visible = false }

type harness struct {
	s     *Session
	clk   *clock.Mock
	sched *sched.Scheduler
	ui    *fakeUI
	sound *audio.Recorder
	start time.Time
}

func newHarness(t *testing.T, tune func(*config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	if tune != nil {
		tune(&cfg)
	}
	start := time.Unix(1_700_000_000, 0)
	h := &harness{
		clk:   clock.NewMock(start),
		ui:    &fakeUI{},
		sound: &audio.Recorder{},
		start: start,
	}
	h.sched = sched.New(h.clk)
	s, err := New(Options{
		Config:    cfg,
		Scheduler: h.sched,
		UI:        h.ui,
		Sound:     h.sound,
		Rand:      rand.New(rand.NewSource(1)),
		Aspect:    2,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.s = s
	return h
}

// runUntil pumps the scheduler every step up to and including elapsed.
func (h *harness) runUntil(elapsed, step time.Duration) {
	cur := h.clk.Now().Sub(h.start)
	for cur < elapsed {
		cur += step
		if cur > elapsed {
			cur = elapsed
		}
		now := h.start.Add(cur)
		h.clk.Set(now)
		h.sched.Pump(now)
	}
}

func noSpawns(c *config.Config) { c.SpawnBatch = 0 }

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.PlayerSpeed = -1
	_, err := New(Options{Config: cfg, Scheduler: sched.New(clock.Real{}), UI: &fakeUI{}})
	if !errors.Is(err, errkind.ErrInvalidConfiguration) {
		t.Fatalf("got %v, want an invalid configuration error", err)
	}
}

func TestObstacleExpiresWhileScoreAccrues(t *testing.T) {
	h := newHarness(t, noSpawns)
	h.s.Start()
	h.s.spawnObstacle(2.5, mgl64.Vec3{20, 2.5, -100}, h.start)
	h.sched.Pump(h.start)

	h.runUntil(7100*time.Millisecond, 10*time.Millisecond)

	if n := h.s.Pool().Len(); n != 0 {
		t.Fatalf("got %d live obstacles, want 0", n)
	}
	if n := h.s.Stats().Expired; n != 1 {
		t.Fatalf("obstacle expired %d times, want once", n)
	}
	if got := h.s.Score.Current(); got < 70 || got > 72 {
		t.Fatalf("got score %d, want about 71", got)
	}
	if h.ui.score != h.s.Score.Current() {
		t.Fatalf("UI shows %d, score is %d", h.ui.score, h.s.Score.Current())
	}
	if h.s.Phase() != Running {
		t.Fatalf("got phase %v, want running", h.s.Phase())
	}
	if len(h.s.World().Bodies()) != 2 {
		t.Fatalf("got %d bodies, want floor and player", len(h.s.World().Bodies()))
	}
}

func TestExpireRemovesExactlyOnce(t *testing.T) {
	h := newHarness(t, noSpawns)
	o := h.s.spawnObstacle(2, mgl64.Vec3{10, 2, -80}, h.start)
	ttl := h.s.Config().ObstacleTTL

	if n := h.s.Pool().Expire(h.start.Add(ttl - time.Millisecond)); n != 0 {
		t.Fatalf("expired %d obstacles before the ttl", n)
	}
	if n := h.s.Pool().Expire(h.start.Add(ttl)); n != 1 {
		t.Fatalf("expired %d obstacles at the ttl, want 1", n)
	}
	if n := h.s.Pool().Expire(h.start.Add(2 * ttl)); n != 0 {
		t.Fatalf("expired %d obstacles again", n)
	}
	if o.Body.World() != nil || h.s.Scene().Contains(o.Mesh) || o.Body.Handlers() != 0 {
		t.Fatal("expired obstacle left a body, mesh or collision handler behind")
	}
}

func TestObstacleAtPlayerLoses(t *testing.T) {
	h := newHarness(t, noSpawns)
	h.s.Start()
	h.sched.Pump(h.start)
	h.runUntil(500*time.Millisecond, 10*time.Millisecond)

	before := h.s.Score.Current()
	if before != 5 {
		t.Fatalf("got score %d before the hit, want 5", before)
	}

	// Pumped at the same frame time, so no physics substep pushes the spheres apart.
	p := h.s.Player().Body.Position
	h.s.spawnObstacle(2, mgl64.Vec3{p.X(), 2, p.Z()}, h.clk.Now())
	h.sched.Pump(h.clk.Now())

	if h.s.Phase() != Lost {
		t.Fatalf("got phase %v, want lost", h.s.Phase())
	}
	if h.ui.shows != 1 || !h.ui.visible {
		t.Fatalf("lose screen shown %d times, want once", h.ui.shows)
	}
	if h.s.Score.High() != before || h.ui.high != before {
		t.Fatalf("got high %d (UI %d), want %d", h.s.Score.High(), h.ui.high, before)
	}
	if h.s.Score.Current() != 0 {
		t.Fatalf("got current %d after losing, want 0", h.s.Score.Current())
	}
	if h.s.Score.Last() != before {
		t.Fatalf("got last %d, want the lost run's %d", h.s.Score.Last(), before)
	}
	if h.s.Tasks() != 0 || h.sched.Timers() != 0 || h.sched.FramePending() {
		t.Fatalf("tasks still live after losing: session %d, timers %d", h.s.Tasks(), h.sched.Timers())
	}

	h.runUntil(2*time.Second, 10*time.Millisecond)
	if h.ui.shows != 1 {
		t.Fatalf("lose screen shown %d times after more frames, want once", h.ui.shows)
	}
	if h.s.Score.Current() != 0 {
		t.Fatal("score kept accruing after losing")
	}

	// A shorter second run keeps the first run's high score.
	h.s.Retry()
	h.runUntil(2200*time.Millisecond, 10*time.Millisecond)
	p = h.s.Player().Body.Position
	h.s.spawnObstacle(2, mgl64.Vec3{p.X(), 2, p.Z()}, h.clk.Now())
	h.sched.Pump(h.clk.Now())
	if h.s.Phase() != Lost {
		t.Fatalf("got phase %v on the second run, want lost", h.s.Phase())
	}
	if h.s.Score.High() != before {
		t.Fatalf("got high %d, want it to stay %d", h.s.Score.High(), before)
	}
	if h.ui.shows != 2 {
		t.Fatalf("lose screen shown %d times over two runs, want 2", h.ui.shows)
	}
}

func TestHoldRightStopsAtLaneEdge(t *testing.T) {
	h := newHarness(t, noSpawns)
	h.s.Start()
	h.s.Input().KeyDown(input.ArrowRight)
	h.sched.Pump(h.start)

	h.runUntil(time.Second, 10*time.Millisecond)
	x := h.s.Player().Lateral()
	if x > 25 || math.Abs(x-25) > 1e-9 {
		t.Fatalf("got lateral %v after one second, want 25", x)
	}

	h.runUntil(2*time.Second, 10*time.Millisecond)
	if x := h.s.Player().Lateral(); x != 25 {
		t.Fatalf("got lateral %v while still holding, want exactly 25", x)
	}
}

func TestSoftClampOvershootsByOneTick(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.SpawnBatch = 0
		c.ClampMode = config.ClampSoft
	})
	h.s.Start()
	h.s.Input().KeyDown(input.KeyD)
	h.sched.Pump(h.start)

	h.runUntil(2*time.Second, 10*time.Millisecond)
	step := h.s.Config().PlayerSpeed * 0.01
	x := h.s.Player().Lateral()
	if x <= 25 || x > 25+step+1e-9 {
		t.Fatalf("got lateral %v, want within one tick (%v) past 25", x, step)
	}
}

func TestLateralNeverLeavesLane(t *testing.T) {
	h := newHarness(t, noSpawns)
	in := input.NewState()
	step := h.s.Config().PlayerSpeed / 60
	for i := 0; i < 300; i++ {
		in.Reset()
		if (i/40)%2 == 0 {
			in.KeyDown(input.ArrowLeft)
		} else {
			in.KeyDown(input.KeyD)
		}
		h.s.Controller.Apply(in, 1.0/60)
		x := h.s.Player().Lateral()
		if x < -25-step || x > 25+step {
			t.Fatalf("tick %d: lateral %v outside the lane", i, x)
		}
	}
}

func TestBothDirectionsCancel(t *testing.T) {
	h := newHarness(t, noSpawns)
	in := input.NewState()
	in.KeyDown(input.ArrowLeft)
	in.KeyDown(input.ArrowRight)
	h.s.Controller.Apply(in, 0.5)
	if x := h.s.Player().Lateral(); x != 0 {
		t.Fatalf("got lateral %v, want 0", x)
	}
}

func TestRetryRestoresStateShape(t *testing.T) {
	h := newHarness(t, nil)
	h.s.Start()
	h.s.Input().KeyDown(input.KeyA)
	h.sched.Pump(h.start)
	h.runUntil(3*time.Second, 16*time.Millisecond)

	for i := 0; i < 3; i++ {
		h.s.Retry()

		if h.s.Pool().Len() != 0 {
			t.Fatalf("retry %d: %d obstacles left", i, h.s.Pool().Len())
		}
		if h.s.Score.Current() != 0 || h.ui.score != 0 {
			t.Fatalf("retry %d: score %d (UI %d), want 0", i, h.s.Score.Current(), h.ui.score)
		}
		if h.s.Phase() != Running {
			t.Fatalf("retry %d: phase %v, want running", i, h.s.Phase())
		}
		if pos := h.s.Player().Body.Position; pos != (mgl64.Vec3{0, 1, 0}) {
			t.Fatalf("retry %d: player at %v, want the start position", i, pos)
		}
		if h.s.Input().Any(input.KeyA) {
			t.Fatalf("retry %d: input still held", i)
		}
		if got := len(h.s.World().Bodies()); got != 2 {
			t.Fatalf("retry %d: %d bodies, want floor and player", i, got)
		}
		// Frame, spawner and score accrual
		if h.s.Tasks() != 3 || h.sched.Timers() != 2 || !h.sched.FramePending() {
			t.Fatalf("retry %d: %d session tasks, %d timers", i, h.s.Tasks(), h.sched.Timers())
		}
		if h.ui.visible {
			t.Fatalf("retry %d: lose screen still visible", i)
		}
	}
}

func TestScoreStartTwiceKeepsOneTimer(t *testing.T) {
	h := newHarness(t, noSpawns)
	h.s.Score.Start()
	h.s.Score.Start()
	if h.sched.Timers() != 1 {
		t.Fatalf("got %d timers, want 1", h.sched.Timers())
	}

	now := h.start.Add(time.Second)
	h.clk.Set(now)
	h.sched.RunTimers(now)
	if got := h.s.Score.Current(); got != 10 {
		t.Fatalf("got score %d after one second, want 10", got)
	}
}

func TestStopCancelsEverything(t *testing.T) {
	h := newHarness(t, nil)
	h.s.Start()
	if h.s.Tasks() != 3 {
		t.Fatalf("got %d tasks, want 3", h.s.Tasks())
	}
	h.s.Stop()
	if h.s.Tasks() != 0 || h.sched.Timers() != 0 || h.sched.FramePending() {
		t.Fatal("tasks survived Stop")
	}
}

func TestSpawnBatch(t *testing.T) {
	h := newHarness(t, nil)
	cfg := h.s.Config()
	batch := h.s.Spawner.SpawnBatch(h.start)

	if len(batch) != cfg.SpawnBatch {
		t.Fatalf("got %d obstacles, want %d", len(batch), cfg.SpawnBatch)
	}
	for _, o := range batch {
		r := o.Body.Radius()
		pos := o.Body.Position
		switch {
		case r < 2 || r >= 3:
			t.Fatalf("radius %v outside [2, 3)", r)
		case pos.Y() != r:
			t.Fatalf("obstacle at height %v, want its radius %v", pos.Y(), r)
		case pos.X() < -25 || pos.X() >= 25:
			t.Fatalf("lateral %v outside [-25, 25)", pos.X())
		case pos.Z() > -70 || pos.Z() <= -170:
			t.Fatalf("approach %v not 70 to 170 ahead", pos.Z())
		case !o.CreatedAt.Equal(h.start):
			t.Fatalf("created at %v, want %v", o.CreatedAt, h.start)
		case !h.s.Scene().Contains(o.Mesh) || o.Body.World() == nil:
			t.Fatal("obstacle missing from the scene or the world")
		case o.Body.Handlers() != 1:
			t.Fatalf("got %d collision handlers, want 1", o.Body.Handlers())
		}
	}
	if h.s.Pool().Len() != cfg.SpawnBatch {
		t.Fatalf("pool holds %d, want %d", h.s.Pool().Len(), cfg.SpawnBatch)
	}
}

func TestSpawnerPeriod(t *testing.T) {
	h := newHarness(t, nil)
	h.s.Spawner.Start()
	period := h.s.Spawner.Period()
	if period < time.Second || period >= 1200*time.Millisecond {
		t.Fatalf("got period %v, want [1s, 1.2s)", period)
	}

	now := h.start.Add(5 * time.Second)
	h.clk.Set(now)
	h.sched.RunTimers(now)
	want := int(5*time.Second/period) * h.s.Config().SpawnBatch
	if got := h.s.Stats().Spawned; got != want {
		t.Fatalf("spawned %d obstacles, want %d", got, want)
	}

	h.s.Spawner.Start()
	if h.sched.Timers() != 1 {
		t.Fatalf("got %d timers after restarting the spawner, want 1", h.sched.Timers())
	}
}

func TestCollisionListener(t *testing.T) {
	h := newHarness(t, noSpawns)
	at := h.s.Player().Body.Position

	h.s.Collisions.Handle(physics.CollideEvent{Contact: physics.Contact{Point: at, ImpactVelocity: 1.5}})
	if len(h.sound.Plays()) != 0 {
		t.Fatal("a weak impact played a sound")
	}

	h.s.Collisions.Handle(physics.CollideEvent{Contact: physics.Contact{Point: at, ImpactVelocity: 6}})
	far := at.Add(mgl64.Vec3{0, 0, -130})
	h.s.Collisions.Handle(physics.CollideEvent{Contact: physics.Contact{Point: far, ImpactVelocity: 6}})

	plays := h.sound.Plays()
	if len(plays) != 2 || plays[0] != 1 || plays[1] != 0 {
		t.Fatalf("got plays %v, want [1 0]", plays)
	}
	if h.s.Stats().Hits != 2 {
		t.Fatalf("got %d hits, want 2", h.s.Stats().Hits)
	}
}

func TestResetKeepsRun(t *testing.T) {
	h := newHarness(t, noSpawns)
	h.s.Start()
	h.sched.Pump(h.start)
	h.runUntil(300*time.Millisecond, 10*time.Millisecond)
	h.s.spawnObstacle(2, mgl64.Vec3{15, 2, -90}, h.clk.Now())
	player := h.s.Player()

	h.s.Reset()
	if h.s.Pool().Len() != 0 {
		t.Fatal("obstacles survived Reset")
	}
	if h.s.Player() != player || h.s.Phase() != Running || h.s.Score.Current() != 3 {
		t.Fatal("Reset touched the player, the phase or the score")
	}
}

func TestCameraTrailsPlayer(t *testing.T) {
	h := newHarness(t, noSpawns)
	h.s.Start()
	h.s.Player().SetLateral(10)
	h.sched.Pump(h.start)

	cam := h.s.Camera().Position
	if cam.X() != 10 || math.Abs(cam.Z()-5.5) > 1e-9 || cam.Y() != 4 {
		t.Fatalf("camera at %v, want (10, 4, 5.5)", cam)
	}
	if h.s.Camera().Target != h.s.Player().Mesh.Position {
		t.Fatal("camera is not looking at the player")
	}
}

func TestGridFindsLargeObstaclePairs(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Broadphase = config.BroadphaseGrid
		c.SpawnRadiusMax = 5
		c.SpawnBatch = 0
	})
	if got := gridCellSize(h.s.Config()); got < 10 {
		t.Fatalf("grid cell = %v, want at least one diameter (10)", got)
	}

	m := &physics.Material{Name: "default"}
	a := physics.NewBody(1000, 1, physics.Sphere{Radius: 5}, m)
	a.Position = physics.Vec3{-1.1, 5, -20}
	b := physics.NewBody(1001, 1, physics.Sphere{Radius: 5}, m)
	b.Position = physics.Vec3{8.5, 5, -20}
	h.s.World().AddBody(a)
	h.s.World().AddBody(b)

	touched := false
	a.OnCollide(func(e physics.CollideEvent) {
		if e.Target == b {
			touched = true
		}
	})
	h.s.World().Step(1.0/60, 1.0/60, 1)
	if !touched {
		t.Fatal("overlapping obstacles 9.6 apart were not paired")
	}
}
