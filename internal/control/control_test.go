package control

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/orbitscene/pkg/math"
)

// target records what the default controls drive.
type target struct {
	mu        sync.Mutex
	diffuse   map[string]math.Vec4
	missing   map[string]bool
	shininess float32
	distance  float32
}

func newTarget() *target { return &target{diffuse: make(map[string]math.Vec4)} }

func (t *target) SetDiffuse(alias string, c math.Vec4) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.missing[alias] {
		return errors.New("not published")
	}
	t.diffuse[alias] = c
	return nil
}

func (t *target) SetShininess(v float32) {
	t.mu.Lock()
	t.shininess = v
	t.mu.Unlock()
}

func (t *target) SetDistance(d float32) {
	t.mu.Lock()
	t.distance = d
	t.mu.Unlock()
}

func (t *target) Distance() float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.distance
}

func TestDefaults(t *testing.T) {
	p := NewPanel(Defaults(newTarget(), 200, -70)...)
	assert.Equal(t, []string{TopColor, PlaneColor, Shininess, Distance}, p.Names())

	c, ok := p.Get(TopColor)
	require.True(t, ok)
	assert.True(t, c.Color)
	assert.Equal(t, [3]float32{235, 0, 210}, c.Value)

	d, _ := p.Get(Distance)
	assert.Equal(t, float32(-70), d.Scalar())
	assert.Equal(t, float32(-200), d.Min)
	assert.Equal(t, float32(-50), d.Max)
}

func TestSetColorDrivesDiffuse(t *testing.T) {
	tg := newTarget()
	p := NewPanel(Defaults(tg, 200, -70)...)

	require.NoError(t, p.SetColor(TopColor, [3]float32{255, 0, 300}))
	got := tg.diffuse["cone"]
	assert.Equal(t, math.Vec4{1, 0, 1, 1}, got, "channels clamp to 255")

	require.NoError(t, p.SetColor(PlaneColor, [3]float32{0, 51, 0}))
	assert.InDelta(t, 0.2, tg.diffuse["cylinder6"][1], 1e-6)
}

func TestSetScalarClampsAndSnaps(t *testing.T) {
	tg := newTarget()
	p := NewPanel(Defaults(tg, 200, -70)...)

	require.NoError(t, p.SetScalar(Shininess, 12.34))
	assert.InDelta(t, 12.3, tg.shininess, 1e-4)

	require.NoError(t, p.SetScalar(Shininess, 500))
	assert.Equal(t, float32(50), tg.shininess)

	require.NoError(t, p.SetScalar(Distance, -1000))
	assert.Equal(t, float32(-200), tg.Distance())
}

func TestNudge(t *testing.T) {
	tg := newTarget()
	p := NewPanel(Defaults(tg, 200, -70)...)

	require.NoError(t, p.Nudge(Distance, 10))
	assert.InDelta(t, -69, tg.Distance(), 1e-4)

	require.NoError(t, p.Nudge(Distance, 1000))
	assert.Equal(t, float32(-50), tg.Distance())
}

func TestSetErrors(t *testing.T) {
	p := NewPanel(Defaults(newTarget(), 200, -70)...)

	assert.ErrorIs(t, p.SetScalar("Gamma", 1), ErrUnknownControl)
	assert.Error(t, p.SetScalar(TopColor, 1), "color control needs a color")
	assert.Error(t, p.SetColor(Shininess, [3]float32{}), "scalar control needs a scalar")
}

func TestApply(t *testing.T) {
	tg := newTarget()
	p := NewPanel(Defaults(tg, 200, -70)...)

	err := p.Apply([]byte(`
Top Color: [10, 20, 30]
Shininess: 25
Distance: -150
`))
	require.NoError(t, err)
	assert.Equal(t, float32(25), tg.shininess)
	assert.Equal(t, float32(-150), tg.Distance())
	assert.InDelta(t, 10.0/255, tg.diffuse["cone"][0], 1e-6)
	_, planeTouched := tg.diffuse["cylinder6"]
	assert.False(t, planeTouched, "controls missing from the file are left alone")
}

func TestApplyRetriesRejectedValues(t *testing.T) {
	tg := newTarget()
	tg.missing = map[string]bool{"cone": true}
	p := NewPanel(Defaults(tg, 200, -70)...)
	doc := []byte("Top Color: [10, 20, 30]\n")

	require.Error(t, p.Apply(doc))
	c, _ := p.Get(TopColor)
	assert.Equal(t, [3]float32{235, 0, 210}, c.Value, "rejected value is rolled back")

	tg.mu.Lock()
	tg.missing = nil
	tg.mu.Unlock()

	require.NoError(t, p.Apply(doc))
	c, _ = p.Get(TopColor)
	assert.Equal(t, [3]float32{10, 20, 30}, c.Value)
	assert.InDelta(t, 20.0/255, tg.diffuse["cone"][1], 1e-6)
}

func TestApplyReportsBadEntries(t *testing.T) {
	tg := newTarget()
	p := NewPanel(Defaults(tg, 200, -70)...)

	err := p.Apply([]byte(`
Gamma: 2
Shininess: shiny
Distance: -100
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownControl)
	assert.Contains(t, err.Error(), "Shininess")
	assert.Equal(t, float32(-100), tg.Distance(), "valid entries still apply")

	assert.Error(t, p.Apply([]byte("not: [valid")))
}

func TestWatch(t *testing.T) {
	tg := newTarget()
	p := NewPanel(Defaults(tg, 200, -70)...)

	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Distance: -80\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx, path, ready) }()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never armed")
	}
	assert.Equal(t, float32(-80), tg.Distance(), "file applied on start")

	require.NoError(t, os.WriteFile(path, []byte("Distance: -120\n"), 0644))
	assert.Eventually(t, func() bool { return tg.Distance() == -120 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

type lightTarget struct{ pos math.Vec3 }

func (l *lightTarget) LightPosition() math.Vec3     { return l.pos }
func (l *lightTarget) SetLightPosition(p math.Vec3) { l.pos = p }

func TestLightControlsMoveOneAxis(t *testing.T) {
	lt := &lightTarget{pos: math.Vec3{X: -50, Y: 50, Z: -14}}
	p := NewPanel(LightControls(lt, lt.pos)...)
	assert.Equal(t, []string{LightX, LightY, LightZ}, p.Names())

	require.NoError(t, p.SetScalar(LightY, 20))
	assert.Equal(t, math.Vec3{X: -50, Y: 20, Z: -14}, lt.pos)

	require.NoError(t, p.SetScalar(LightZ, 500))
	assert.Equal(t, math.Vec3{X: -50, Y: 20, Z: 100}, lt.pos)
}
