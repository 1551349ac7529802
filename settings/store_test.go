package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"woodenfish/kv"
)

func newTestStore(t testing.TB, seed map[string]string) (*Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory(seed)
	st := NewStore(mem)
	t.Cleanup(func() { st.Close(context.Background()) })
	return st, mem
}

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) (string, error) { return "", f.err }
func (f failingKV) Set(context.Context, string, string) error   { return f.err }
func (f failingKV) Close() error                                { return nil }

func TestDefaults(t *testing.T) {
	st, _ := newTestStore(t, nil)

	got := st.Get()
	assert.Equal(t, 1.0, got.Speed)
	assert.Equal(t, 1.0, got.Volume)
	assert.Equal(t, ThemeLight, got.Theme)
	assert.False(t, got.AutoPlay)
	assert.Equal(t, time.Second, got.Interval())
}

func TestSpeedRoundTripsInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		st := NewStore(kv.NewMemory(nil))
		defer st.Close(context.Background())

		v := rapid.Float64Range(MinSpeed, MaxSpeed).Draw(rt, "speed")
		st.SetSpeed(v)
		if got := st.Get().Speed; got != v {
			rt.Fatalf("SetSpeed(%v) then Get() = %v", v, got)
		}
	})
}

func TestVolumeRoundTripsInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		st := NewStore(kv.NewMemory(nil))
		defer st.Close(context.Background())

		v := rapid.Float64Range(MinVolume, MaxVolume).Draw(rt, "volume")
		st.SetVolume(v)
		if got := st.Get().Volume; got != v {
			rt.Fatalf("SetVolume(%v) then Get() = %v", v, got)
		}
	})
}

func TestOutOfRangeValuesAreClamped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		st := NewStore(kv.NewMemory(nil))
		defer st.Close(context.Background())

		speed := rapid.Float64Range(-100, 100).Draw(rt, "speed")
		volume := rapid.Float64Range(-100, 100).Draw(rt, "volume")
		st.SetSpeed(speed)
		st.SetVolume(volume)

		got := st.Get()
		if got.Speed < MinSpeed || got.Speed > MaxSpeed {
			rt.Fatalf("speed %v escaped bounds", got.Speed)
		}
		if got.Volume < MinVolume || got.Volume > MaxVolume {
			rt.Fatalf("volume %v escaped bounds", got.Volume)
		}
		if speed > MaxSpeed && got.Speed != MaxSpeed {
			rt.Fatalf("speed %v clamped to %v, want %v", speed, got.Speed, MaxSpeed)
		}
		if volume < MinVolume && got.Volume != MinVolume {
			rt.Fatalf("volume %v clamped to %v, want %v", volume, got.Volume, MinVolume)
		}
	})
}

func TestInvalidInputsIgnored(t *testing.T) {
	st, _ := newTestStore(t, nil)
	sub := st.Subscribe()
	defer sub.Close()

	st.SetTheme("purple")
	st.SetSpeed(nan())
	st.SetVolume(nan())

	assert.Equal(t, Defaults(), st.Get())
	select {
	case c := <-sub.C():
		t.Fatalf("unexpected change %+v", c)
	default:
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestLoadVolumeFromStorage(t *testing.T) {
	st, _ := newTestStore(t, map[string]string{KeyVolume: "0.3"})

	require.NoError(t, st.Load(context.Background()))
	assert.Equal(t, 0.3, st.Get().Volume)
}

func TestLoadAllFields(t *testing.T) {
	st, _ := newTestStore(t, map[string]string{
		KeyAutoPlay: "true",
		KeySpeed:    "0.5",
		KeyVolume:   "0.8",
		KeyTheme:    "dark",
	})

	require.NoError(t, st.Load(context.Background()))
	assert.Equal(t, Settings{Speed: 0.5, Volume: 0.8, Theme: ThemeDark, AutoPlay: true}, st.Get())

	select {
	case <-st.Loaded():
	default:
		t.Fatal("Loaded not closed after Load")
	}
}

func TestLoadSkipsMalformedValues(t *testing.T) {
	st, _ := newTestStore(t, map[string]string{
		KeyAutoPlay: "1",
		KeySpeed:    "fast",
		KeyVolume:   "true",
		KeyTheme:    "sepia",
	})

	require.NoError(t, st.Load(context.Background()))
	assert.Equal(t, Defaults(), st.Get())
}

func TestLoadClampsAndAcceptsQuotedTheme(t *testing.T) {
	st, _ := newTestStore(t, map[string]string{
		KeySpeed: "10",
		KeyTheme: `"dark"`,
	})

	require.NoError(t, st.Load(context.Background()))
	assert.Equal(t, MaxSpeed, st.Get().Speed)
	assert.Equal(t, ThemeDark, st.Get().Theme)
}

func TestLoadKeepsValuesChangedBeforeIt(t *testing.T) {
	st, _ := newTestStore(t, map[string]string{KeySpeed: "2.5", KeyVolume: "0.4"})

	st.SetSpeed(0.7)
	require.NoError(t, st.Load(context.Background()))

	assert.Equal(t, 0.7, st.Get().Speed)
	assert.Equal(t, 0.4, st.Get().Volume)
}

func TestLoadReportsReadFailures(t *testing.T) {
	boom := errors.New("disk on fire")
	st := NewStore(failingKV{err: boom})
	defer st.Close(context.Background())

	err := st.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "read", perr.Op)
	assert.Equal(t, Defaults(), st.Get())
	<-st.Loaded()
}

func TestSettersWriteThrough(t *testing.T) {
	st, mem := newTestStore(t, nil)

	st.SetSpeed(0.5)
	st.SetVolume(0.25)
	st.SetTheme(ThemeDark)
	st.SetAutoPlay(true)
	require.NoError(t, st.Flush(context.Background()))

	assert.Equal(t, map[string]string{
		KeySpeed:    "0.5",
		KeyVolume:   "0.25",
		KeyTheme:    "dark",
		KeyAutoPlay: "true",
	}, mem.Snapshot())
}

func TestLatestWriteWins(t *testing.T) {
	st, mem := newTestStore(t, nil)

	for _, v := range []float64{0.2, 0.4, 0.6, 0.8, 1.2} {
		st.SetSpeed(v)
	}
	require.NoError(t, st.Flush(context.Background()))
	assert.Equal(t, "1.2", mem.Snapshot()[KeySpeed])
}

// gatedKV records the order of writes and holds them until open is closed.
type gatedKV struct {
	*kv.Memory
	open chan struct{}

	mu   sync.Mutex
	keys []string
}

func (g *gatedKV) Set(ctx context.Context, key, value string) error {
	g.mu.Lock()
	g.keys = append(g.keys, key)
	g.mu.Unlock()
	<-g.open
	return g.Memory.Set(ctx, key, value)
}

func (g *gatedKV) written() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.keys...)
}

func TestWritesFollowEnqueueOrder(t *testing.T) {
	g := &gatedKV{Memory: kv.NewMemory(nil), open: make(chan struct{})}
	st := NewStore(g)
	t.Cleanup(func() { st.Close(context.Background()) })

	st.SetSpeed(2)
	require.Eventually(t, func() bool { return len(g.written()) == 1 }, time.Second, time.Millisecond)

	st.SetTheme(ThemeDark)
	st.SetVolume(0.5)
	st.SetAutoPlay(true)
	st.SetTheme(ThemeLight)
	close(g.open)
	require.NoError(t, st.Flush(context.Background()))

	assert.Equal(t, []string{KeySpeed, KeyVolume, KeyAutoPlay, KeyTheme}, g.written())
	assert.Equal(t, "light", g.Snapshot()[KeyTheme])
}

func TestWriteFailureKeepsInMemoryValue(t *testing.T) {
	st := NewStore(failingKV{err: errors.New("read-only filesystem")})
	defer st.Close(context.Background())

	st.SetVolume(0.1)
	require.NoError(t, st.Flush(context.Background()))
	assert.Equal(t, 0.1, st.Get().Volume)
}

func TestPersistedValuesSurviveReload(t *testing.T) {
	mem := kv.NewMemory(nil)
	first := NewStore(mem)
	first.SetSpeed(2.2)
	first.SetAutoPlay(true)
	require.NoError(t, first.Close(context.Background()))

	second := NewStore(mem)
	defer second.Close(context.Background())
	require.NoError(t, second.Load(context.Background()))
	assert.Equal(t, 2.2, second.Get().Speed)
	assert.True(t, second.Get().AutoPlay)
}

func TestSubscriptionReceivesChanges(t *testing.T) {
	st, _ := newTestStore(t, nil)
	sub := st.Subscribe()

	st.SetAutoPlay(true)
	c := <-sub.C()
	assert.Equal(t, FieldAutoPlay, c.Field)
	assert.True(t, c.Settings.AutoPlay)

	sub.Close()
	st.SetVolume(0.5)
	select {
	case c := <-sub.C():
		t.Fatalf("closed subscription received %+v", c)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSlowSubscriberSeesLatest(t *testing.T) {
	st, _ := newTestStore(t, nil)
	sub := st.Subscribe()
	defer sub.Close()

	for i := 0; i < subscriptionBuffer*3; i++ {
		st.SetSpeed(MinSpeed + float64(i)*0.01)
	}
	st.SetSpeed(2.0)

	var last Change
	for len(sub.C()) > 0 {
		last = <-sub.C()
	}
	assert.Equal(t, 2.0, last.Settings.Speed)
}

func TestLoadPublishesAppliedFields(t *testing.T) {
	st, _ := newTestStore(t, map[string]string{KeyTheme: "dark"})
	sub := st.Subscribe()
	defer sub.Close()

	require.NoError(t, st.Load(context.Background()))
	c := <-sub.C()
	assert.Equal(t, FieldTheme, c.Field)
	assert.Equal(t, ThemeDark, c.Settings.Theme)
}

func TestThemeToggle(t *testing.T) {
	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())

	_, err := ParseTheme("solarized")
	assert.Error(t, err)
}

func TestInterval(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, Settings{Speed: 0.1}.Interval())
	assert.Equal(t, 2500*time.Millisecond, Settings{Speed: 2.5}.Interval())
}
