package radio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/sendfsk/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func testTuning(n int) Tuning {
	return Tuning{
		Frequency:  433920000,
		SymbolRate: 1000,
		Deviation:  15000,
		Channel:    14,
		BufferSize: n,
	}
}

func Test_OpenUnknownDriver(t *testing.T) {
	conf := config.Default()
	conf.Radio.Driver = "rpitx"

	_, err := Open(conf, testTuning(3), quietLogger())
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func Test_OpenDummy(t *testing.T) {
	conf := config.Default()
	conf.Radio.Driver = "Dummy"

	b, err := Open(conf, testTuning(3), quietLogger())
	require.NoError(t, err)
	require.IsType(t, &Dummy{}, b)

	d := b.(*Dummy)
	d.sleep = func(time.Duration) {}
	require.NoError(t, d.SetSymbols([]byte{1, 0, 1}))
	assert.Equal(t, 1, d.Sent)

	require.NoError(t, d.Stop())
	require.NoError(t, d.Stop())
	assert.ErrorIs(t, d.SetSymbols([]byte{1}), ErrStopped)
}

func Test_SessionBufferSize(t *testing.T) {
	d := NewDummy(testTuning(2), quietLogger())
	d.sleep = func(time.Duration) {}

	assert.ErrorIs(t, d.SetSymbols([]byte{1, 0, 1}), ErrBufferSize)
	assert.NoError(t, d.SetSymbols([]byte{1, 0}))
	assert.NoError(t, d.SetSymbols(nil))
	assert.Equal(t, 2, d.Sent)
}

func Test_DummyBlocksForAirtime(t *testing.T) {
	d := NewDummy(testTuning(16), quietLogger())
	var slept time.Duration
	d.sleep = func(dur time.Duration) { slept += dur }

	require.NoError(t, d.SetSymbols(make([]byte, 16)))
	assert.Equal(t, 16*time.Millisecond, slept)
}

func Test_IQFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burst.cf32")
	conf := config.Default()
	conf.Radio.Driver = "iqfile"
	conf.Radio.SampleRate = 48000
	conf.Radio.Filter = false
	conf.IQFile.Path = path

	b, err := Open(conf, testTuning(3), quietLogger())
	require.NoError(t, err)

	symbols := []byte{1, 0, 1}
	require.NoError(t, b.SetSymbols(symbols))
	require.NoError(t, b.SetSymbols(symbols))
	require.NoError(t, b.Stop())
	assert.ErrorIs(t, b.SetSymbols(symbols), ErrStopped)

	mod, err := newModulator(conf.Radio, testTuning(3))
	require.NoError(t, err)
	want := mod.Modulate(symbols)
	require.Len(t, want, 144)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 2*len(want)*8)

	got := make([]complex64, 2*len(want))
	require.NoError(t, binary.Read(bytes.NewReader(raw), binary.LittleEndian, got))
	assert.Equal(t, want, got[:len(want)])
	assert.Equal(t, want, got[len(want):])
}

func Test_IQFileBadModulator(t *testing.T) {
	conf := config.Default()
	conf.Radio.SampleRate = 20000
	conf.IQFile.Path = filepath.Join(t.TempDir(), "burst.cf32")

	// 15 kHz deviation does not fit in 20 kS/s
	_, err := NewIQFile(conf.IQFile.Path, conf.Radio, testTuning(3), quietLogger())
	assert.Error(t, err)
	assert.NoFileExists(t, conf.IQFile.Path)
}

type fakeLine struct {
	values []int
	closed bool
	err    error
}

func (l *fakeLine) SetValue(value int) error {
	if l.err != nil {
		return l.err
	}
	l.values = append(l.values, value)
	return nil
}

func (l *fakeLine) Close() error {
	l.closed = true
	return nil
}

func Test_GPIOKeying(t *testing.T) {
	line := &fakeLine{}
	g := newGPIO(line, testTuning(8), quietLogger())
	g.sleep = func(time.Duration) {}

	require.NoError(t, g.SetSymbols([]byte{1, 0, 1, 1, 0}))
	assert.Equal(t, []int{1, 0, 1, 1, 0, 0}, line.values)

	require.NoError(t, g.Stop())
	require.NoError(t, g.Stop())
	assert.True(t, line.closed)
	assert.ErrorIs(t, g.SetSymbols([]byte{1}), ErrStopped)
}

func Test_GPIOKeyingError(t *testing.T) {
	line := &fakeLine{err: errors.New("line gone")}
	g := newGPIO(line, testTuning(8), quietLogger())
	g.sleep = func(time.Duration) {}

	assert.ErrorContains(t, g.SetSymbols([]byte{1}), "line gone")
}

func Test_OpenFailureReturnsNilBurst(t *testing.T) {
	conf := config.Default()
	conf.Radio.Driver = "iqfile"
	conf.IQFile.Path = filepath.Join(t.TempDir(), "missing", "burst.cf32")

	b, err := Open(conf, testTuning(3), quietLogger())
	require.Error(t, err)
	assert.True(t, b == nil, "expected an untyped nil Burst, got %#v", b)

	conf.Radio.Driver = "nope"
	b, err = Open(conf, testTuning(3), quietLogger())
	require.ErrorIs(t, err, ErrUnknownDriver)
	assert.True(t, b == nil)
}

type chunkRecorder struct {
	chunks [][]complex64
	ends   []bool
	limit  int
}

func (r *chunkRecorder) write(samples []complex64, endBurst bool) (int, error) {
	n := len(samples)
	if r.limit > 0 {
		n = min(n, r.limit)
	}
	r.chunks = append(r.chunks, append([]complex64(nil), samples[:n]...))
	r.ends = append(r.ends, endBurst)
	return n, nil
}

func ramp(n int) []complex64 {
	iq := make([]complex64, n)
	for i := range iq {
		iq[i] = complex(float32(i), 0)
	}
	return iq
}

func Test_writeBurstChunks(t *testing.T) {
	iq := ramp(10)
	r := &chunkRecorder{}

	require.NoError(t, writeBurst(iq, 4, r.write))
	assert.Equal(t, [][]complex64{iq[:4], iq[4:8], iq[8:]}, r.chunks)
	assert.Equal(t, []bool{false, false, true}, r.ends)
}

func Test_writeBurstShortWrites(t *testing.T) {
	iq := ramp(7)
	r := &chunkRecorder{limit: 3}

	require.NoError(t, writeBurst(iq, 5, r.write))
	var got []complex64
	for _, c := range r.chunks {
		got = append(got, c...)
	}
	assert.Equal(t, iq, got)
	assert.True(t, r.ends[len(r.ends)-1])
}

func Test_writeBurstErrors(t *testing.T) {
	err := writeBurst(ramp(3), 4, func([]complex64, bool) (int, error) {
		return 0, errors.New("underflow")
	})
	assert.ErrorContains(t, err, "underflow")

	err = writeBurst(ramp(3), 4, func([]complex64, bool) (int, error) {
		return 0, nil
	})
	assert.ErrorContains(t, err, "no samples")

	assert.NoError(t, writeBurst(nil, 4, func([]complex64, bool) (int, error) {
		t.Error("nothing to write")
		return 0, nil
	}))
}

func Test_iqCache(t *testing.T) {
	conf := config.Default()
	conf.Radio.SampleRate = 48000
	conf.Radio.Filter = false
	mod, err := newModulator(conf.Radio, testTuning(4))
	require.NoError(t, err)

	var cache iqCache
	symbols := []byte{1, 0, 1}
	first := cache.modulate(mod, symbols)
	again := cache.modulate(mod, symbols)
	require.NotEmpty(t, first)
	assert.Same(t, &first[0], &again[0])

	// the cache keeps its own copy of the symbols
	symbols[0] = 0
	changed := cache.modulate(mod, symbols)
	assert.NotSame(t, &first[0], &changed[0])
	assert.Equal(t, mod.Modulate([]byte{0, 0, 1}), changed)
}
