package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	for _, lvl := range []string{"", "debug", "INFO", "warn", "error"} {
		l, err := NewLogger(Config{Level: lvl, Format: "json"})
		require.NoError(t, err, lvl)
		l.Info("hello", String("k", "v"))
	}
}

func TestNewLogger_RejectsUnknown(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = NewLogger(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestToZapFields_KeepsEveryField(t *testing.T) {
	fields := []Field{
		String("s", "x"), Int("i", 1), Uint64("u", 2), Float64("f", 0.5),
		Bool("b", true), Duration("d", time.Second), Any("a", []int{1}), Err(errors.New("boom")),
	}
	zf := toZapFields(fields)
	require.Len(t, zf, len(fields))
	for i, f := range fields {
		assert.Equal(t, f.Key, zf[i].Key)
	}
}

func TestErr_Nil(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
}

func TestNopLogger_ChildLoggers(t *testing.T) {
	l := NewNopLogger().Named("params").With(Int("rows", 3))
	l.Warn("ignored")
	assert.NoError(t, l.Sync())
}
