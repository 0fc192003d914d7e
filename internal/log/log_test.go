package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf)

	e := &log.Entry{
		Level:     log.WarnLevel,
		Message:   "cache cleared",
		Timestamp: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
		Fields:    log.Fields{"removed": 2, "prefix": "products_"},
	}
	require.NoError(t, h.HandleLog(e))

	assert.Equal(t, "2025-03-04 05:06:07 W cache cleared prefix=products_ removed=2\n", buf.String())
}

func TestInitLoggerLevel(t *testing.T) {
	t.Setenv(EnvLevel, "")

	InitLogger("debug")
	assert.Equal(t, log.DebugLevel, log.Log.(*log.Logger).Level)

	InitLogger("nonsense")
	assert.Equal(t, log.InfoLevel, log.Log.(*log.Logger).Level)

	t.Setenv(EnvLevel, "error")
	InitLogger("debug")
	assert.Equal(t, log.ErrorLevel, log.Log.(*log.Logger).Level)
}
