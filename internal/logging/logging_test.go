package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "debug", false)
	l.WithField("client_id", "c1").Info("payment added")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "payment added", entry["msg"])
	assert.Equal(t, "c1", entry["client_id"])
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestNewWithOutput_BadLevelFallsBackToInfo(t *testing.T) {
	l := NewWithOutput(&bytes.Buffer{}, "loud", true)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}
