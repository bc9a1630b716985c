package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/chain.go/pkg/l0/exchanger"
	"github.com/robotalks/chain.go/pkg/l0/frame"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "chain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, `
id: "0a:0b:0c:0d"
upstream: serial:///dev/ttyS0?baud=115200
downstream: tcp://10.0.0.2:7000
interval: 5ms
skip_verify: true
handler: echo
archive:
  dir: /var/lib/chain
  format: csv
  max_frames: 100
mqtt: mqtt://broker:1883/chain/
`))
	require.NoError(t, err)
	require.Equal(t, "serial:///dev/ttyS0?baud=115200", conf.Upstream)
	require.Equal(t, "tcp://10.0.0.2:7000", conf.Downstream)
	require.Equal(t, 5*time.Millisecond, conf.Interval)
	require.True(t, conf.SkipVerify)
	require.Equal(t, "echo", conf.Handler)
	require.Equal(t, ArchiveConfig{Dir: "/var/lib/chain", Format: "csv", MaxFrames: 100}, conf.Archive)
	id, err := conf.DeviceID()
	require.NoError(t, err)
	require.Equal(t, frame.ID{0x0a, 0x0b, 0x0c, 0x0d}, id)
}

func TestLoadKeepsDefaults(t *testing.T) {
	conf, err := Load(writeConfig(t, "id: \"01020304\"\n"))
	require.NoError(t, err)
	require.Equal(t, "none", conf.Upstream)
	require.Equal(t, 10*time.Millisecond, conf.Interval)
	require.Equal(t, "log", conf.Handler)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero id", func(c *Config) { c.ID = "00000000" }},
		{"bad id", func(c *Config) { c.ID = "0102" }},
		{"bad handler", func(c *Config) { c.Handler = "magic" }},
		{"negative interval", func(c *Config) { c.Interval = -time.Second }},
		{"small buffer", func(c *Config) { c.BufferSize = 4 }},
		{"bad archive format", func(c *Config) { c.Archive.Format = "xml" }},
	}
	require.NoError(t, NewConfig().Validate())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			tc.modify(conf)
			require.Error(t, conf.Validate())
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	_, err = Load(writeConfig(t, "interval: [1, 2]\n"))
	require.Error(t, err)
}

func TestNewExchangerAtBothEnds(t *testing.T) {
	conf := NewConfig()
	conf.ID = "01020304"
	conf.SkipVerify = true
	x, err := conf.NewExchanger(nil)
	require.NoError(t, err)
	require.Equal(t, frame.ID{1, 2, 3, 4}, x.ID)
	require.True(t, x.SkipVerify)
	require.Nil(t, x.Line(exchanger.Upstream))
	require.Nil(t, x.Line(exchanger.Downstream))
}

func TestOpenLineInvalidURL(t *testing.T) {
	conf := NewConfig()
	conf.Upstream = "carrier-pigeon://coop"
	_, err := conf.OpenLine(exchanger.Upstream)
	require.Error(t, err)
}
