package yamlflag_test

import (
	"flag"
	"os"
	"testing"

	"github.com/usnistgov/netifc/core/testenv"
	"github.com/usnistgov/netifc/core/yamlflag"
)

type sampleConfig struct {
	BufferPages int    `json:"bufferPages"`
	Name        string `json:"name,omitempty"`
}

func TestInline(t *testing.T) {
	assert, _ := testenv.MakeAR(t)

	var cfg sampleConfig
	var f flag.FlagSet
	f.Var(yamlflag.New(&cfg), "config", "")

	assert.NoError(f.Parse([]string{"-config", "bufferPages: 4\nname: eth0"}))
	assert.Equal(4, cfg.BufferPages)
	assert.Equal("eth0", cfg.Name)
	assert.Equal(`{"bufferPages":4,"name":"eth0"}`, f.Lookup("config").Value.String())
}

func TestFile(t *testing.T) {
	assert, require := testenv.MakeAR(t)

	filename := testenv.TempName(t, "config.yaml")
	require.NoError(os.WriteFile(filename, []byte("bufferPages: 16\n"), 0o644))

	var cfg sampleConfig
	v := yamlflag.New(&cfg)
	assert.NoError(v.Set("@" + filename))
	assert.Equal(16, cfg.BufferPages)
	assert.Same(&cfg, v.Get())

	assert.Error(v.Set("@" + filename + ".missing"))
	assert.Panics(func() { yamlflag.New(cfg) })
}
