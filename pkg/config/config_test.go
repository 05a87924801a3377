package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)

	assert.Equal(t, defaultMappingStoreType, c.MappingStore.Type)
	assert.NotContains(t, c.MappingStore.Dir, "~")
	assert.Equal(t, defaultDeviceType, c.Device.Type)
	assert.Equal(t, 5*time.Second, c.Device.ReplyTimeout)
	assert.Equal(t, defaultReadWorkers, c.Read.Workers)
	assert.True(t, c.Write.IsAutoRevert())
	assert.Equal(t, defaultCandidateTimeout, c.Transaction.CandidateTimeout)
	require.Len(t, c.Naming.Contexts, 1)
	assert.Equal(t, "interface-context", c.Naming.Contexts[0].Name)
	assert.Nil(t, c.Prometheus)
}

func TestNew_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	content := `
mapping-store:
  type: memory
device:
  reply-timeout: 2s
read:
  workers: 2
write:
  auto-revert: false
naming:
  contexts:
    - name: interface-context
    - name: bridge-domain-context
      artificial-prefix: bd
  multi-contexts:
    - name: subinterface-context
      start-index: 1
prometheus:
  address: ":9090"
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	c, err := New(file)
	require.NoError(t, err)
	assert.Equal(t, "memory", c.MappingStore.Type)
	assert.Empty(t, c.MappingStore.Dir)
	assert.Equal(t, 2*time.Second, c.Device.ReplyTimeout)
	assert.Equal(t, defaultDeviceQueueSize, c.Device.QueueSize)
	assert.Equal(t, 2, c.Read.Workers)
	assert.False(t, c.Write.IsAutoRevert())
	require.Len(t, c.Naming.Contexts, 2)
	assert.Equal(t, defaultArtificialPrefix, c.Naming.Contexts[0].ArtificialPrefix)
	assert.Equal(t, "bd", c.Naming.Contexts[1].ArtificialPrefix)
	require.Len(t, c.Naming.MultiContexts, 1)
	assert.Equal(t, &MultiNamingContext{Name: "subinterface-context", StartIndex: 1}, c.Naming.MultiContexts[0])
	assert.Equal(t, ":9090", c.Prometheus.Address)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "unknown store",
			content: "mapping-store:\n  type: etcd\n",
		},
		{
			name:    "unknown device",
			content: "device:\n  type: vpp\n",
		},
		{
			name:    "duplicate naming context",
			content: "naming:\n  contexts:\n    - name: a\n    - name: a\n",
		},
		{
			name:    "multi naming context reusing a name",
			content: "naming:\n  contexts:\n    - name: a\n  multi-contexts:\n    - name: a\n",
		},
		{
			name:    "prometheus without address",
			content: "prometheus: {}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(file, []byte(tt.content), 0o600))
			_, err := New(file)
			assert.Error(t, err)
		})
	}
}
