package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huoshan017/sronet/common"
	"github.com/huoshan017/sronet/msg/codec"
	"github.com/huoshan017/sronet/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("address: 127.0.0.1:9000\ncodec: json\noptions: [checksum, key-exchange]\nread_timeout: 30s\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Address)
	assert.Equal(t, "json", cfg.Codec)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 10, cfg.Count)

	o, err := cfg.ProtocolOption()
	require.NoError(t, err)
	assert.Equal(t, protocol.OptionChecksum|protocol.OptionKeyExchange, o)

	cfg.Options = []string{"magic"}
	_, err = cfg.ProtocolOption()
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultConfigOption(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	o, err := cfg.ProtocolOption()
	require.NoError(t, err)
	assert.Equal(t, protocol.OptionDefault, o)
}

func freeAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().String()
}

func TestEchoRoundTrip(t *testing.T) {
	for _, name := range []string{"json", "snappy+msgpack"} {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Address = freeAddr(t)
			cfg.Count = 3
			mc, err := codec.ByName(name)
			require.NoError(t, err)
			option, err := cfg.ProtocolOption()
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- runServer(ctx, cfg, mc, common.WithProtocolOption(option)) }()
			defer func() {
				cancel()
				assert.NoError(t, <-done)
			}()

			cctx, ccancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer ccancel()
			// the server may still be binding
			var clientErr error
			for cctx.Err() == nil {
				if clientErr = runClient(cctx, cfg, mc); clientErr == nil {
					break
				}
				time.Sleep(50 * time.Millisecond)
			}
			assert.NoError(t, clientErr)
		})
	}
}
