package redis

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromOptions_DefaultsPingTimeout(t *testing.T) {
	c := NewFromOptions(Options{Addr: "127.0.0.1:1"})
	defer c.Close()

	assert.Equal(t, defaultPingTimeout, c.pingTimeout)
}

func TestClient_Ping_SelectsDB(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewFromOptions(Options{Addr: mr.Addr(), DB: 3})
	defer c.Close()

	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.rdb.Set(context.Background(), "k", "v", 0).Err())

	assert.True(t, mr.DB(3).Exists("k"), "key written to the configured db")
}

func TestClient_Ping_RequiresPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	bad := NewFromOptions(Options{Addr: mr.Addr()})
	defer bad.Close()
	assert.Error(t, bad.Ping(context.Background()))

	good := NewFromOptions(Options{Addr: mr.Addr(), Password: "s3cret"})
	defer good.Close()
	assert.NoError(t, good.Ping(context.Background()))
}

// A server that accepts but never replies must not hold Ping past its timeout.
func TestClient_Ping_BoundedByPingTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			defer c.Close()
		}
	}()

	c := NewFromOptions(Options{Addr: ln.Addr().String(), PingTimeout: 150 * time.Millisecond})
	defer c.Close()

	start := time.Now()
	require.Error(t, c.Ping(context.Background()))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_Close_Twice(t *testing.T) {
	c := NewFromOptions(Options{Addr: "127.0.0.1:1"})

	require.NoError(t, c.Close())
	assert.NotPanics(t, func() { _ = c.Close() })
}
