package services

import (
	"net"
	"testing"

	"github.com/steelsid0609/training-rcf/internal/config"
	"github.com/steelsid0609/training-rcf/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizerInitRetriesAfterOutage(t *testing.T) {
	// reserve a free port, then release it so the first ping is refused
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	a := NewAuthorizer(&config.Config{
		AuthzURL:      "http://" + addr,
		AuthzClientID: "client-1",
	}, logging.Discard())

	err = a.Init("https", "rcf.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorizer ping failed")
	assert.False(t, a.Initialized())

	_, err = a.ValidateSession("cookie", []string{"student"})
	assert.EqualError(t, err, "authorizer client not initialized")

	ln, err = net.Listen("tcp", addr)
	require.NoError(t, err)
	defer ln.Close()

	require.NoError(t, a.Init("https", "rcf.example.com"))
	assert.True(t, a.Initialized())

	// once up, later calls do not ping again
	require.NoError(t, ln.Close())
	assert.NoError(t, a.Init("https", "rcf.example.com"))
}

func TestAuthorizerInitNeedsClientID(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	a := NewAuthorizer(&config.Config{AuthzURL: "http://" + ln.Addr().String()}, logging.Discard())
	err = a.Init("https", "rcf.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create authorizer client")
	assert.False(t, a.Initialized())
}
