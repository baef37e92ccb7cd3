package asyncnet

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/asyncnet/dispatch"
)

func selfSignedConfig(t *testing.T) *tls.Config {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "asyncnet-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1)},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	return &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{der},
			PrivateKey:  key,
		}},
	}
}

func TestTLSEchoRoundtrip(t *testing.T) {
	service := dispatch.NewService(true)

	server, err := NewTLSServer(service, echoHandler{}, "127.0.0.1:0", selfSignedConfig(t), nil)
	require.NoError(t, err)
	require.NoError(t, server.Start())
	defer server.Stop()

	handler := &recordingHandler{}
	client, err := NewTLSClient(service, handler, server.ListenAddr().String(),
		&tls.Config{InsecureSkipVerify: true}, nil)
	require.NoError(t, err)

	require.True(t, client.Connect())
	waitFor(t, func() bool { return handler.handshakedCount() == 1 }, "client never handshaked")
	assert.Equal(t, 1, handler.connectedCount())
	assert.Zero(t, handler.receiveCount(), "no data may flow before the handshake")

	require.Equal(t, 3, client.Send([]byte{1, 2, 3}))
	waitFor(t, func() bool { return handler.receiveCount() >= 1 }, "echo never arrived")
	assert.Equal(t, []byte{1, 2, 3}, handler.receivedBytes())
	assert.Equal(t, uint64(3), client.Stats().BytesSent())
	assert.Equal(t, uint64(3), client.Stats().BytesReceived())
}

func TestTLSSessionRegisteredUntilTeardown(t *testing.T) {
	service := dispatch.NewService(true)

	server, err := NewTLSServer(service, echoHandler{}, "127.0.0.1:0", selfSignedConfig(t), nil)
	require.NoError(t, err)
	require.NoError(t, server.Start())
	defer server.Stop()

	handler := &recordingHandler{}
	client, err := NewTLSClient(service, handler, server.ListenAddr().String(),
		&tls.Config{InsecureSkipVerify: true}, nil)
	require.NoError(t, err)

	require.True(t, client.Connect())
	waitFor(t, func() bool { return handler.handshakedCount() == 1 }, "client never handshaked")
	waitFor(t, func() bool { return server.SessionCount() == 1 }, "session never registered")

	require.True(t, client.Disconnect(false))
	waitFor(t, func() bool { return handler.disconnectedCount() == 1 }, "client never disconnected")
	waitFor(t, func() bool { return server.SessionCount() == 0 }, "session never unregistered")
}

func TestTLSReconnectThenSend(t *testing.T) {
	service := dispatch.NewService(true)

	server, err := NewTLSServer(service, echoHandler{}, "127.0.0.1:0", selfSignedConfig(t), nil)
	require.NoError(t, err)
	require.NoError(t, server.Start())
	defer server.Stop()

	handler := &recordingHandler{}
	client, err := NewTLSClient(service, handler, server.ListenAddr().String(),
		&tls.Config{InsecureSkipVerify: true}, nil)
	require.NoError(t, err)

	require.True(t, client.Connect())
	waitFor(t, func() bool { return handler.handshakedCount() == 1 }, "client never handshaked")

	require.True(t, client.Reconnect())
	waitFor(t, func() bool { return handler.handshakedCount() == 2 }, "client never re-handshaked")

	require.Equal(t, 5, client.Send([]byte("again")))
	waitFor(t, func() bool { return handler.receiveCount() >= 1 }, "echo after reconnect never arrived")
	assert.Equal(t, []byte("again"), handler.receivedBytes())
}

func TestTLSHandshakeFailureDisconnectsClient(t *testing.T) {
	service := dispatch.NewService(true)

	// A plain TCP echo server cannot complete a TLS handshake.
	plain := startTCPEchoServer(t, service)

	handler := &recordingHandler{}
	client, err := NewTLSClient(service, handler, plain.ListenAddr().String(),
		&tls.Config{InsecureSkipVerify: true}, nil)
	require.NoError(t, err)

	require.True(t, client.Connect())
	waitFor(t, func() bool { return handler.disconnectedCount() == 1 }, "failed handshake never tore down")
	assert.Zero(t, handler.handshakedCount())
	assert.Equal(t, StateDisconnected, client.State())
}

func TestNewTLSClientRequiresConfig(t *testing.T) {
	service := dispatch.NewService(true)

	_, err := NewTLSClient(service, NopHandler{}, "127.0.0.1:443", nil, nil)
	assert.ErrorIs(t, err, ErrTLSConfigRequired)

	_, err = NewTLSServer(service, NopHandler{}, ":0", nil, nil)
	assert.ErrorIs(t, err, ErrTLSConfigRequired)
}
