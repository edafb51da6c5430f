package smtp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/courier/pkg/mailer"
)

func TestNew(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{name: "empty host", modify: func(c *Config) { c.Host = "" }, wantErr: ErrInvalidHost},
		{name: "zero port", modify: func(c *Config) { c.Port = 0 }, wantErr: ErrInvalidPort},
		{name: "port too large", modify: func(c *Config) { c.Port = 70000 }, wantErr: ErrInvalidPort},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tc.modify(&cfg)

			tr, err := New(cfg)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Nil(t, tr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, tr)
		})
	}

	t.Run("zero timeout falls back to default", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.Timeout = 0
		tr, err := New(cfg)
		require.NoError(t, err)
		assert.Equal(t, DefaultTimeout, tr.cfg.Timeout)
	})
}

func TestTransport_Send_InvalidRecipient(t *testing.T) {
	t.Parallel()

	tr, err := New(DefaultConfig())
	require.NoError(t, err)

	err = tr.Send(context.Background(), mailer.Credentials{Username: "a@example.com", Password: "pw"}, &mailer.Email{
		FromName:    "Alice",
		FromAddress: "a@example.com",
		To:          "not an address",
		Subject:     "Hi",
		HTML:        "<p>Hi</p>",
	})

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "compose", sendErr.Op)
	assert.Equal(t, "not an address", sendErr.Recipient)
}

func TestTransport_Send_ConnectionRefused(t *testing.T) {
	t.Parallel()

	// Reserve a port and release it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	tr, err := New(Config{Host: "127.0.0.1", Port: port, TLS: false, Timeout: time.Second})
	require.NoError(t, err)

	err = tr.Send(context.Background(), mailer.Credentials{Username: "a@example.com", Password: "pw"}, &mailer.Email{
		FromName:    "Alice",
		FromAddress: "a@example.com",
		To:          "b@example.com",
		Subject:     "Hi",
		HTML:        "<p>Hi</p>",
	})

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "deliver", sendErr.Op)
	assert.NotContains(t, err.Error(), "pw")
}
