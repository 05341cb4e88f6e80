package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/wtldr/internal/source"
)

func TestNewIMAPClient_DefaultsMailbox(t *testing.T) {
	c := NewIMAPClient(Config{Host: "imap.example.com", Port: "993"})
	assert.Equal(t, "INBOX", c.cfg.Mailbox)
	assert.Equal(t, "imap.example.com:993", c.Address())

	c = NewIMAPClient(Config{Mailbox: "Newsletters"})
	assert.Equal(t, "Newsletters", c.cfg.Mailbox)
}

func TestSenderCriteria(t *testing.T) {
	criteria := senderCriteria("dan@tldrnewsletter.com")
	require.Len(t, criteria.Header, 1)
	assert.Equal(t, "From", criteria.Header[0].Key)
	assert.Equal(t, "dan@tldrnewsletter.com", criteria.Header[0].Value)
}

func TestOpen_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewIMAPClient(Config{Host: "127.0.0.1", Port: "1", TLS: true})
	mb, err := c.Open(ctx)
	require.Error(t, err)
	assert.Nil(t, mb)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, source.IsAuthError(err))
}

func TestAuthError(t *testing.T) {
	err := error(&source.AuthError{Account: "me", Message: "bad password"})
	assert.True(t, source.IsAuthError(err))
	assert.Equal(t, "auth error (me): bad password", err.Error())
}

var _ source.Opener = (*IMAPClient)(nil)
var _ source.Mailbox = (*Session)(nil)
