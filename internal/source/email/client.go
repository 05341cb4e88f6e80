package email

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/wtldr/internal/source"
)

// IMAPClient wraps go-imap v2 for connecting to an IMAP server.
type IMAPClient struct {
	cfg Config
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(cfg Config) *IMAPClient {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	return &IMAPClient{cfg: cfg}
}

// Address returns the host:port the client dials.
func (c *IMAPClient) Address() string {
	return c.cfg.Host + ":" + c.cfg.Port
}

// Connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout/Close on the returned client.
func (c *IMAPClient) Connect(ctx context.Context) (*imapclient.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addr := c.Address()

	var client *imapclient.Client
	var err error

	if c.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.cfg.Username, c.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		_ = client.Close()
		return nil, &source.AuthError{
			Account: c.cfg.Username,
			Message: fmt.Sprintf("login to %s failed: %v", addr, err),
		}
	}

	return client, nil
}

// Open connects and selects the configured mailbox.
func (c *IMAPClient) Open(ctx context.Context) (source.Mailbox, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := client.Select(c.cfg.Mailbox, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		_ = client.Close()
		return nil, fmt.Errorf("selecting %s: %w", c.cfg.Mailbox, err)
	}

	return &Session{client: client, mailbox: c.cfg.Mailbox}, nil
}

// Session is an authenticated IMAP connection with a selected mailbox.
type Session struct {
	client  *imapclient.Client
	mailbox string
}

// SenderUIDs searches the selected mailbox for messages from sender.
func (s *Session) SenderUIDs(ctx context.Context, sender string) ([]uint32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchData, err := s.client.UIDSearch(senderCriteria(sender), nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching %s for %s: %w", s.mailbox, sender, err)
	}

	uids := searchData.AllUIDs()
	out := make([]uint32, 0, len(uids))
	for _, uid := range uids {
		out = append(out, uint32(uid))
	}
	return out, nil
}

// FetchRaw fetches the full message for uid with BODY.PEEK[], leaving the
// \Seen flag alone.
func (s *Session) FetchRaw(ctx context.Context, uid uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := s.client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message UID %d not found", uid)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message %d: %w", uid, err)
	}

	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return nil, fmt.Errorf("message UID %d has no body", uid)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("closing fetch of %d: %w", uid, err)
	}

	return raw, nil
}

// Archive moves the message to the first archive folder the server
// accepts, falling back to marking it deleted.
func (s *Session) Archive(ctx context.Context, uid uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	uidSet := imap.UIDSetNum(imap.UID(uid))

	for _, folder := range archiveFolders {
		if folder == s.mailbox {
			continue
		}
		moveCmd := s.client.Move(uidSet, folder)
		if _, err := moveCmd.Wait(); err == nil {
			return nil
		}
	}

	// Fallback: mark as deleted
	storeCmd := s.client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil)

	if err := storeCmd.Close(); err != nil {
		return fmt.Errorf("archiving message %d: %w", uid, err)
	}
	return nil
}

// Close logs out and closes the connection.
func (s *Session) Close() error {
	logoutErr := s.client.Logout().Wait()
	if err := s.client.Close(); err != nil && logoutErr == nil {
		return fmt.Errorf("closing IMAP connection: %w", err)
	}
	if logoutErr != nil {
		return fmt.Errorf("logging out: %w", logoutErr)
	}
	return nil
}

// senderCriteria matches messages whose From header contains sender.
func senderCriteria(sender string) *imap.SearchCriteria {
	return &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "From", Value: sender},
		},
	}
}
