// Package mailbox fetches unread messages over IMAP and reduces each
// one to the normalized form the extraction pipeline consumes.
package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	// Register charset decoders (windows-1252, iso-8859-*, etc.)
	_ "github.com/emersion/go-message/charset"

	"github.com/DaviCMachado/Calendar-Agendator/internal/models"
)

// Client wraps go-imap v2 for polling one inbox. Each fetch opens a
// fresh connection; nothing is kept between cycles.
type Client struct {
	logger   *slog.Logger
	addr     string
	username string
	password string
	lookback time.Duration
}

// NewClient creates an IMAP client configuration. addr is host:port
// for an implicit-TLS endpoint.
func NewClient(logger *slog.Logger, addr, username, password string, lookback time.Duration) *Client {
	return &Client{
		logger:   logger,
		addr:     addr,
		username: username,
		password: password,
		lookback: lookback,
	}
}

// FetchUnread connects, selects INBOX, searches for unseen messages
// received within the lookback window, and returns them normalized.
// Each successfully parsed message is marked \Seen so it is not picked
// up again on the next cycle. Missing credentials short-circuit with
// zero results and no connection attempt.
func (c *Client) FetchUnread(ctx context.Context) ([]models.NormalizedEmail, error) {
	if c.username == "" || c.password == "" {
		c.logger.Error("Mailbox credentials are not set, skipping fetch.")
		return nil, nil
	}

	c.logger.Info("Connecting to IMAP server.", "addr", c.addr)
	client, err := imapclient.DialTLS(c.addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", c.addr, err)
	}
	defer func() { _ = client.Logout().Wait() }()

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		return nil, fmt.Errorf("authentication failed for %s: %w", c.username, err)
	}

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	criteria := &imap.SearchCriteria{
		Since:   time.Now().Add(-c.lookback),
		NotFlag: []imap.Flag{imap.FlagSeen},
	}
	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		c.logger.Info("No new e-mails found.")
		return nil, nil
	}
	c.logger.Info("Found new e-mails.", "count", len(uids))

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), fetchOpts)
	defer fetchCmd.Close()

	var emails []models.NormalizedEmail
	var fetched []imap.UID
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			c.logger.Warn("Could not collect message, skipping it.", "error", err)
			continue
		}
		emails = append(emails, normalize(buf, bodySection))
		fetched = append(fetched, buf.UID)
	}
	if err := fetchCmd.Close(); err != nil {
		return emails, fmt.Errorf("fetching messages: %w", err)
	}

	// Mark fetched messages as seen. A failure here means the same
	// messages come back next cycle; log it, do not abort.
	if len(fetched) > 0 {
		storeCmd := client.Store(imap.UIDSetNum(fetched...), &imap.StoreFlags{
			Op:     imap.StoreFlagsAdd,
			Silent: true,
			Flags:  []imap.Flag{imap.FlagSeen},
		}, nil)
		if err := storeCmd.Close(); err != nil {
			c.logger.Warn("Could not mark messages as seen.", "error", err)
		}
	}

	return emails, nil
}

// normalize reduces a fetched message to the fields the prompt needs.
func normalize(buf *imapclient.FetchMessageBuffer, section *imap.FetchItemBodySection) models.NormalizedEmail {
	var email models.NormalizedEmail

	if buf.Envelope != nil {
		email.Subject = buf.Envelope.Subject
		if len(buf.Envelope.From) > 0 {
			email.From = buf.Envelope.From[0].Addr()
		}
		var to []string
		for _, addr := range buf.Envelope.To {
			to = append(to, addr.Addr())
		}
		email.To = strings.Join(to, ", ")
	}

	if raw := buf.FindBodySection(section); raw != nil {
		email.Body = strings.TrimSpace(extractTextBody(raw))
	}
	return email
}

// extractTextBody parses a raw RFC 2822 message and returns the first
// text/plain part. If MIME parsing fails the raw bytes are returned as
// plain text.
func extractTextBody(raw []byte) string {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if !strings.HasPrefix(contentType, "text/plain") {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		return string(body)
	}
	return ""
}
