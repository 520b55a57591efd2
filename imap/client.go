// Package imap fetches a batch of messages from any IMAP server over TLS.
package imap

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/bassamadnan/mailtally/config"
	"github.com/bassamadnan/mailtally/logging"
	"github.com/bassamadnan/mailtally/mailbox"
	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/go-kit/log/level"
)

const dialTimeout = 30 * time.Second

// session is the part of *client.Client a fetch uses.
type session interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
	Terminate() error
}

type Client struct {
	settings config.IMAPSettings
	dial     func(addr string) (session, error)
}

var _ mailbox.Fetcher = (*Client)(nil)

func NewClient(settings config.IMAPSettings) *Client {
	return &Client{settings: settings, dial: dialTLS}
}

func dialTLS(addr string) (session, error) {
	c, err := client.DialWithDialerTLS(&net.Dialer{Timeout: dialTimeout}, addr, nil)
	if err != nil {
		return nil, err
	}
	c.Timeout = dialTimeout
	return c, nil
}

func (c *Client) addr() string {
	return net.JoinHostPort(c.settings.Host, strconv.Itoa(c.settings.Port))
}

// Fetch opens folder read-only and returns its newest maxCount messages,
// newest first. Cancelling ctx drops the connection.
func (c *Client) Fetch(ctx context.Context, folder string, maxCount int) ([]mailbox.Message, error) {
	if maxCount <= 0 {
		return []mailbox.Message{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addr := c.addr()
	s, err := c.dial(addr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s: %w", addr, err)
	}
	defer s.Logout()
	stop := context.AfterFunc(ctx, func() { s.Terminate() })
	defer stop()

	if err := s.Login(c.settings.Username, c.settings.Password); err != nil {
		return nil, fmt.Errorf("unable to log in to %s: %w", addr, err)
	}
	status, err := s.Select(folder, true)
	if err != nil {
		return nil, fmt.Errorf("unable to select folder %s: %w", folder, err)
	}
	seqset, ok := newestRange(status.Messages, maxCount)
	if !ok {
		level.Info(logging.Logger).Log("component", "imap", "msg", "folder is empty", "folder", folder)
		return []mailbox.Message{}, nil
	}

	ch := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- s.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid}, ch)
	}()

	fetched := make([]*imap.Message, 0, maxCount)
	for m := range ch {
		fetched = append(fetched, m)
	}
	if err := <-done; err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("unable to fetch messages from %s: %w", folder, err)
	}

	sort.Slice(fetched, func(i, j int) bool { return fetched[i].SeqNum > fetched[j].SeqNum })
	messages := make([]mailbox.Message, 0, len(fetched))
	for _, m := range fetched {
		messages = append(messages, convert(m))
	}
	level.Info(logging.Logger).Log("component", "imap", "msg", "fetched messages", "count", len(messages))
	return messages, nil
}

// newestRange returns the sequence set of the last maxCount of total messages.
func newestRange(total uint32, maxCount int) (*imap.SeqSet, bool) {
	if total == 0 || maxCount <= 0 {
		return nil, false
	}
	from := uint32(1)
	if total > uint32(maxCount) {
		from = total - uint32(maxCount) + 1
	}
	seqset := new(imap.SeqSet)
	seqset.AddRange(from, total)
	return seqset, true
}

func convert(m *imap.Message) mailbox.Message {
	msg := mailbox.Message{ID: strconv.FormatUint(uint64(m.Uid), 10)}
	for _, flag := range m.Flags {
		if flag == imap.SeenFlag {
			msg.Read = true
			break
		}
	}
	if m.Envelope == nil {
		return msg
	}
	msg.Subject = m.Envelope.Subject
	for _, addr := range m.Envelope.From {
		if addr == nil || addr.MailboxName == "" || addr.HostName == "" {
			continue
		}
		msg.From = mailbox.ParseSender(addr.MailboxName + "@" + addr.HostName)
		break
	}
	return msg
}
