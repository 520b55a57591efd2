package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/bassamadnan/mailtally/config"
	"github.com/bassamadnan/mailtally/logging"
	"github.com/bassamadnan/mailtally/mailbox"
	"github.com/go-kit/log/level"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	user = "me"

	unreadLabel = "UNREAD"
	// users.messages.list rejects larger pages.
	maxPageSize = 500
)

type Client struct {
	srv   *gmail.Service
	query string
}

var _ mailbox.Fetcher = (*Client)(nil)

// NewClient authorizes against Gmail with the installed-app flow. The token is
// cached in settings.TokenFile; on first use the user is asked to paste an
// authorization code.
func NewClient(ctx context.Context, settings config.GmailSettings) (*Client, error) {
	b, err := os.ReadFile(settings.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	httpClient, err := getOAuthClient(ctx, oauthConfig, settings.TokenFile)
	if err != nil {
		return nil, err
	}
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return NewClientWithService(srv, settings.Query), nil
}

// NewClientWithService wraps an already configured service.
func NewClientWithService(srv *gmail.Service, query string) *Client {
	return &Client{srv: srv, query: query}
}

func getOAuthClient(ctx context.Context, oauthConfig *oauth2.Config, tokenFile string) (*http.Client, error) {
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		tok, err = getTokenFromWeb(ctx, oauthConfig)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}
	return oauthConfig.Client(ctx, tok), nil
}

func getTokenFromWeb(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(os.Stderr, "Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)
	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	tok, err := oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	level.Info(logging.Logger).Log("component", "gmail", "msg", "saving credential file", "path", path)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to save oauth token: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("unable to save oauth token: %w", err)
	}
	return nil
}

// folderQuery builds the search for one folder, excluding drafts.
func folderQuery(folder, extra string) string {
	folder = strings.ToLower(strings.TrimSpace(folder))
	if strings.ContainsAny(folder, " \t") {
		folder = `"` + folder + `"`
	}
	q := fmt.Sprintf("in:%s -in:draft", folder)
	if extra = strings.TrimSpace(extra); extra != "" {
		q += " " + extra
	}
	return q
}

// Fetch lists the newest maxCount messages of folder and reads each one's headers.
// Any API error aborts the whole batch.
func (c *Client) Fetch(ctx context.Context, folder string, maxCount int) ([]mailbox.Message, error) {
	if maxCount <= 0 {
		return []mailbox.Message{}, nil
	}
	if maxCount > maxPageSize {
		maxCount = maxPageSize
	}
	query := folderQuery(folder, c.query)

	level.Debug(logging.Logger).Log("component", "gmail", "msg", "listing messages", "query", query, "max", maxCount)
	list, err := c.srv.Users.Messages.List(user).
		MaxResults(int64(maxCount)).
		Q(query).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve list of messages: %w", err)
	}

	messages := make([]mailbox.Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		if len(messages) == maxCount {
			break
		}
		full, err := c.srv.Users.Messages.Get(user, ref.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve message %s: %w", ref.Id, err)
		}
		messages = append(messages, parseMessage(full))
	}
	level.Info(logging.Logger).Log("component", "gmail", "msg", "fetched messages", "count", len(messages))
	return messages, nil
}

func parseMessage(msg *gmail.Message) mailbox.Message {
	m := mailbox.Message{ID: msg.Id, Read: true}
	for _, label := range msg.LabelIds {
		if label == unreadLabel {
			m.Read = false
			break
		}
	}
	if msg.Payload == nil {
		return m
	}
	for _, header := range msg.Payload.Headers {
		switch {
		case strings.EqualFold(header.Name, "From"):
			m.From = mailbox.ParseSender(header.Value)
		case strings.EqualFold(header.Name, "Subject"):
			m.Subject = header.Value
		}
	}
	return m
}
