package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"its-redmine/internal/setup"
)

var (
	notifyEndpoint    string
	notifyToken       string
	notifyMessage     string
	notifyMatch       string
	notifyLink        string
	notifyDescription string
	notifyAction      string
	notifyMaxElapsed  time.Duration
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Post a commit message to every Redmine issue it references",
	Long: `Extracts issue references from a commit message with the configured comment-link
pattern and posts the message as a comment on each issue through the adapter server.
Use --message - to read the message from stdin.

Comment requests are not idempotent: a request that times out on the client side may
still have been applied, so a retry can post the same comment twice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		message := notifyMessage
		if message == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading message: %w", err)
			}
			message = string(data)
		}
		if strings.TrimSpace(message) == "" {
			return errors.New("message is required")
		}
		if notifyEndpoint == "" {
			return errors.New("endpoint is required (--endpoint or ITS_ENDPOINT)")
		}

		match := notifyMatch
		if match == "" {
			if cfg, err := loadConfig(); err == nil {
				if link := cfg.CommentLink(); link != nil {
					match = link.Match
				}
			}
		}

		ids, err := setup.ExtractIssueIDs(message, match)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No issue references found.")
			return nil
		}

		n := NewNotifier(notifyEndpoint, notifyToken, logger)
		n.MaxElapsed = notifyMaxElapsed

		var failed []string
		for _, id := range ids {
			if err := n.Notify(cmd.Context(), id, message, notifyLink, notifyDescription, notifyAction); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "#%s *FAILED* (%v)\n", id, err)
				failed = append(failed, id)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%s [OK]\n", id)
		}
		if len(failed) > 0 {
			return fmt.Errorf("notifying issues %s failed", strings.Join(failed, ", "))
		}
		return nil
	},
}

func init() {
	notifyCmd.Flags().StringVar(&notifyEndpoint, "endpoint", os.Getenv("ITS_ENDPOINT"), "URL of the its-redmine server")
	notifyCmd.Flags().StringVar(&notifyToken, "token", os.Getenv("ITS_TOKEN"), "Bearer token for the its-redmine server")
	notifyCmd.Flags().StringVarP(&notifyMessage, "message", "m", "", "Commit message, or - for stdin")
	notifyCmd.Flags().StringVar(&notifyMatch, "match", "", "Issue reference regex (default: configured comment-link match)")
	notifyCmd.Flags().StringVar(&notifyLink, "link", "", "Related URL to add to each issue")
	notifyCmd.Flags().StringVar(&notifyDescription, "description", "", "Description of the related URL")
	notifyCmd.Flags().StringVar(&notifyAction, "action", "", "Status to move each issue to")
	notifyCmd.Flags().DurationVar(&notifyMaxElapsed, "max-elapsed", 30*time.Second, "Give up retrying a request after this long")
}

// Notifier posts issue operations to the adapter server, retrying transient failures with
// exponential backoff
type Notifier struct {
	Endpoint   string
	Token      string
	MaxElapsed time.Duration

	httpClient *http.Client
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// NewNotifier creates a notifier for the server at endpoint
func NewNotifier(endpoint, token string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Token:      token,
		MaxElapsed: 30 * time.Second,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
	n.newBackOff = func() backoff.BackOff {
		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = n.MaxElapsed
		return bo
	}
	return n
}

// Notify comments message on the issue, then adds the related link and performs the action when given
func (n *Notifier) Notify(ctx context.Context, issueID, message, link, description, action string) error {
	if err := n.post(ctx, issueID, "comments", map[string]string{"comment": message}); err != nil {
		return err
	}
	if link != "" {
		body := map[string]string{"url": link, "description": description}
		if err := n.post(ctx, issueID, "links", body); err != nil {
			return err
		}
	}
	if action != "" {
		if err := n.post(ctx, issueID, "actions", map[string]string{"action": action}); err != nil {
			return err
		}
	}
	return nil
}

// post sends one request. Transport failures and 5xx responses other than 502 are retried.
// A 502 carries the server's exhausted retry budget and fails at once like other non-2xx responses.
func (n *Notifier) post(ctx context.Context, issueID, resource string, payload interface{}) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling payload: %w", err)
	}
	target := n.Endpoint + "/issues/" + url.PathEscape(issueID) + "/" + resource

	attempt := 0
	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(jsonPayload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("error creating request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		if n.Token != "" {
			req.Header.Set("Authorization", "Bearer "+n.Token)
		}

		resp, err := n.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("error sending request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := fmt.Errorf("received non-success status code: %d (%s)", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= 500 && resp.StatusCode != http.StatusBadGateway {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	notify := func(err error, next time.Duration) {
		n.logger.Debug("Request failed - retrying", "url", target, "attempt", attempt, "next_in", next, "error", err)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(n.newBackOff(), ctx), notify); err != nil {
		return err
	}
	n.logger.Debug("Request sent", "url", target, "attempts", attempt)
	return nil
}
