package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/teemow/inboxalert/internal/logging"
)

// DefaultBinary is the signal-cli executable looked up in PATH.
const DefaultBinary = "signal-cli"

// Runner executes signal-cli with args and returns its output.
type Runner func(ctx context.Context, args ...string) (stdout, stderr string, err error)

// Client provides access to Signal messaging operations via signal-cli
type Client struct {
	userID string // The phone number registered with signal-cli (e.g., "+15551234567")
	run    Runner
	logger logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRunner replaces the signal-cli process runner.
func WithRunner(r Runner) Option {
	return func(c *Client) {
		c.run = r
	}
}

// WithLogger sets the logger for signal-cli invocations.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a new Signal client for the specified phone number.
// The phone number must be already registered with signal-cli.
func NewClient(userID string, opts ...Option) (*Client, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}

	// Validate that the phone number starts with + (required by signal-cli)
	if !strings.HasPrefix(userID, "+") {
		return nil, fmt.Errorf("userID must be a phone number starting with + (e.g., +15551234567)")
	}

	c := &Client{
		userID: userID,
		logger: logging.NewSlogAdapter(nil),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.run == nil {
		// Verify signal-cli is installed by checking if the command exists
		path, err := exec.LookPath(DefaultBinary)
		if err != nil {
			return nil, &SignalError{
				Op:     "initialize",
				UserID: userID,
				Err:    fmt.Errorf("signal-cli not found in PATH. Please install signal-cli: https://github.com/AsamK/signal-cli"),
			}
		}
		c.run = ExecRunner(path)
	}

	return c, nil
}

// ExecRunner runs the signal-cli binary at path.
func ExecRunner(path string) Runner {
	return func(ctx context.Context, args ...string) (string, string, error) {
		cmd := exec.CommandContext(ctx, path, args...)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err := cmd.Run()

		return stdout.String(), stderr.String(), err
	}
}

// UserID returns the phone number associated with this client
func (c *Client) UserID() string {
	return c.userID
}

// SendMessage sends a text message to a Signal user
func (c *Client) SendMessage(ctx context.Context, recipient, message string) error {
	if recipient == "" {
		return c.fail("send", fmt.Errorf("recipient cannot be empty"))
	}
	if message == "" {
		return c.fail("send", fmt.Errorf("message cannot be empty"))
	}
	if !strings.HasPrefix(recipient, "+") {
		return c.fail("send", fmt.Errorf("recipient must be a phone number starting with + (e.g., +15551234567)"))
	}

	// signal-cli -u USER_ID send RECIPIENT -m MESSAGE
	_, stderr, err := c.exec(ctx, "send", "-u", c.userID, "send", recipient, "-m", message)
	if err != nil {
		return c.fail("send", fmt.Errorf("failed to send message: %w (stderr: %s)", err, strings.TrimSpace(stderr)))
	}

	return nil
}

// SendGroupMessage sends a text message to a Signal group, addressed by
// name or by id.
func (c *Client) SendGroupMessage(ctx context.Context, group, message string) error {
	if group == "" {
		return c.fail("sendGroup", fmt.Errorf("group cannot be empty"))
	}
	if message == "" {
		return c.fail("sendGroup", fmt.Errorf("message cannot be empty"))
	}

	// Verify the group exists before attempting to send
	groupID, err := c.groupID(ctx, group)
	if err != nil {
		return c.fail("sendGroup", fmt.Errorf("group not found: %w", err))
	}

	// signal-cli -u USER_ID send -g GROUP_ID -m MESSAGE
	_, stderr, err := c.exec(ctx, "sendGroup", "-u", c.userID, "send", "-g", groupID, "-m", message)
	if err != nil {
		return c.fail("sendGroup", fmt.Errorf("failed to send group message: %w (stderr: %s)", err, strings.TrimSpace(stderr)))
	}

	return nil
}

// ListGroups returns the groups the user is a member of
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	// signal-cli -o json -u USER_ID listGroups
	stdout, stderr, err := c.exec(ctx, "listGroups", "-o", "json", "-u", c.userID, "listGroups")
	if err != nil {
		return nil, c.fail("listGroups", fmt.Errorf("failed to list groups: %w (stderr: %s)", err, strings.TrimSpace(stderr)))
	}

	groups := []Group{}
	if strings.TrimSpace(stdout) == "" {
		return groups, nil
	}
	if err := json.Unmarshal([]byte(stdout), &groups); err != nil {
		return nil, c.fail("listGroups", fmt.Errorf("failed to parse group list: %w", err))
	}
	return groups, nil
}

// groupID resolves a group name (or id) to its id
func (c *Client) groupID(ctx context.Context, group string) (string, error) {
	groups, err := c.ListGroups(ctx)
	if err != nil {
		return "", err
	}
	for _, g := range groups {
		if g.ID == group || g.Name == group {
			return g.ID, nil
		}
	}
	return "", fmt.Errorf("group %q not found", group)
}

// exec runs signal-cli and logs the outcome. Arguments are not logged since
// they carry message text.
func (c *Client) exec(ctx context.Context, op string, args ...string) (string, string, error) {
	start := time.Now()
	stdout, stderr, err := c.run(ctx, args...)
	if err != nil {
		c.logger.Warn("signal-cli failed", "op", op, "duration", time.Since(start), "error", err)
	} else {
		c.logger.Debug("signal-cli succeeded", "op", op, "duration", time.Since(start))
	}
	return stdout, stderr, err
}

func (c *Client) fail(op string, err error) error {
	return &SignalError{Op: op, UserID: c.userID, Err: err}
}
