// Package review manages durable review records for published task branches.
package review

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	// listTimeout bounds review record listing calls.
	listTimeout = 10 * time.Second
	// mutateTimeout bounds record creation and title updates.
	mutateTimeout = 30 * time.Second
)

// Record is one durable review record attached to a task branch.
type Record struct {
	Number int
	Title  string
	State  string
	Draft  bool
	Branch string
	URL    string
}

// ghRecord mirrors the fields we care about from gh's JSON output.
type ghRecord struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	State       string `json:"state"` // "OPEN", "MERGED", "CLOSED"
	URL         string `json:"url"`
	IsDraft     bool   `json:"isDraft"`
	HeadRefName string `json:"headRefName"`
}

// Client drives the hosted review surface through the gh CLI.
type Client struct {
	repo string
	run  func(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// NewClient builds a review client operating from the repository checkout.
func NewClient(repo string) (*Client, error) {
	if strings.TrimSpace(repo) == "" {
		return nil, errors.New("repository path is required")
	}
	return &Client{repo: repo, run: runGH}, nil
}

// ListOpen returns all open review records.
func (c *Client) ListOpen() ([]Record, error) {
	return c.list("--state", "open")
}

// ListDraft returns open records still marked as drafts.
func (c *Client) ListDraft() ([]Record, error) {
	return c.list("--state", "open", "--draft")
}

// list runs one gh pr list invocation and decodes the result.
func (c *Client) list(filters ...string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), listTimeout)
	defer cancel()

	args := append([]string{
		"pr", "list",
		"--json", "number,title,state,url,isDraft,headRefName",
	}, filters...)
	out, err := c.run(ctx, c.repo, args...)
	if err != nil {
		return nil, err
	}
	return decodeRecords(out)
}

// Create opens a review record for the branch and returns it.
//
// gh prints the record URL on success; the record number is its trailing
// path segment.
func (c *Client) Create(branch string, title string, body string) (Record, error) {
	if strings.TrimSpace(branch) == "" {
		return Record{}, errors.New("branch is required")
	}
	if strings.TrimSpace(title) == "" {
		return Record{}, errors.New("title is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), mutateTimeout)
	defer cancel()

	out, err := c.run(ctx, c.repo,
		"pr", "create",
		"--head", branch,
		"--title", title,
		"--body", body,
	)
	if err != nil {
		return Record{}, err
	}
	url := lastLine(string(out))
	number, err := numberFromURL(url)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Number: number,
		Title:  title,
		State:  "open",
		Branch: branch,
		URL:    url,
	}, nil
}

// UpdateTitle renames an existing review record.
func (c *Client) UpdateTitle(number int, title string) error {
	if number <= 0 {
		return fmt.Errorf("record number %d is invalid", number)
	}
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), mutateTimeout)
	defer cancel()

	_, err := c.run(ctx, c.repo, "pr", "edit", strconv.Itoa(number), "--title", title)
	return err
}

// decodeRecords converts gh's JSON payload into Records.
func decodeRecords(payload []byte) ([]Record, error) {
	var raw []ghRecord
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode review records: %w", err)
	}
	records := make([]Record, 0, len(raw))
	for _, r := range raw {
		records = append(records, Record{
			Number: r.Number,
			Title:  r.Title,
			State:  ghState(r.State),
			Draft:  r.IsDraft,
			Branch: r.HeadRefName,
			URL:    r.URL,
		})
	}
	return records, nil
}

// ghState maps GitHub record state strings to our unified model.
func ghState(s string) string {
	switch s {
	case "OPEN":
		return "open"
	case "MERGED":
		return "merged"
	case "CLOSED":
		return "closed"
	default:
		return strings.ToLower(s)
	}
}

// numberFromURL extracts the record number from its trailing path segment.
func numberFromURL(url string) (int, error) {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx == len(url)-1 {
		return 0, fmt.Errorf("record url %q has no number segment", url)
	}
	number, err := strconv.Atoi(url[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("record url %q has no number segment", url)
	}
	return number, nil
}

// lastLine returns the final non-empty line of command output.
func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

// runGH executes a gh command, folding stderr into the returned error.
func runGH(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("gh %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
