// Package execution wraps the Piston remote code runner. It normalizes
// language identifiers to the runner's pinned names/versions and returns
// compile/run phase results; all sandboxing happens remotely.
package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mafiacoder/backend/internal/domain"
)

// DefaultAPIURL is the public Piston execute endpoint
const DefaultAPIURL = "https://emkc.org/api/v2/piston/execute"

// runtime pins a Piston language name to a known-good version. The table
// must stay in sync with what the runner actually hosts.
type runtime struct {
	Language string
	Version  string
}

var runtimes = map[string]runtime{
	"python":     {Language: "python", Version: "3.10.0"},
	"javascript": {Language: "javascript", Version: "18.15.0"},
	"typescript": {Language: "typescript", Version: "5.0.3"},
	"c":          {Language: "c", Version: "10.2.0"},
	"cpp":        {Language: "c++", Version: "10.2.0"},
	"java":       {Language: "java", Version: "15.0.2"},
}

// aliases maps informal language names to canonical identifiers
var aliases = map[string]string{
	"js":  "javascript",
	"c++": "cpp",
}

// Phase holds the output of one execution phase (compile or run)
type Phase struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Code   int    `json:"code"`
	Signal string `json:"signal,omitempty"`
}

// Result is the normalized outcome of a remote execution. Compile is nil
// for interpreted languages.
type Result struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Compile  *Phase `json:"compile,omitempty"`
	Run      Phase  `json:"run"`
}

// executeRequest matches the Piston v2 execute wire format
type executeRequest struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Files    []file `json:"files"`
	Stdin    string `json:"stdin"`
}

type file struct {
	Content string `json:"content"`
}

// Runner executes a (language, source, stdin) triple in a remote sandbox
type Runner interface {
	Execute(ctx context.Context, language, code, stdin string) (*Result, error)
}

// Client is an HTTP Runner backed by the Piston API
type Client struct {
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Piston execution client. apiURL falls back to the
// public endpoint when empty.
func NewClient(apiURL string, requestTimeout time.Duration, logger *zap.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// Normalize resolves an informal language name to its canonical identifier.
// Returns ErrUnsupportedLanguage for anything outside the runtime table.
func Normalize(language string) (string, error) {
	if canonical, ok := aliases[language]; ok {
		language = canonical
	}
	if _, ok := runtimes[language]; !ok {
		return "", domain.ErrUnsupportedLanguage
	}
	return language, nil
}

// SupportedLanguages returns the canonical language identifiers, sorted
func SupportedLanguages() []string {
	langs := make([]string, 0, len(runtimes))
	for l := range runtimes {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Execute runs the code against the remote sandbox with the given stdin.
// The language is normalized and validated before any network call. Any
// transport or protocol failure surfaces as ErrExecutionFailed; there is no
// local retry.
func (c *Client) Execute(ctx context.Context, language, code, stdin string) (*Result, error) {
	canonical, err := Normalize(language)
	if err != nil {
		return nil, err
	}
	rt := runtimes[canonical]

	payload := executeRequest{
		Language: rt.Language,
		Version:  rt.Version,
		Files:    []file{{Content: code}},
		Stdin:    stdin,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExecutionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExecutionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Preserve the context error so callers can tell a per-case
		// deadline from a runner outage.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrExecutionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: runner returned status %d", domain.ErrExecutionFailed, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExecutionFailed, err)
	}

	c.logger.Debug("Remote execution completed",
		zap.String("language", rt.Language),
		zap.String("version", rt.Version),
		zap.Int("exit_code", result.Run.Code),
		zap.Duration("latency", time.Since(start)),
	)

	return &result, nil
}
