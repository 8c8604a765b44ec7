package quiz

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// DefaultSource is the well-known relative location of the document.
const DefaultSource = "data/questions.json"

// maxDocumentBytes bounds what Load will read from a file or URL.
const maxDocumentBytes = 4 << 20

// LoadError reports a failed load together with the source it came from.
// It unwraps to the underlying fetch or validation error, so
// errors.Is(err, ErrInvalid) distinguishes a bad document from an
// unreachable one.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("quiz: load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load fetches the document once from a file path or an http(s) URL and
// parses it. There are no retries. client may be nil, in which case
// http.DefaultClient is used for URLs.
func Load(ctx context.Context, source string, client *http.Client) (*Quiz, error) {
	if source == "" {
		source = DefaultSource
	}

	data, err := fetch(ctx, source, client)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	q, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return q, nil
}

func fetch(ctx context.Context, source string, client *http.Client) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		defer f.Close()
		return readLimited(f)
	}

	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return readLimited(resp.Body)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if len(data) > maxDocumentBytes {
		return nil, fmt.Errorf("document larger than %d bytes", maxDocumentBytes)
	}
	return data, nil
}
