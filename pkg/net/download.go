package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/cheggaaa/pb/v3"
)

var ErrorURLNotFound = errors.New("URL not found")

// Options controls how remote sources are fetched.
type Options struct {
	// Progress renders a download progress bar on ProgressWriter.
	Progress bool
	// ProgressWriter defaults to os.Stderr.
	ProgressWriter io.Writer
}

func getResp(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP Get request: %w", err)
	}

	req.Header.Set("User-Agent", clientAgent)

	return GetHTTPClient().Do(req) //nolint:gosec // URL comes from the operator
}

// Download saves the content of url into filepath.
func Download(ctx context.Context, url string, filepath string, opts *Options) (retErr error) {
	out, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	resp, err := getResp(ctx, url)
	if err != nil {
		return fmt.Errorf("error executing HTTP Get request: %w", err)
	}
	defer resp.Body.Close()

	PrintHTTPResponse(resp)

	if resp.StatusCode == http.StatusNotFound {
		return ErrorURLNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error downloading file (status: %d - %s): %s", resp.StatusCode, resp.Status, url)
	}

	var body io.Reader = resp.Body
	if opts != nil && opts.Progress {
		bar := newProgressBar(resp.ContentLength, opts.ProgressWriter)
		defer bar.Finish()
		body = bar.NewProxyReader(resp.Body)
	}

	if _, err = io.Copy(out, body); err != nil {
		return fmt.Errorf("error saving downloaded content to file: %w", err)
	}

	return nil
}

func newProgressBar(total int64, w io.Writer) *pb.ProgressBar {
	if total < 0 {
		total = 0
	}
	if w == nil {
		w = os.Stderr
	}
	return pb.Full.New(0).
		SetTotal(total).
		Set(pb.Bytes, true).
		SetWriter(w).
		Start()
}
