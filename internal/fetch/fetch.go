// Package fetch performs single-attempt HTTP(S) downloads. The response
// body streams to a temp file and is renamed into place on success, so a
// partial file is never visible at the destination.
package fetch

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tanq16/grablist/internal/utils"
)

type Executor struct {
	client  utils.HTTPDoer
	tempDir string
}

// NewExecutor prepares the temp directory alongside the destinations so
// the finalizing rename stays on one filesystem.
func NewExecutor(client utils.HTTPDoer, tempDir string) (*Executor, error) {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating temp directory: %w", err)
	}
	return &Executor{client: client, tempDir: tempDir}, nil
}

// Fetch downloads task.URL to task.OutputPath and returns the bytes
// written. One attempt only; retry policy belongs to a layer above. On
// any failure the temp file is removed and the destination is untouched.
func (e *Executor) Fetch(task utils.Task) (int64, error) {
	log := utils.GetLogger("fetch")
	tempPath := filepath.Join(e.tempDir, fmt.Sprintf("%s.%s.part", filepath.Base(task.OutputPath), uuid.New().String()[:8]))

	req, err := http.NewRequest("GET", task.URL, nil)
	if err != nil {
		return 0, &NetworkError{URL: task.URL, Err: err}
	}
	log.Debug().Str("url", task.URL).Str("output", task.OutputPath).Msg("Starting download")
	resp, err := e.client.Do(req)
	if err != nil {
		return 0, &NetworkError{URL: task.URL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &HTTPStatusError{URL: task.URL, Code: resp.StatusCode}
	}

	outFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, &IOError{Op: "create", Path: tempPath, Err: err}
	}

	var written int64
	buffer := make([]byte, utils.DefaultBufferSize)
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := outFile.Write(buffer[:bytesRead]); writeErr != nil {
				outFile.Close()
				e.discard(tempPath)
				return 0, &IOError{Op: "write", Path: tempPath, Err: writeErr}
			}
			written += int64(bytesRead)
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			outFile.Close()
			e.discard(tempPath)
			return 0, &NetworkError{URL: task.URL, Err: readErr}
		}
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		outFile.Close()
		e.discard(tempPath)
		return 0, &NetworkError{URL: task.URL, Err: fmt.Errorf("truncated body: got %d of %d bytes", written, resp.ContentLength)}
	}
	if err := outFile.Close(); err != nil {
		e.discard(tempPath)
		return 0, &IOError{Op: "close", Path: tempPath, Err: err}
	}
	if err := os.Rename(tempPath, task.OutputPath); err != nil {
		e.discard(tempPath)
		return 0, &IOError{Op: "rename", Path: task.OutputPath, Err: err}
	}
	log.Debug().Str("url", task.URL).Int64("bytes", written).Msg("Download completed")
	return written, nil
}

func (e *Executor) discard(tempPath string) {
	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		logger := utils.GetLogger("fetch")
		logger.Warn().Err(err).Str("file", tempPath).Msg("Failed to remove temp file")
	}
}
