// Package uploader publishes the exported ICS feed to a GitHub repository
// via the contents API.
package uploader

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

type uploadRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
}

// UploadSchedule uploads filename to the given repo path. The repo is in
// "owner/name" form; path is where the file lands inside the repo.
func UploadSchedule(token, repo, path, filename string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading schedule feed: %w", err)
	}

	body, err := json.Marshal(uploadRequest{
		Message: "Update schedule feed",
		Content: base64.StdEncoding.EncodeToString(content),
	})
	if err != nil {
		return fmt.Errorf("encoding upload request: %w", err)
	}

	url := fmt.Sprintf("https://api.github.com/repos/%s/contents/%s", repo, path)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("uploading schedule feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github upload failed with status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
