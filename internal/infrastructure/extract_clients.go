package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPExtractor calls an external OCR service to recover text from an image
// the bot received. The service downloads the file by Telegram file ID itself;
// the core never touches file bytes.
type HTTPExtractor struct {
	endpoint string
	client   *http.Client
}

func NewHTTPExtractor(endpoint string) *HTTPExtractor {
	return &HTTPExtractor{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 20 * time.Second},
	}
}

func (e *HTTPExtractor) ExtractText(ctx context.Context, fileID string) (string, error) {
	return postExtract(ctx, e.client, e.endpoint, fileID)
}

// HTTPTranscriber calls an external speech-to-text service for voice/audio/video.
type HTTPTranscriber struct {
	endpoint string
	client   *http.Client
}

func NewHTTPTranscriber(endpoint string) *HTTPTranscriber {
	return &HTTPTranscriber{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, fileID string) (string, error) {
	return postExtract(ctx, t.client, t.endpoint, fileID)
}

func postExtract(ctx context.Context, client *http.Client, endpoint, fileID string) (string, error) {
	payload := map[string]string{"file_id": fileID}
	data, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extract service returned %d", resp.StatusCode)
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode extract response: %w", err)
	}
	return body.Text, nil
}

// NoopExtractor is used when no OCR service is configured.
type NoopExtractor struct{}

func (NoopExtractor) ExtractText(ctx context.Context, fileID string) (string, error) {
	return "", nil
}

// NoopTranscriber is used when no speech-to-text service is configured.
type NoopTranscriber struct{}

func (NoopTranscriber) Transcribe(ctx context.Context, fileID string) (string, error) {
	return "", nil
}
