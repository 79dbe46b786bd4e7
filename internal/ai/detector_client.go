package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DetectorClient calls a landmark detection service over HTTP. A client without a
// URL reports itself unavailable and callers fall back to heuristic annotation.
type DetectorClient struct {
	url        string
	httpClient *http.Client
}

func NewDetectorClient(url string) *DetectorClient {
	return &DetectorClient{
		url: strings.TrimSpace(url),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// maxResponseSize bounds the detector reply; landmark sets are a few kilobytes.
const maxResponseSize = 4 << 20

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	Pose  LandmarkSet   `json:"pose"`
	Hands []LandmarkSet `json:"hands"`
	Faces []LandmarkSet `json:"faces"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *DetectorClient) Available() bool {
	return c != nil && c.url != ""
}

func (c *DetectorClient) Detect(ctx context.Context, imageData []byte) (*Detection, error) {
	if !c.Available() {
		return nil, ErrDetectorUnavailable
	}

	jsonData, err := json.Marshal(detectRequest{
		Image: base64.StdEncoding.EncodeToString(imageData),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("landmark detector response exceeds %d bytes", maxResponseSize)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("landmark detector returned http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var detectResp detectResponse
	if err := json.Unmarshal(body, &detectResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if detectResp.Error != nil {
		return nil, fmt.Errorf("landmark detector error: %s", detectResp.Error.Message)
	}

	return &Detection{
		Pose:  detectResp.Pose,
		Hands: detectResp.Hands,
		Faces: detectResp.Faces,
	}, nil
}
