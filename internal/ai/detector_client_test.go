package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectorClientAvailable(t *testing.T) {
	assert.False(t, NewDetectorClient("").Available())
	assert.False(t, NewDetectorClient("   ").Available())
	assert.False(t, (*DetectorClient)(nil).Available())
	assert.True(t, NewDetectorClient("http://localhost:9000/detect").Available())

	_, err := NewDetectorClient("").Detect(context.Background(), []byte("jpeg"))
	assert.ErrorIs(t, err, ErrDetectorUnavailable)
}

func TestDetectorClientDetect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req detectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		switch string(decoded) {
		case "dancer":
			w.Write([]byte(`{
				"pose": [{"x":0.5,"y":0.4,"z":0.0}],
				"hands": [[{"x":0.1,"y":0.2,"z":0}]],
				"faces": []
			}`))
		case "empty":
			w.Write([]byte(`{"pose": null, "hands": [], "faces": []}`))
		case "model-error":
			w.Write([]byte(`{"error": {"message": "model not loaded"}}`))
		default:
			http.Error(w, "bad image", http.StatusUnprocessableEntity)
		}
	}))
	defer server.Close()

	client := NewDetectorClient(server.URL)

	t.Run("landmarks", func(t *testing.T) {
		det, err := client.Detect(context.Background(), []byte("dancer"))
		require.NoError(t, err)
		require.Len(t, det.Pose, 1)
		assert.Equal(t, 0.4, det.Pose[0].Y)
		require.Len(t, det.Hands, 1)
		assert.Empty(t, det.Faces)
	})

	t.Run("nothing detected", func(t *testing.T) {
		det, err := client.Detect(context.Background(), []byte("empty"))
		require.NoError(t, err)
		assert.Empty(t, det.Pose)
		assert.Empty(t, det.Hands)
	})

	t.Run("service error payload", func(t *testing.T) {
		_, err := client.Detect(context.Background(), []byte("model-error"))
		assert.ErrorContains(t, err, "model not loaded")
	})

	t.Run("http error", func(t *testing.T) {
		_, err := client.Detect(context.Background(), []byte("noise"))
		assert.ErrorContains(t, err, "http 422")
	})
}

func TestDetectorClientRejectsOversizedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pose":[],"padding":"`))
		_, _ = w.Write(bytes.Repeat([]byte("x"), maxResponseSize))
		_, _ = w.Write([]byte(`"}`))
	}))
	defer server.Close()

	_, err := NewDetectorClient(server.URL).Detect(context.Background(), []byte("jpeg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}
