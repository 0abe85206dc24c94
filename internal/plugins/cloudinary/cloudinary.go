package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/Likith-Yadav/echo-us/internal/config"
)

// Client uploads media blobs to Cloudinary using signed uploads.
type Client struct {
	cloudName string
	apiKey    string
	apiSecret string
	http      *http.Client
}

func NewClient(cfg config.CloudinaryConfig) *Client {
	return &Client{
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Upload(ctx context.Context, data []byte, folder string) (string, error) {
	apiURL := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/auto/upload", c.cloudName)
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	// Signature covers the sorted parameter string plus the secret.
	toSign := fmt.Sprintf("folder=%s&timestamp=%s%s", folder, timestamp, c.apiSecret)
	sum := sha1.Sum([]byte(toSign))
	signature := hex.EncodeToString(sum[:])

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "upload")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	_ = w.WriteField("api_key", c.apiKey)
	_ = w.WriteField("timestamp", timestamp)
	_ = w.WriteField("folder", folder)
	_ = w.WriteField("signature", signature)
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("cloudinary upload failed: status %d", resp.StatusCode)
	}

	var result struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary response missing secure_url")
	}
	return result.SecureURL, nil
}
