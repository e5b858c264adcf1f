package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// FileDownloader defines an interface for downloading files from Telegram.
type FileDownloader interface {
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
	DownloadFileAsBase64(ctx context.Context, fileID string) (string, error)
}

// HTTPFileDownloader is a concrete implementation of FileDownloader using HTTP.
type HTTPFileDownloader struct {
	api         BotAPI
	httpClient  *http.Client
	fileBaseURL string
	maxSize     int64
}

// DownloaderOption configures an HTTPFileDownloader.
type DownloaderOption func(*HTTPFileDownloader)

// WithDownloadClient replaces the HTTP client used for downloads.
func WithDownloadClient(c *http.Client) DownloaderOption {
	return func(d *HTTPFileDownloader) { d.httpClient = c }
}

// WithMaxFileSize rejects files larger than n bytes. The Bot API itself
// serves at most 20 MB.
func WithMaxFileSize(n int64) DownloaderOption {
	return func(d *HTTPFileDownloader) { d.maxSize = n }
}

// NewHTTPFileDownloader creates a new HTTPFileDownloader. fileBaseURL is the
// scheme and host of the Bot API server, e.g. "https://api.telegram.org".
//
// HTTP client configured with:
// - 60s timeout for large file downloads
// - DisableKeepAlives to avoid connection pool issues
// - Reasonable timeouts for dial/TLS/headers
func NewHTTPFileDownloader(api BotAPI, fileBaseURL string, opts ...DownloaderOption) *HTTPFileDownloader {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 0,
		}).DialContext,
		ForceAttemptHTTP2:     false,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		DisableKeepAlives:     true,
	}

	d := &HTTPFileDownloader{
		api: api,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
		fileBaseURL: strings.TrimRight(fileBaseURL, "/"),
		maxSize:     20 << 20,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadFile resolves fileID with getFile and fetches its content.
func (d *HTTPFileDownloader) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileInfo, err := d.api.GetFile(ctx, GetFileRequest{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	if fileInfo.FilePath == "" {
		return nil, fmt.Errorf("file %s has no file_path", fileID)
	}
	if d.maxSize > 0 && fileInfo.FileSize > d.maxSize {
		return nil, fmt.Errorf("file %s is too large: %d bytes", fileID, fileInfo.FileSize)
	}

	token := d.api.GetToken()
	fileURL := fmt.Sprintf("%s/file/bot%s/%s", d.fileBaseURL, token, fileInfo.FilePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %s", strings.ReplaceAll(err.Error(), token, redacted))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		// The URL embeds the bot token.
		sanitized := strings.ReplaceAll(err.Error(), token, redacted)
		return nil, fmt.Errorf("failed to download file: %s", sanitized)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status code %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if d.maxSize > 0 {
		body = io.LimitReader(resp.Body, d.maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if d.maxSize > 0 && int64(len(data)) > d.maxSize {
		return nil, fmt.Errorf("file %s exceeds %d bytes", fileID, d.maxSize)
	}
	return data, nil
}

// DownloadFileAsBase64 downloads a file and encodes it as a Base64 string.
func (d *HTTPFileDownloader) DownloadFileAsBase64(ctx context.Context, fileID string) (string, error) {
	fileBytes, err := d.DownloadFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(fileBytes), nil
}
