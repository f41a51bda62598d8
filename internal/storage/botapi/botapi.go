// Package botapi provides the remote bot-API storage backend: files live as
// documents attached to messages in a storage chat, addressed through an
// HTTP bot gateway.
package botapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

// maxOutboundNameLen is the gateway's filename budget. Longer names are
// rejected remotely, so the stem is truncated while the extension survives;
// the catalog keeps the untruncated display name.
const maxOutboundNameLen = 60

// Config is the JSON-serializable bot-API section of the selector document.
type Config struct {
	APIBase  string `json:"api_base"` // default https://api.telegram.org
	BotToken string `json:"bot_token"`
	ChatID   int64  `json:"chat_id"`
}

// Backend implements storage.Backend against the bot HTTP gateway.
type Backend struct {
	apiBase string
	token   string
	chatID  int64
	client  *http.Client
}

// New creates a bot-API backend from a Config.
func New(cfg Config) (*Backend, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot_token is required")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("chat_id is required")
	}

	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}

	return &Backend{
		apiBase: apiBase,
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// NewFromJSON creates a Backend from raw JSON config.
func NewFromJSON(raw json.RawMessage) (*Backend, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse botapi config: %w", err)
	}
	return New(cfg)
}

// Type returns "botapi".
func (b *Backend) Type() storage.Type { return storage.TypeBotAPI }

func (b *Backend) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", b.apiBase, b.token, method)
}

// truncateName enforces the outbound filename budget, cutting the stem and
// keeping the extension.
func truncateName(name string) string {
	if len(name) <= maxOutboundNameLen {
		return name
	}

	ext := path.Ext(name)
	if len(ext) >= maxOutboundNameLen {
		return name[:maxOutboundNameLen]
	}

	stem := name[:len(name)-len(ext)]
	budget := maxOutboundNameLen - len(ext)
	// Back off to a rune boundary so a multi-byte character is never split.
	for budget > 0 && stem[budget]&0xC0 == 0x80 {
		budget--
	}
	return stem[:budget] + ext
}

// apiResponse is the gateway's envelope for every method.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type documentInfo struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
	Thumb    *struct {
		FileID string `json:"file_id"`
	} `json:"thumb"`
}

type messageResult struct {
	MessageID int64         `json:"message_id"`
	Document  *documentInfo `json:"document"`
	Video     *documentInfo `json:"video"`
	Audio     *documentInfo `json:"audio"`
}

// Upload pipes body through a multipart writer into sendDocument. The
// payload is streamed: one goroutine writes the multipart body into a pipe
// while the request reads from it.
func (b *Backend) Upload(ctx context.Context, body io.Reader, req storage.UploadRequest) (*storage.UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			if err := mw.WriteField("chat_id", strconv.FormatInt(b.chatID, 10)); err != nil {
				return err
			}
			if req.Caption != "" {
				if err := mw.WriteField("caption", req.Caption); err != nil {
					return err
				}
			}
			part, err := mw.CreateFormFile("document", truncateName(req.FileName))
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, body); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.methodURL("sendDocument"), pr)
	if err != nil {
		return nil, b.wrap("upload", req.FileName, err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var msg messageResult
	if err := b.do(httpReq, &msg); err != nil {
		return nil, b.wrap("upload", req.FileName, err)
	}

	doc := msg.Document
	if doc == nil {
		doc = msg.Video
	}
	if doc == nil {
		doc = msg.Audio
	}
	if doc == nil {
		return nil, b.wrap("upload", req.FileName, fmt.Errorf("gateway response carries no document"))
	}

	result := &storage.UploadResult{
		Locator:   doc.FileID,
		MessageID: msg.MessageID,
		Size:      doc.FileSize,
	}
	if doc.Thumb != nil {
		result.ThumbLocator = doc.Thumb.FileID
	}
	return result, nil
}

// Remove deletes the backing messages best-effort. "message not found" and
// "message to delete not found" mean someone beat us to it; that is success.
func (b *Backend) Remove(ctx context.Context, items []storage.RemoveItem) *storage.RemoveReport {
	report := &storage.RemoveReport{}

	for _, item := range items {
		if item.IsDir || item.MessageID == 0 {
			// Folders have no remote representation.
			report.Succeeded = append(report.Succeeded, item.Locator)
			continue
		}

		payload := fmt.Sprintf(`{"chat_id":%d,"message_id":%d}`, b.chatID, item.MessageID)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.methodURL("deleteMessage"), strings.NewReader(payload))
		if err == nil {
			httpReq.Header.Set("Content-Type", "application/json")
			err = b.do(httpReq, nil)
		}

		if err != nil && !strings.Contains(err.Error(), "not found") {
			report.Failed = append(report.Failed, storage.RemoveFailure{
				Locator: item.Locator,
				Err:     b.wrap("remove", item.Locator, err),
			})
			continue
		}
		report.Succeeded = append(report.Succeeded, item.Locator)
	}

	return report
}

// GetURL resolves a file id to a short-lived direct download URL.
func (b *Backend) GetURL(ctx context.Context, locator string) (string, error) {
	payload := fmt.Sprintf(`{"file_id":%q}`, locator)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.methodURL("getFile"), strings.NewReader(payload))
	if err != nil {
		return "", b.wrap("geturl", locator, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var result struct {
		FilePath string `json:"file_path"`
	}
	if err := b.do(httpReq, &result); err != nil {
		return "", b.wrap("geturl", locator, err)
	}
	if result.FilePath == "" {
		return "", nil
	}

	return fmt.Sprintf("%s/file/bot%s/%s", b.apiBase, b.token, result.FilePath), nil
}

// Stream fetches the object through the direct URL, forwarding a Range
// header when asked for one.
func (b *Backend) Stream(ctx context.Context, locator string, rng *storage.Range) (io.ReadCloser, int64, error) {
	url, err := b.GetURL(ctx, locator)
	if err != nil {
		return nil, 0, err
	}
	if url == "" {
		return nil, 0, b.wrap("stream", locator, fmt.Errorf("no download path for file"))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, b.wrap("stream", locator, err)
	}
	if rng != nil && (rng.Offset > 0 || rng.Length > 0) {
		if rng.Length > 0 {
			httpReq.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", rng.Offset, rng.Offset+rng.Length-1))
		} else {
			httpReq.Header.Set("Range", fmt.Sprintf("bytes=%d-", rng.Offset))
		}
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, 0, b.wrap("stream", locator, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, 0, b.wrap("stream", locator, fmt.Errorf("gateway returned %s", resp.Status))
	}

	return resp.Body, resp.ContentLength, nil
}

// do runs the request and decodes the gateway envelope into result.
func (b *Backend) do(req *http.Request, result any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	if !envelope.OK {
		return fmt.Errorf("gateway error: %s", envelope.Description)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("decode gateway result: %w", err)
		}
	}
	return nil
}

func (b *Backend) wrap(op, locator string, err error) error {
	return &domain.BackendError{Backend: string(storage.TypeBotAPI), Op: op, Locator: locator, Err: err}
}
