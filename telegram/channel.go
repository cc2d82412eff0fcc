// Package telegram is the bot transport: a long-poll loop over getUpdates
// that hands incoming messages to the assistant and replies into the
// originating chat.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/attent-app/attent/log"
)

var logger = log.GetLogger("Telegram")

const defaultAPIRoot = "https://api.telegram.org"

// Config holds bot credentials and polling settings
type Config struct {
	BotToken       string
	PollInterval   time.Duration
	TimeoutSeconds int
	AllowedChats   []string
	APIRoot        string
}

// Incoming is one user message pulled off the bot
type Incoming struct {
	ChatID    string
	UserID    string
	MessageID int64
	Text      string
	Voice     *VoiceNote
}

// VoiceNote points at an audio file attached to a message
type VoiceNote struct {
	FileID   string
	MimeType string
	Duration int
}

// Handler receives each accepted incoming message
type Handler func(ctx context.Context, msg Incoming)

// Channel long-polls the Telegram bot API
type Channel struct {
	cfg     Config
	allowed map[string]bool
	offset  int64
	client  *http.Client
}

// NewChannel creates a channel for the given bot
func NewChannel(cfg Config) *Channel {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 20
	}
	if strings.TrimSpace(cfg.APIRoot) == "" {
		cfg.APIRoot = defaultAPIRoot
	}

	allowed := make(map[string]bool, len(cfg.AllowedChats))
	for _, id := range cfg.AllowedChats {
		if id = strings.TrimSpace(id); id != "" {
			allowed[id] = true
		}
	}

	return &Channel{
		cfg:     cfg,
		allowed: allowed,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds+10) * time.Second},
	}
}

// Start polls until the context is cancelled, invoking handler per message
func (c *Channel) Start(ctx context.Context, handler Handler) error {
	if strings.TrimSpace(c.cfg.BotToken) == "" {
		return fmt.Errorf("telegram bot token is required")
	}

	logger.Info().Dur("interval", c.cfg.PollInterval).Msg("telegram polling started")

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := c.pollOnce(ctx, handler); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error().Err(err).Msg("poll failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Reply returns a reply surface bound to one chat
func (c *Channel) Reply(chatID string) *ChatReply {
	return &ChatReply{channel: c, chatID: chatID}
}

func (c *Channel) pollOnce(ctx context.Context, handler Handler) error {
	result := getUpdatesResponse{}
	payload := map[string]interface{}{
		"timeout":         c.cfg.TimeoutSeconds,
		"allowed_updates": []string{"message"},
	}
	if offset := atomic.LoadInt64(&c.offset); offset > 0 {
		payload["offset"] = offset
	}
	if err := c.call(ctx, "getUpdates", payload, &result); err != nil {
		return err
	}

	for _, upd := range result.Result {
		if upd.UpdateID >= atomic.LoadInt64(&c.offset) {
			atomic.StoreInt64(&c.offset, upd.UpdateID+1)
		}
		msg, ok := c.accept(upd)
		if !ok {
			continue
		}
		handler(ctx, msg)
	}
	return nil
}

// accept filters an update down to a processable message
func (c *Channel) accept(upd update) (Incoming, bool) {
	m := upd.Message
	if m.MessageID == 0 {
		return Incoming{}, false
	}

	chatID := strconv.FormatInt(m.Chat.ID, 10)
	if len(c.allowed) > 0 && !c.allowed[chatID] {
		logger.Warn().Str("chat", chatID).Msg("message from unlisted chat dropped")
		return Incoming{}, false
	}

	text := strings.TrimSpace(m.Text)
	if text == "" {
		text = strings.TrimSpace(m.Caption)
	}

	msg := Incoming{
		ChatID:    chatID,
		UserID:    strconv.FormatInt(m.From.ID, 10),
		MessageID: m.MessageID,
		Text:      text,
	}
	if m.Voice != nil && m.Voice.FileID != "" {
		msg.Voice = &VoiceNote{
			FileID:   m.Voice.FileID,
			MimeType: m.Voice.MimeType,
			Duration: m.Voice.Duration,
		}
	}

	if msg.Text == "" && msg.Voice == nil {
		return Incoming{}, false
	}
	return msg, true
}

// DownloadVoice fetches the audio bytes for a voice note
func (c *Channel) DownloadVoice(ctx context.Context, note *VoiceNote) (string, []byte, error) {
	var file getFileResponse
	if err := c.call(ctx, "getFile", map[string]interface{}{"file_id": note.FileID}, &file); err != nil {
		return "", nil, fmt.Errorf("getFile failed: %w", err)
	}
	if file.Result.FilePath == "" {
		return "", nil, fmt.Errorf("getFile returned no path")
	}

	url := strings.TrimRight(c.cfg.APIRoot, "/") + "/file/bot" + c.cfg.BotToken + "/" + file.Result.FilePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf("voice download status=%d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}
	return file.Result.FilePath, data, nil
}

func (c *Channel) call(ctx context.Context, method string, payload interface{}, out interface{}) error {
	url := strings.TrimRight(c.cfg.APIRoot, "/") + "/bot" + c.cfg.BotToken + "/" + method
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var base apiResponse
	if err := json.Unmarshal(respBody, &base); err != nil {
		return err
	}
	if !base.OK {
		return fmt.Errorf("telegram api error: %s", base.Description)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return err
		}
	}
	return nil
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

type getUpdatesResponse struct {
	apiResponse
	Result []update `json:"result"`
}

type getFileResponse struct {
	apiResponse
	Result struct {
		FilePath string `json:"file_path"`
	} `json:"result"`
}

type sendMessageResponse struct {
	apiResponse
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

type update struct {
	UpdateID int64           `json:"update_id"`
	Message  telegramMessage `json:"message"`
}

type telegramMessage struct {
	MessageID int64 `json:"message_id"`
	From      struct {
		ID int64 `json:"id"`
	} `json:"from"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Text    string `json:"text"`
	Caption string `json:"caption"`
	Voice   *struct {
		FileID   string `json:"file_id"`
		MimeType string `json:"mime_type"`
		Duration int    `json:"duration"`
	} `json:"voice"`
}
