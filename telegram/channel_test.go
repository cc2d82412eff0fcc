package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestPollOnceDispatchesMessage(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/getUpdates") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true,
			"result": []map[string]interface{}{
				{
					"update_id": 101,
					"message": map[string]interface{}{
						"message_id": 77,
						"text":       "hello",
						"from":       map[string]interface{}{"id": 11},
						"chat":       map[string]interface{}{"id": 22},
					},
				},
			},
		})
	}))
	defer server.Close()

	ch := NewChannel(Config{BotToken: "token", APIRoot: server.URL})
	err := ch.pollOnce(context.Background(), func(ctx context.Context, msg Incoming) {
		called = true
		if msg.ChatID != "22" {
			t.Fatalf("unexpected chat id: %s", msg.ChatID)
		}
		if msg.UserID != "11" {
			t.Fatalf("unexpected user id: %s", msg.UserID)
		}
		if msg.Text != "hello" {
			t.Fatalf("unexpected text: %s", msg.Text)
		}
	})
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if !called {
		t.Fatal("expected handler call")
	}
	if atomic.LoadInt64(&ch.offset) != 102 {
		t.Fatalf("offset not advanced: %d", ch.offset)
	}
}

func TestPollOnceDropsUnlistedChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true,
			"result": []map[string]interface{}{
				{
					"update_id": 5,
					"message": map[string]interface{}{
						"message_id": 1,
						"text":       "intruder",
						"from":       map[string]interface{}{"id": 99},
						"chat":       map[string]interface{}{"id": 99},
					},
				},
			},
		})
	}))
	defer server.Close()

	ch := NewChannel(Config{BotToken: "token", APIRoot: server.URL, AllowedChats: []string{"22"}})
	err := ch.pollOnce(context.Background(), func(ctx context.Context, msg Incoming) {
		t.Fatalf("unlisted chat should be dropped, got %+v", msg)
	})
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if atomic.LoadInt64(&ch.offset) != 6 {
		t.Fatalf("offset should advance past dropped updates: %d", ch.offset)
	}
}

func TestPollOnceKeepsVoiceMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true,
			"result": []map[string]interface{}{
				{
					"update_id": 7,
					"message": map[string]interface{}{
						"message_id": 3,
						"from":       map[string]interface{}{"id": 11},
						"chat":       map[string]interface{}{"id": 22},
						"voice": map[string]interface{}{
							"file_id":   "voice-abc",
							"mime_type": "audio/ogg",
							"duration":  4,
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	var got Incoming
	ch := NewChannel(Config{BotToken: "token", APIRoot: server.URL})
	err := ch.pollOnce(context.Background(), func(ctx context.Context, msg Incoming) {
		got = msg
	})
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if got.Voice == nil || got.Voice.FileID != "voice-abc" {
		t.Fatalf("voice note not carried through: %+v", got)
	}
}

func TestChatReplySendAndEdit(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if payload["chat_id"] != "22" {
				t.Fatalf("unexpected chat id: %v", payload["chat_id"])
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"ok":     true,
				"result": map[string]interface{}{"message_id": 900},
			})
		case strings.HasSuffix(r.URL.Path, "/editMessageText"):
			if payload["message_id"] != float64(900) {
				t.Fatalf("unexpected message id: %v", payload["message_id"])
			}
			if payload["text"] != "done" {
				t.Fatalf("unexpected text: %v", payload["text"])
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": map[string]interface{}{}})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	ch := NewChannel(Config{BotToken: "token", APIRoot: server.URL})
	reply := ch.Reply("22")

	id, err := reply.SendStatusMessage(context.Background(), "Thinking...")
	if err != nil {
		t.Fatalf("SendStatusMessage failed: %v", err)
	}
	if id != "900" {
		t.Fatalf("unexpected status message id: %s", id)
	}
	if err := reply.EditStatusMessage(context.Background(), id, "done"); err != nil {
		t.Fatalf("EditStatusMessage failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 api calls, got %v", paths)
	}
}

func TestCallReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"description": "bad request: chat not found",
		})
	}))
	defer server.Close()

	ch := NewChannel(Config{BotToken: "token", APIRoot: server.URL})
	err := ch.Reply("22").SendMessage(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestDownloadVoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getFile"):
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"ok":     true,
				"result": map[string]interface{}{"file_path": "voice/file_1.oga"},
			})
		case strings.Contains(r.URL.Path, "/file/bot"):
			if !strings.HasSuffix(r.URL.Path, "voice/file_1.oga") {
				t.Fatalf("unexpected download path: %s", r.URL.Path)
			}
			_, _ = w.Write([]byte("audio-bytes"))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	ch := NewChannel(Config{BotToken: "token", APIRoot: server.URL})
	name, data, err := ch.DownloadVoice(context.Background(), &VoiceNote{FileID: "voice-abc"})
	if err != nil {
		t.Fatalf("DownloadVoice failed: %v", err)
	}
	if name != "voice/file_1.oga" {
		t.Fatalf("unexpected file path: %s", name)
	}
	if string(data) != "audio-bytes" {
		t.Fatalf("unexpected audio bytes: %q", data)
	}
}
