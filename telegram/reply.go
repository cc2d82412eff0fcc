package telegram

import (
	"context"
	"strconv"
)

// ChatReply sends assistant output into one Telegram chat. The status
// message is sent first and later edited in place with the final reply.
type ChatReply struct {
	channel *Channel
	chatID  string
}

// SendMessage delivers a plain message
func (r *ChatReply) SendMessage(ctx context.Context, text string) error {
	return r.channel.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": r.chatID,
		"text":    text,
	}, nil)
}

// SendStatusMessage sends a provisional message and returns its id
func (r *ChatReply) SendStatusMessage(ctx context.Context, text string) (string, error) {
	var resp sendMessageResponse
	err := r.channel.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": r.chatID,
		"text":    text,
	}, &resp)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(resp.Result.MessageID, 10), nil
}

// EditStatusMessage replaces a previously sent status message
func (r *ChatReply) EditStatusMessage(ctx context.Context, messageID, text string) error {
	id, err := strconv.ParseInt(messageID, 10, 64)
	if err != nil {
		return err
	}
	return r.channel.call(ctx, "editMessageText", map[string]interface{}{
		"chat_id":    r.chatID,
		"message_id": id,
		"text":       text,
	}, nil)
}
