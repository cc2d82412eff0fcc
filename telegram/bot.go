package telegram

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"

	"github.com/attent-app/attent/assistant"
)

// Transcriber converts a voice note into text
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// Assistant handles one user message end to end
type Assistant interface {
	HandleMessage(ctx context.Context, userID, message, sourceChannel string, reply assistant.ReplyChannel)
}

// Bot wires the polling channel to the assistant, transcribing voice
// notes before handing them over
type Bot struct {
	channel     *Channel
	assistant   Assistant
	transcriber Transcriber
}

// NewBot creates the bot. transcriber may be nil to disable voice notes.
func NewBot(channel *Channel, assistant Assistant, transcriber Transcriber) *Bot {
	return &Bot{channel: channel, assistant: assistant, transcriber: transcriber}
}

// Run polls until the context is cancelled
func (b *Bot) Run(ctx context.Context) error {
	return b.channel.Start(ctx, b.handle)
}

func (b *Bot) handle(ctx context.Context, msg Incoming) {
	reply := b.channel.Reply(msg.ChatID)

	text := msg.Text
	if text == "" && msg.Voice != nil {
		transcribed, err := b.transcribe(ctx, msg.Voice)
		if err != nil {
			logger.Error().Err(err).Str("chat", msg.ChatID).Msg("voice transcription failed")
			if sendErr := reply.SendMessage(ctx, "Sorry, I couldn't understand that voice note."); sendErr != nil {
				logger.Error().Err(sendErr).Msg("failed to send transcription failure notice")
			}
			return
		}
		text = transcribed
	}

	if text == "" {
		return
	}

	b.assistant.HandleMessage(ctx, msg.UserID, text, "telegram", reply)
}

func (b *Bot) transcribe(ctx context.Context, note *VoiceNote) (string, error) {
	if b.transcriber == nil {
		return "", errTranscriptionDisabled
	}

	filePath, data, err := b.channel.DownloadVoice(ctx, note)
	if err != nil {
		return "", err
	}

	filename := path.Base(filePath)
	return b.transcriber.Transcribe(ctx, filename, bytes.NewReader(data))
}

var errTranscriptionDisabled = errors.New("voice transcription not configured")
