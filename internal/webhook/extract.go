// Package webhook receives MegaAPI message events and runs each one through
// the conversation pipeline.
package webhook

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/LucasNeuro/menogeo/internal/identity"
)

// Inbound is one customer message after payload normalization.
type Inbound struct {
	RemoteJid string
	Text      string
}

// Payload shapes vary between MegaAPI event versions; every known field is
// declared and the extractor sniffs them in a fixed order.
type envelope struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	IsGroup   bool   `json:"isGroup"`
	Broadcast bool   `json:"broadcast"`
	Text      string `json:"text"`

	Key struct {
		RemoteJid string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
	} `json:"key"`

	Message struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
	} `json:"message"`
}

var (
	ErrMalformed = errors.New("payload has no usable remoteJid or text")

	errIgnored = errors.New("event ignored")
)

// Extract normalizes a raw webhook body. The second return names the ignore
// reason for events the bot must never answer (own messages, groups,
// broadcast lists); it is empty for actionable messages.
func Extract(body []byte) (Inbound, string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Inbound{}, "", ErrMalformed
	}

	if env.FromMe || env.Key.FromMe {
		return Inbound{}, "own_message", errIgnored
	}

	jid := env.RemoteJid
	if jid == "" {
		jid = env.Key.RemoteJid
	}
	if env.IsGroup || strings.HasSuffix(jid, "@g.us") {
		return Inbound{}, "group", errIgnored
	}
	if env.Broadcast || strings.Contains(jid, "broadcast") {
		return Inbound{}, "broadcast", errIgnored
	}

	text := env.Message.ExtendedTextMessage.Text
	if text == "" {
		text = env.Message.Conversation
	}
	if text == "" {
		text = env.Text
	}
	text = strings.TrimSpace(text)

	if jid == "" || text == "" {
		return Inbound{}, "", ErrMalformed
	}
	if len(identity.NormalizePhone(jid)) < 10 {
		return Inbound{}, "", ErrMalformed
	}
	return Inbound{RemoteJid: jid, Text: text}, "", nil
}
