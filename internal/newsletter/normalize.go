package newsletter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/emersion/go-message"
	"github.com/rs/zerolog"

	"github.com/nhle/wtldr/internal/model"
)

// Normalizer turns raw RFC 822 bytes into model.Message values.
type Normalizer struct {
	log zerolog.Logger
}

// NewNormalizer creates a Normalizer that reports degraded decodes to log.
func NewNormalizer(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log.With().Str("component", "normalizer").Logger()}
}

// Normalize parses raw and builds a Message identified by id. Header or
// body decoding problems are logged and replaced by best-effort text; a
// malformed Date header fails the call.
func (n *Normalizer) Normalize(raw []byte, id int64) (*model.Message, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !isUnknownContent(err) {
		return nil, fmt.Errorf("parsing message %d: %w", id, err)
	}

	sender, ok := DecodeHeaderValue(headerValue(entity.Header, "From"))
	if !ok {
		n.log.Warn().Int64("message_id", id).Str("header", "From").
			Msg("header decoded with fallback")
	}

	subject, ok := DecodeHeaderValue(headerValue(entity.Header, "Subject"))
	if !ok {
		n.log.Warn().Int64("message_id", id).Str("header", "Subject").
			Msg("header decoded with fallback")
	}

	body, ok := ExtractBody(entity)
	if !ok {
		n.log.Warn().Int64("message_id", id).Msg("no decodable body part")
	}

	sentAt, err := ParseSentAt(headerValue(entity.Header, "Date"))
	if err != nil {
		return nil, fmt.Errorf("normalizing message %d: %w", id, err)
	}

	return &model.Message{
		ID:      id,
		Sender:  sender,
		Subject: subject,
		Body:    body,
		SentAt:  sentAt,
	}, nil
}

var unfolder = strings.NewReplacer("\r\n", "", "\n", "")

// headerValue returns the unfolded raw value of key.
func headerValue(h message.Header, key string) string {
	return strings.TrimSpace(unfolder.Replace(h.Get(key)))
}
