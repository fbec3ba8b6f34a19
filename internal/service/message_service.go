package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/watch-party/internal/model"
	"github.com/iliyamo/watch-party/internal/repository"
)

// EnvelopeInput is one client-encrypted envelope as submitted.
type EnvelopeInput struct {
	EncryptedMessage      string
	EncryptedSymmetricKey string
	Nonce                 string
	RecipientPublicKey    string
}

// MessageService relays end-to-end encrypted batches.  It stores the
// ciphertext verbatim and never tries to read it.
type MessageService struct {
	messages repository.MessageRepository
	log      zerolog.Logger
	opts     options
}

func NewMessageService(messages repository.MessageRepository, log zerolog.Logger, opts ...Option) *MessageService {
	return &MessageService{
		messages: messages,
		log:      log.With().Str("component", "messages").Logger(),
		opts:     buildOptions(opts),
	}
}

// SendMessage stores one batch holding every envelope, stamped with the
// server receipt time.
func (s *MessageService) SendMessage(ctx context.Context, sessionID, senderID string, envelopes []EnvelopeInput) (*model.MessageBatch, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: watch party id is required", ErrValidation)
	}
	if len(envelopes) == 0 {
		return nil, fmt.Errorf("%w: at least one message is required", ErrValidation)
	}
	now := s.opts.now().UTC()
	batch := &model.MessageBatch{
		ID:           s.opts.newID(),
		WatchPartyID: sessionID,
		SenderID:     senderID,
		Messages:     make([]model.MessageEnvelope, len(envelopes)),
		CreatedAt:    now,
	}
	for i, e := range envelopes {
		batch.Messages[i] = model.MessageEnvelope{
			EncryptedMessage:      e.EncryptedMessage,
			EncryptedSymmetricKey: e.EncryptedSymmetricKey,
			Nonce:                 e.Nonce,
			RecipientPublicKey:    e.RecipientPublicKey,
			Timestamp:             now,
		}
	}
	if err := s.messages.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("store message batch: %w", err)
	}
	s.log.Debug().Str("watch_party_id", sessionID).Str("sender_id", senderID).
		Int("envelopes", len(envelopes)).Msg("message batch stored")
	return batch, nil
}

// GetMessages returns every batch of a party in insertion order.
func (s *MessageService) GetMessages(ctx context.Context, sessionID string) ([]model.MessageBatch, error) {
	list, err := s.messages.ListByWatchParty(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages for %s: %w", sessionID, err)
	}
	if list == nil {
		list = []model.MessageBatch{}
	}
	return list, nil
}
