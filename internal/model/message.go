package model

import "time"

// MessageEnvelope is one recipient-addressed encrypted unit.  The server
// never inspects the ciphertext fields; Timestamp is assigned on receipt.
type MessageEnvelope struct {
	EncryptedMessage      string    `json:"encryptedMessage"`
	EncryptedSymmetricKey string    `json:"encryptedSymmetricKey"`
	Nonce                 string    `json:"nonce"`
	RecipientPublicKey    string    `json:"recipientPublicKey"`
	Timestamp             time.Time `json:"timestamp"`
}

// MessageBatch groups every envelope submitted by one send call.  Batches
// are append-only.
type MessageBatch struct {
	ID           string            `json:"id"`           // watch_party_messages.id
	WatchPartyID string            `json:"watchPartyId"` // watch_party_messages.watch_party_id
	SenderID     string            `json:"userId"`       // watch_party_messages.sender_id
	Messages     []MessageEnvelope `json:"messages"`     // watch_party_messages.envelopes (JSON)
	CreatedAt    time.Time         `json:"createdAt"`    // watch_party_messages.created_at
}
