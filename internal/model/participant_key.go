package model

import "time"

// ParticipantKeyID identifies the public key a user declared for one
// watch party.
type ParticipantKeyID struct {
	WatchPartyID string
	UserID       string
}

// String renders the legacy document key "{watchPartyId}_{userId}".
func (k ParticipantKeyID) String() string {
	return k.WatchPartyID + "_" + k.UserID
}

// ParticipantKey holds the latest public key registered for a key id.
type ParticipantKey struct {
	WatchPartyID string    `json:"-"`
	UserID       string    `json:"userId"`
	PublicKey    string    `json:"publicKey"`
	UpdatedAt    time.Time `json:"-"`
}

// ID returns the composite identifier of the key.
func (p ParticipantKey) ID() ParticipantKeyID {
	return ParticipantKeyID{WatchPartyID: p.WatchPartyID, UserID: p.UserID}
}
