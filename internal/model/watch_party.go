package model

import "time"

// WatchPartyStatus is the lifecycle state of a watch party.  Only
// StatusScheduled is produced today; there are no transitions out of it.
type WatchPartyStatus string

// StatusScheduled marks a watch party that has been created and not yet run.
const StatusScheduled WatchPartyStatus = "scheduled"

// WatchParty represents a scheduled group viewing event.  The host is
// always part of Participants and a user never appears in both
// Participants and InvitedUserIDs.
//
// Fields:
//  ID             – generated identifier.
//  Title          – display title chosen by the host.
//  Description    – optional free text.
//  HostID         – user who created the party.
//  DateTime       – when the viewing starts.
//  Movies         – snapshot of the movies to watch, in order.
//  IsPublic       – public parties can be joined by anyone.
//  Participants   – users who joined, host first.
//  InvitedUserIDs – users invited but not yet joined.
//  CreatedAt      – server creation time.
//  Status         – lifecycle state (always "scheduled").
type WatchParty struct {
	ID             string           `json:"id"`             // watch_parties.id
	Title          string           `json:"title"`          // watch_parties.title
	Description    string           `json:"description"`    // watch_parties.description
	HostID         string           `json:"hostId"`         // watch_parties.host_id
	DateTime       time.Time        `json:"dateTime"`       // watch_parties.date_time
	Movies         []MovieSummary   `json:"movies"`         // watch_parties.movies (JSON)
	IsPublic       bool             `json:"isPublic"`       // watch_parties.is_public
	Participants   []string         `json:"participants"`   // watch_party_members role=participant
	InvitedUserIDs []string         `json:"invitedUserIds"` // watch_party_members role=invited
	CreatedAt      time.Time        `json:"createdAt"`      // watch_parties.created_at
	Status         WatchPartyStatus `json:"status"`         // watch_parties.status
}

// HasParticipant reports whether userID already joined the party.
func (w *WatchParty) HasParticipant(userID string) bool {
	return contains(w.Participants, userID)
}

// IsInvited reports whether userID holds a pending invitation.
func (w *WatchParty) IsInvited(userID string) bool {
	return contains(w.InvitedUserIDs, userID)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
