package cache

// Mutation names a write whose effects must be purged from the cache.
type Mutation string

const (
	SessionCreated Mutation = "session.created"
	SessionJoined  Mutation = "session.joined"
	BucketChanged  Mutation = "bucket.changed"
)

// Subject carries the identifiers a mutation touched.
type Subject struct {
	SessionID string
	HostID    string
	UserID    string
	Public    bool
	// Participants are the members before the mutation.  Their "my
	// sessions" listings embed the session record.
	Participants []string
}

// invalidations is the single source of truth for which keys each write
// affects.  Services call InvalidateFor instead of listing keys inline.
var invalidations = map[Mutation]func(Subject) []string{
	SessionCreated: func(s Subject) []string {
		keys := []string{UserSessionsKey(s.HostID)}
		if s.Public {
			keys = append(keys, PublicSessionsKey)
		}
		return keys
	},
	SessionJoined: func(s Subject) []string {
		keys := []string{SessionKey(s.SessionID), UserSessionsKey(s.UserID), UserSessionsKey(s.HostID)}
		for _, p := range s.Participants {
			if p != s.UserID && p != s.HostID {
				keys = append(keys, UserSessionsKey(p))
			}
		}
		if s.Public {
			keys = append(keys, PublicSessionsKey)
		}
		return keys
	},
	BucketChanged: func(s Subject) []string {
		return []string{BucketKey(s.UserID), BucketRuntimeKey(s.UserID)}
	},
}

// KeysFor returns the keys m invalidates for s, or nil for an unknown
// mutation.
func KeysFor(m Mutation, s Subject) []string {
	fn, ok := invalidations[m]
	if !ok {
		return nil
	}
	return fn(s)
}
