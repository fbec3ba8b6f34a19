package model

import "time"

// MaxBucketMovies caps the number of movies a marathon bucket may hold.
const MaxBucketMovies = 30

// BucketEntry is one movie queued in a user's marathon bucket.
type BucketEntry struct {
	MovieSummary
	AddedAt time.Time `json:"addedAt"`
}

// Bucket is the ordered list of movies a user plans to watch back to back.
type Bucket struct {
	UserID string        `json:"userId"`
	Movies []BucketEntry `json:"movies"`
}

// Contains reports whether the bucket already holds movieID.
func (b *Bucket) Contains(movieID int64) bool {
	for _, m := range b.Movies {
		if m.ID == movieID {
			return true
		}
	}
	return false
}

// RuntimeSummary aggregates the runtime of every movie in a bucket.
type RuntimeSummary struct {
	TotalMinutes int    `json:"totalMinutes"`
	Formatted    string `json:"formatted"`
	MovieCount   int    `json:"movieCount"`
}
