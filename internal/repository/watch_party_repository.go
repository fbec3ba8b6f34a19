package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/iliyamo/watch-party/internal/model"
)

const (
	roleParticipant = "participant"
	roleInvited     = "invited"
)

// WatchPartyRepo persists watch parties in MySQL.  Scalar fields live in
// watch_parties while membership lives in watch_party_members keyed by
// (watch_party_id, user_id), so a user holds exactly one role per party.
type WatchPartyRepo struct {
	db *sql.DB
}

// NewWatchPartyRepo constructs a WatchPartyRepo with the given DB handle.
func NewWatchPartyRepo(db *sql.DB) *WatchPartyRepo {
	return &WatchPartyRepo{db: db}
}

// Create inserts the party row and its membership rows in one transaction.
func (r *WatchPartyRepo) Create(ctx context.Context, wp *model.WatchParty) error {
	movies, err := json.Marshal(wp.Movies)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO watch_parties (id, title, description, host_id, date_time, movies, is_public, status, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, wp.ID, wp.Title, wp.Description, wp.HostID, wp.DateTime.UTC(),
		movies, wp.IsPublic, string(wp.Status), wp.CreatedAt.UTC()); err != nil {
		return err
	}

	const m = `INSERT INTO watch_party_members (watch_party_id, user_id, role, added_at) VALUES (?, ?, ?, ?)`
	// added_at is offset per row so that participant order survives the round trip
	at := wp.CreatedAt.UTC()
	for _, uid := range wp.Participants {
		if _, err := tx.ExecContext(ctx, m, wp.ID, uid, roleParticipant, at); err != nil {
			return err
		}
		at = at.Add(time.Microsecond)
	}
	for _, uid := range wp.InvitedUserIDs {
		if _, err := tx.ExecContext(ctx, m, wp.ID, uid, roleInvited, at); err != nil {
			return err
		}
		at = at.Add(time.Microsecond)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const selectWatchParty = `SELECT w.id, w.title, w.description, w.host_id, w.date_time, w.movies, w.is_public, w.status, w.created_at
                          FROM watch_parties w`

// GetByID retrieves a party and its members.  It returns ErrNotFound if
// there is no matching row.
func (r *WatchPartyRepo) GetByID(ctx context.Context, id string) (*model.WatchParty, error) {
	row := r.db.QueryRowContext(ctx, selectWatchParty+` WHERE w.id = ?`, id)
	wp, err := scanWatchParty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	parties := []model.WatchParty{*wp}
	if err := r.loadMembers(ctx, parties); err != nil {
		return nil, err
	}
	return &parties[0], nil
}

// ListByParticipant returns every party the user joined.
func (r *WatchPartyRepo) ListByParticipant(ctx context.Context, userID string) ([]model.WatchParty, error) {
	const q = selectWatchParty + `
               JOIN watch_party_members m ON m.watch_party_id = w.id
               WHERE m.user_id = ? AND m.role = ?`
	return r.list(ctx, q, userID, roleParticipant)
}

// ListPublicScheduled returns every public party that is still scheduled.
func (r *WatchPartyRepo) ListPublicScheduled(ctx context.Context) ([]model.WatchParty, error) {
	const q = selectWatchParty + ` WHERE w.is_public = TRUE AND w.status = ?`
	return r.list(ctx, q, string(model.StatusScheduled))
}

// AddParticipant promotes userID to participant with a single statement.
// For invite-only parties only an existing invited row is updated; for
// public parties the row is inserted or promoted.  MySQL reports zero
// affected rows when nothing changed, which means the user had already
// joined (or lost the invitation to a concurrent join).
func (r *WatchPartyRepo) AddParticipant(ctx context.Context, id, userID string, requireInvite bool) error {
	var (
		res sql.Result
		err error
	)
	if requireInvite {
		const q = `UPDATE watch_party_members SET role = ?, added_at = ?
                   WHERE watch_party_id = ? AND user_id = ? AND role = ?`
		res, err = r.db.ExecContext(ctx, q, roleParticipant, time.Now().UTC(), id, userID, roleInvited)
	} else {
		const q = `INSERT INTO watch_party_members (watch_party_id, user_id, role, added_at) VALUES (?, ?, ?, ?)
                   ON DUPLICATE KEY UPDATE added_at = IF(role = VALUES(role), added_at, VALUES(added_at)), role = VALUES(role)`
		res, err = r.db.ExecContext(ctx, q, id, userID, roleParticipant, time.Now().UTC())
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (r *WatchPartyRepo) list(ctx context.Context, q string, args ...any) ([]model.WatchParty, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.WatchParty{}
	for rows.Next() {
		wp, err := scanWatchParty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *wp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// loadMembers fills Participants and InvitedUserIDs for all parties with
// one query.
func (r *WatchPartyRepo) loadMembers(ctx context.Context, parties []model.WatchParty) error {
	if len(parties) == 0 {
		return nil
	}
	index := make(map[string]int, len(parties))
	args := make([]any, 0, len(parties))
	for i := range parties {
		index[parties[i].ID] = i
		parties[i].Participants = []string{}
		parties[i].InvitedUserIDs = []string{}
		args = append(args, parties[i].ID)
	}
	q := `SELECT watch_party_id, user_id, role FROM watch_party_members
          WHERE watch_party_id IN (?` + strings.Repeat(",?", len(args)-1) + `)
          ORDER BY added_at ASC, user_id ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var wpID, userID, role string
		if err := rows.Scan(&wpID, &userID, &role); err != nil {
			return err
		}
		i, ok := index[wpID]
		if !ok {
			continue
		}
		if role == roleParticipant {
			parties[i].Participants = append(parties[i].Participants, userID)
		} else {
			parties[i].InvitedUserIDs = append(parties[i].InvitedUserIDs, userID)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWatchParty(s rowScanner) (*model.WatchParty, error) {
	var (
		wp     model.WatchParty
		movies []byte
		status string
	)
	if err := s.Scan(&wp.ID, &wp.Title, &wp.Description, &wp.HostID, &wp.DateTime, &movies,
		&wp.IsPublic, &status, &wp.CreatedAt); err != nil {
		return nil, err
	}
	wp.Status = model.WatchPartyStatus(status)
	wp.Movies = []model.MovieSummary{}
	if len(movies) > 0 {
		if err := json.Unmarshal(movies, &wp.Movies); err != nil {
			return nil, err
		}
	}
	return &wp, nil
}
