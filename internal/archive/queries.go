package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/agnivade/levenshtein"

	"peerscope/internal/domain"
)

const peerColumns = `id, kind, name, username, about, member_count, migrated_to, migrated_from`

// Peer returns one peer row, ErrNotFound when absent
func (a *Archive) Peer(id domain.PeerID) (*domain.Peer, error) {
	row := a.db.QueryRow(`SELECT `+peerColumns+` FROM peers WHERE id = ?`, int64(id))
	p, err := scanPeer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("peer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query peer %d: %w", id, err)
	}
	return p, nil
}

// Peers returns every peer ordered by display name
func (a *Archive) Peers() ([]*domain.Peer, error) {
	rows, err := a.db.Query(`SELECT ` + peerColumns + ` FROM peers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query peers: %w", err)
	}
	defer rows.Close()

	var out []*domain.Peer
	for rows.Next() {
		p, err := scanPeer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan peer: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate peers: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeer(row rowScanner) (*domain.Peer, error) {
	var (
		id, migratedTo, migratedFrom int64
		kind, memberCount            int
		name, username, about        string
	)
	err := row.Scan(&id, &kind, &name, &username, &about, &memberCount, &migratedTo, &migratedFrom)
	if err != nil {
		return nil, err
	}
	return &domain.Peer{
		ID:           domain.PeerID(id),
		Kind:         domain.PeerKind(kind),
		Name:         name,
		Username:     username,
		About:        about,
		MemberCount:  memberCount,
		MigratedTo:   domain.PeerID(migratedTo),
		MigratedFrom: domain.PeerID(migratedFrom),
	}, nil
}

const mediaColumns = `peer_id, msg_id, date, text, media_kind, file_name, size, blob_key`

// mediaFilter builds the WHERE condition and ORDER BY clause for a
// merged media timeline. When migrated is non-zero its rows sort
// before the main peer's rows; within a timeline rows sort by id.
func mediaFilter(peer, migrated domain.PeerID, kind domain.MediaKind) (cond, order string, args []any) {
	if migrated != 0 {
		cond = `peer_id IN (?, ?)`
		args = append(args, int64(migrated), int64(peer))
		order = fmt.Sprintf(`CASE peer_id WHEN %d THEN 0 ELSE 1 END, msg_id`, int64(migrated))
	} else {
		cond = `peer_id = ?`
		args = append(args, int64(peer))
		order = `msg_id`
	}
	if kind == domain.MediaNone {
		cond += ` AND media_kind != 0`
	} else {
		cond += ` AND media_kind = ?`
		args = append(args, int(kind))
	}
	return cond, order, args
}

// MediaItems returns the full merged media timeline for one kind,
// in ascending order
func (a *Archive) MediaItems(peer, migrated domain.PeerID, kind domain.MediaKind) ([]domain.MediaItem, error) {
	cond, order, args := mediaFilter(peer, migrated, kind)
	rows, err := a.db.Query(
		`SELECT `+mediaColumns+` FROM messages WHERE `+cond+` ORDER BY `+order, args...)
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	defer rows.Close()
	return scanMediaItems(rows)
}

// SearchMedia filters a merged media timeline by text. Substring
// matches against caption and file name win; when none exist and the
// query is long enough, a fuzzy token pass runs instead so near-miss
// spellings still find their media. Result order stays ascending.
func (a *Archive) SearchMedia(peer, migrated domain.PeerID, kind domain.MediaKind, query string) ([]domain.MediaItem, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return a.MediaItems(peer, migrated, kind)
	}

	cond, order, args := mediaFilter(peer, migrated, kind)
	pattern := "%" + needle + "%"
	args = append(args, pattern, pattern)
	rows, err := a.db.Query(
		`SELECT `+mediaColumns+` FROM messages WHERE `+cond+
			` AND (LOWER(text) LIKE ? OR LOWER(file_name) LIKE ?) ORDER BY `+order, args...)
	if err != nil {
		return nil, fmt.Errorf("search media: %w", err)
	}
	defer rows.Close()
	items, err := scanMediaItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 || len([]rune(needle)) < 4 {
		return items, nil
	}

	all, err := a.MediaItems(peer, migrated, kind)
	if err != nil {
		return nil, err
	}
	var fuzzy []domain.MediaItem
	for _, it := range all {
		if fuzzyMatches(it, needle) {
			fuzzy = append(fuzzy, it)
		}
	}
	return fuzzy, nil
}

// fuzzyMatches reports whether any word of the item's caption or file
// name is within edit distance 2 of the needle
func fuzzyMatches(it domain.MediaItem, needle string) bool {
	hay := strings.ToLower(it.Caption + " " + it.File)
	words := strings.FieldsFunc(hay, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		if levenshtein.ComputeDistance(w, needle) <= 2 {
			return true
		}
	}
	return false
}

func scanMediaItems(rows *sql.Rows) ([]domain.MediaItem, error) {
	var out []domain.MediaItem
	for rows.Next() {
		var (
			peerID, msgID, date, size int64
			kind                      int
			text, file, blobKey       string
		)
		if err := rows.Scan(&peerID, &msgID, &date, &text, &kind, &file, &size, &blobKey); err != nil {
			return nil, fmt.Errorf("scan media row: %w", err)
		}
		out = append(out, domain.MediaItem{
			ID:      domain.FullMsgID{Peer: domain.PeerID(peerID), Msg: domain.MsgID(msgID)},
			Kind:    domain.MediaKind(kind),
			Date:    time.Unix(date, 0),
			Caption: text,
			File:    file,
			Size:    size,
			BlobKey: blobKey,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media rows: %w", err)
	}
	return out, nil
}

const messageColumns = `peer_id, msg_id, from_id, date, text, media_kind, file_name, size, blob_key, poll_id`

// Message returns one message row, ErrNotFound when absent
func (a *Archive) Message(id domain.FullMsgID) (*domain.Message, error) {
	row := a.db.QueryRow(
		`SELECT `+messageColumns+` FROM messages WHERE peer_id = ? AND msg_id = ?`,
		int64(id.Peer), int64(id.Msg))
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("message %d/%d: %w", id.Peer, id.Msg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query message %d/%d: %w", id.Peer, id.Msg, err)
	}
	return m, nil
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var (
		peerID, msgID, fromID, date, size, pollID int64
		kind                                      int
		text, file, blobKey                       string
	)
	err := row.Scan(&peerID, &msgID, &fromID, &date, &text, &kind, &file, &size, &blobKey, &pollID)
	if err != nil {
		return nil, err
	}
	return &domain.Message{
		ID:      domain.FullMsgID{Peer: domain.PeerID(peerID), Msg: domain.MsgID(msgID)},
		From:    domain.PeerID(fromID),
		Date:    time.Unix(date, 0),
		Text:    text,
		Media:   domain.MediaKind(kind),
		File:    file,
		Size:    size,
		BlobKey: blobKey,
		PollID:  domain.PollID(pollID),
	}, nil
}

// MessagesAround returns up to before messages ending at the anchor
// (inclusive) followed by up to after messages past it, ascending.
// A zero anchor means the latest window of the timeline.
func (a *Archive) MessagesAround(peer domain.PeerID, around domain.MsgID, before, after int) ([]domain.Message, error) {
	if around == 0 {
		rows, err := a.db.Query(
			`SELECT `+messageColumns+` FROM messages WHERE peer_id = ? ORDER BY msg_id DESC LIMIT ?`,
			int64(peer), before+after)
		if err != nil {
			return nil, fmt.Errorf("query history: %w", err)
		}
		defer rows.Close()
		msgs, err := scanMessages(rows)
		if err != nil {
			return nil, err
		}
		reverseMessages(msgs)
		return msgs, nil
	}

	rows, err := a.db.Query(
		`SELECT `+messageColumns+` FROM messages WHERE peer_id = ? AND msg_id <= ? ORDER BY msg_id DESC LIMIT ?`,
		int64(peer), int64(around), before)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	earlier, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	reverseMessages(earlier)

	laterRows, err := a.db.Query(
		`SELECT `+messageColumns+` FROM messages WHERE peer_id = ? AND msg_id > ? ORDER BY msg_id LIMIT ?`,
		int64(peer), int64(around), after)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer laterRows.Close()
	later, err := scanMessages(laterRows)
	if err != nil {
		return nil, err
	}
	return append(earlier, later...), nil
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

func reverseMessages(msgs []domain.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

// Members returns the membership of a group or channel, oldest first
func (a *Archive) Members(peer domain.PeerID) ([]domain.Member, error) {
	rows, err := a.db.Query(
		`SELECT peer_id, user_id, name, role, joined FROM members WHERE peer_id = ? ORDER BY joined, user_id`,
		int64(peer))
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var (
			peerID, userID, joined int64
			name, role             string
		)
		if err := rows.Scan(&peerID, &userID, &name, &role, &joined); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, domain.Member{
			Peer:   domain.PeerID(peerID),
			User:   domain.UserID(userID),
			Name:   name,
			Role:   role,
			Joined: time.Unix(joined, 0),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return out, nil
}

// CommonGroups returns the groups and channels both users belong to,
// ordered by name
func (a *Archive) CommonGroups(user, self domain.UserID) ([]*domain.Peer, error) {
	rows, err := a.db.Query(
		`SELECT p.id, p.kind, p.name, p.username, p.about, p.member_count, p.migrated_to, p.migrated_from
		 FROM peers p
		 JOIN members mu ON mu.peer_id = p.id AND mu.user_id = ?
		 JOIN members ms ON ms.peer_id = p.id AND ms.user_id = ?
		 ORDER BY p.name, p.id`,
		int64(user), int64(self))
	if err != nil {
		return nil, fmt.Errorf("query common groups: %w", err)
	}
	defer rows.Close()

	var out []*domain.Peer
	for rows.Next() {
		p, err := scanPeer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan common group: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate common groups: %w", err)
	}
	return out, nil
}

// Poll returns one poll with its answers, ErrNotFound when absent
func (a *Archive) Poll(id domain.PollID) (*domain.Poll, error) {
	var (
		question string
		closed   int
	)
	err := a.db.QueryRow(`SELECT question, closed FROM polls WHERE id = ?`, int64(id)).
		Scan(&question, &closed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("poll %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query poll %d: %w", id, err)
	}

	rows, err := a.db.Query(
		`SELECT text, votes FROM poll_answers WHERE poll_id = ? ORDER BY idx`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("query poll answers: %w", err)
	}
	defer rows.Close()

	poll := &domain.Poll{ID: id, Question: question, Closed: closed != 0}
	for rows.Next() {
		var ans domain.PollAnswer
		if err := rows.Scan(&ans.Text, &ans.Votes); err != nil {
			return nil, fmt.Errorf("scan poll answer: %w", err)
		}
		poll.Answers = append(poll.Answers, ans)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate poll answers: %w", err)
	}
	return poll, nil
}

// MessageCount counts the messages in one peer's timeline
func (a *Archive) MessageCount(peer domain.PeerID) (int, error) {
	var n int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE peer_id = ?`, int64(peer)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// MediaCount counts merged media rows of one kind
func (a *Archive) MediaCount(peer, migrated domain.PeerID, kind domain.MediaKind) (int, error) {
	cond, _, args := mediaFilter(peer, migrated, kind)
	var n int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE `+cond, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return n, nil
}
