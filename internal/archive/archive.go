// Package archive reads and writes a peerscope export: a SQLite index of
// peers, messages, members and polls, next to a compressed blob store
// holding media payloads.
package archive

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"peerscope/internal/domain"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("archive: not found")

// Archive is an opened export directory
type Archive struct {
	db    *sql.DB
	blobs *BlobStore
	dir   string
}

// Open opens (creating if necessary) the archive in dir and brings the
// schema up to date.
func Open(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	dbPath := filepath.Join(dir, "archive.db")
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive db: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	blobs, err := NewBlobStore(filepath.Join(dir, "blobs"))
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Archive{db: db, blobs: blobs, dir: dir}, nil
}

// migrateUp applies embedded schema migrations
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}

// Dir returns the archive directory
func (a *Archive) Dir() string {
	return a.dir
}

// Blobs exposes the payload store
func (a *Archive) Blobs() *BlobStore {
	return a.blobs
}

// Empty reports whether the archive holds no peers yet
func (a *Archive) Empty() (bool, error) {
	var n int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM peers`).Scan(&n); err != nil {
		return false, fmt.Errorf("count peers: %w", err)
	}
	return n == 0, nil
}

// SetSelf records which user the export belongs to
func (a *Archive) SetSelf(id domain.UserID) error {
	_, err := a.db.Exec(
		`INSERT INTO meta (key, value) VALUES ('self_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		int64(id))
	if err != nil {
		return fmt.Errorf("set self: %w", err)
	}
	return nil
}

// Self returns the export owner's user id, 0 when unset
func (a *Archive) Self() (domain.UserID, error) {
	var v int64
	err := a.db.QueryRow(`SELECT value FROM meta WHERE key = 'self_id'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read self: %w", err)
	}
	return domain.UserID(v), nil
}

// PutPeer inserts or replaces a peer row
func (a *Archive) PutPeer(p *domain.Peer) error {
	_, err := a.db.Exec(
		`INSERT INTO peers (id, kind, name, username, about, member_count, migrated_to, migrated_from)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   kind = excluded.kind, name = excluded.name, username = excluded.username,
		   about = excluded.about, member_count = excluded.member_count,
		   migrated_to = excluded.migrated_to, migrated_from = excluded.migrated_from`,
		int64(p.ID), int(p.Kind), p.Name, p.Username, p.About,
		p.MemberCount, int64(p.MigratedTo), int64(p.MigratedFrom))
	if err != nil {
		return fmt.Errorf("put peer %d: %w", p.ID, err)
	}
	return nil
}

// PutMessage inserts or replaces a message row and, when payload is
// non-nil, stores it in the blob store under the message's blob key.
func (a *Archive) PutMessage(m *domain.Message, payload []byte) error {
	if payload != nil && m.BlobKey != "" {
		if err := a.blobs.Put(m.BlobKey, payload); err != nil {
			return err
		}
	}
	_, err := a.db.Exec(
		`INSERT INTO messages (peer_id, msg_id, from_id, date, text, media_kind, file_name, size, blob_key, poll_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(peer_id, msg_id) DO UPDATE SET
		   from_id = excluded.from_id, date = excluded.date, text = excluded.text,
		   media_kind = excluded.media_kind, file_name = excluded.file_name,
		   size = excluded.size, blob_key = excluded.blob_key, poll_id = excluded.poll_id`,
		int64(m.ID.Peer), int64(m.ID.Msg), int64(m.From), m.Date.Unix(), m.Text,
		int(m.Media), m.File, m.Size, m.BlobKey, int64(m.PollID))
	if err != nil {
		return fmt.Errorf("put message %d/%d: %w", m.ID.Peer, m.ID.Msg, err)
	}
	return nil
}

// DeleteMessage removes a message row and its blob, if any.
// Deleting an absent message is not an error.
func (a *Archive) DeleteMessage(id domain.FullMsgID) error {
	var blobKey string
	err := a.db.QueryRow(
		`SELECT blob_key FROM messages WHERE peer_id = ? AND msg_id = ?`,
		int64(id.Peer), int64(id.Msg)).Scan(&blobKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup message %d/%d: %w", id.Peer, id.Msg, err)
	}
	if _, err := a.db.Exec(
		`DELETE FROM messages WHERE peer_id = ? AND msg_id = ?`,
		int64(id.Peer), int64(id.Msg)); err != nil {
		return fmt.Errorf("delete message %d/%d: %w", id.Peer, id.Msg, err)
	}
	if blobKey != "" {
		if err := a.blobs.Delete(blobKey); err != nil {
			// Index row is gone; a dangling blob only wastes space.
			log.Printf("archive: delete blob %s: %v", blobKey, err)
		}
	}
	return nil
}

// PutMember inserts or replaces a membership row
func (a *Archive) PutMember(m *domain.Member) error {
	_, err := a.db.Exec(
		`INSERT INTO members (peer_id, user_id, name, role, joined)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(peer_id, user_id) DO UPDATE SET
		   name = excluded.name, role = excluded.role, joined = excluded.joined`,
		int64(m.Peer), int64(m.User), m.Name, m.Role, m.Joined.Unix())
	if err != nil {
		return fmt.Errorf("put member %d/%d: %w", m.Peer, m.User, err)
	}
	return nil
}

// PutPoll inserts or replaces a poll with its answers
func (a *Archive) PutPoll(p *domain.Poll) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("put poll %d: %w", p.ID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO polls (id, question, closed) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET question = excluded.question, closed = excluded.closed`,
		int64(p.ID), p.Question, boolToInt(p.Closed)); err != nil {
		return fmt.Errorf("put poll %d: %w", p.ID, err)
	}
	if _, err := tx.Exec(`DELETE FROM poll_answers WHERE poll_id = ?`, int64(p.ID)); err != nil {
		return fmt.Errorf("put poll %d: %w", p.ID, err)
	}
	for i, ans := range p.Answers {
		if _, err := tx.Exec(
			`INSERT INTO poll_answers (poll_id, idx, text, votes) VALUES (?, ?, ?, ?)`,
			int64(p.ID), i, ans.Text, ans.Votes); err != nil {
			return fmt.Errorf("put poll %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// ApplyMigration links a group to its successor channel
func (a *Archive) ApplyMigration(chat, channel domain.PeerID) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE peers SET migrated_to = ? WHERE id = ?`,
		int64(channel), int64(chat)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE peers SET migrated_from = ? WHERE id = ?`,
		int64(chat), int64(channel)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
