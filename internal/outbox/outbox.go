package outbox

import (
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/EzRa021/Muhu-voice-app/internal/boot"
	"github.com/EzRa021/Muhu-voice-app/internal/model"
)

// outbox is the durable queue of messages that could not be confirmed
// delivered. Entries are keyed by message id and survive process restarts.
type outbox struct {
	mu sync.Mutex
	db *sqlx.DB
}

func Open(userID string, config *boot.Config) (*outbox, error) {
	dbName := path.Join(config.DataDirectory(), userID+"-outbox.db")

	db, err := sqlx.Connect("sqlite3", "file:"+dbName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ob := &outbox{db: db}
	if err := ob.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return ob, nil
}

func (o *outbox) Close() error {
	return o.db.Close()
}

func (o *outbox) createTables() error {
	_, err := o.db.Exec(`create table if not exists outbox(
		ID        text not null primary key,
		CreatedAt DATETIME not null,
		ChatID    text not null,
		Sender    text not null,
		Text      text not null default '',
		AudioRef  text not null default '',
		Timestamp integer not null,
		Language  text not null,
		Status    text not null
	)`)
	if err != nil {
		return fmt.Errorf("creating outbox table: %w", err)
	}
	return nil
}

// Enqueue persists a message before returning. A second enqueue with the
// same id is a no-op. Write failures wrap model.ErrorStorageFailure; the
// message is then only held in memory and is lost on process termination.
func (o *outbox) Enqueue(message *model.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	_, err := o.db.NamedExec(`insert or ignore into outbox
		(ID, CreatedAt, ChatID, Sender, Text, AudioRef, Timestamp, Language, Status)
		values(:ID, :CreatedAt, :ChatID, :Sender, :Text, :AudioRef, :Timestamp, :Language, :Status)`, message)
	if err != nil {
		return fmt.Errorf("%w: inserting outbox entry: %v", model.ErrorStorageFailure, err)
	}

	return nil
}

// ListAll returns queued messages oldest first. Repeated calls without
// mutation return identical results.
func (o *outbox) ListAll() ([]*model.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	messages := []*model.Message{}
	err := o.db.Select(&messages, `select * from outbox order by rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing outbox entries: %w", err)
	}
	return messages, nil
}

// Remove deletes the entry with this id, if any.
func (o *outbox) Remove(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, err := o.db.Exec(`delete from outbox where ID = ?`, id)
	if err != nil {
		return fmt.Errorf("removing outbox entry: %w", err)
	}
	return nil
}
