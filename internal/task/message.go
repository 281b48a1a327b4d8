package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// KindBlobReclaim removes an orphaned blob whose record commit failed.
	KindBlobReclaim = "blob.reclaim"
	// KindShareNotice mails the recipient of a new share grant.
	KindShareNotice = "share.notice"
)

var ErrUnknownKind = errors.New("unknown task kind")

// Message is the payload carried on the task queue.
type Message struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Attempt   int       `json:"attempt"`
	CreatedAt time.Time `json:"created_at"`

	Path string `json:"path,omitempty"`

	FileID   string `json:"file_id,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Email    string `json:"email,omitempty"`
	SharedBy string `json:"shared_by,omitempty"`
}

// NewBlobReclaim builds a reclaim message for an orphaned object path.
func NewBlobReclaim(path string) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      KindBlobReclaim,
		CreatedAt: time.Now(),
		Path:      path,
	}
}

// NewShareNotice builds a notice for the recipient of a share grant.
func NewShareNotice(fileID, fileName, email, sharedBy string) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      KindShareNotice,
		CreatedAt: time.Now(),
		FileID:    fileID,
		FileName:  fileName,
		Email:     email,
		SharedBy:  sharedBy,
	}
}

func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Decode parses and validates a queue payload.
func Decode(body []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, fmt.Errorf("decode task: %w", err)
	}
	switch msg.Kind {
	case KindBlobReclaim:
		if msg.Path == "" {
			return Message{}, errors.New("decode task: reclaim without path")
		}
	case KindShareNotice:
		if msg.Email == "" {
			return Message{}, errors.New("decode task: notice without email")
		}
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, msg.Kind)
	}
	return msg, nil
}
