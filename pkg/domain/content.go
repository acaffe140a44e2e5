package domain

import (
	"context"
	"time"
)

type ContentStatus string

const (
	ContentStatus_Draft     ContentStatus = "DRAFT"
	ContentStatus_Published ContentStatus = "PUBLISHED"
)

type BlockType string

const (
	BlockType_Text   BlockType = "text"
	BlockType_Thread BlockType = "thread"
)

// Block is one unit of a content document's body. Text blocks hold a flat
// string; thread blocks hold an ordered list of sub-posts.
type Block struct {
	ID    string       `json:"id" bson:"id"`
	Type  BlockType    `json:"type" bson:"type"`
	Text  string       `json:"text,omitempty" bson:"text,omitempty"`
	Parts []ThreadPart `json:"parts,omitempty" bson:"parts,omitempty"`
}

type ThreadPart struct {
	Order int    `json:"order" bson:"order"`
	Text  string `json:"text" bson:"text"`
}

type Content struct {
	ID        string        `json:"id" bson:"id"`
	TeamID    string        `json:"team_id" bson:"team_id"`
	Title     string        `json:"title" bson:"title"`
	Blocks    []Block       `json:"blocks" bson:"blocks"`
	Status    ContentStatus `json:"status" bson:"status"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

type ContentRepository interface {
	Get(ctx context.Context, id string) (Content, error)
	Create(ctx context.Context, content Content) error
	UpdateStatus(ctx context.Context, id string, status ContentStatus) error
}
