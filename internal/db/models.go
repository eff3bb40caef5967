package db

import (
	"encoding/json"
	"time"
)

// IngestRun maps transfers.ingest_runs.
type IngestRun struct {
	RunID            int64           `gorm:"column:run_id;primaryKey;autoIncrement"`
	IngestRunUUID    string          `gorm:"column:ingest_run_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Source           string          `gorm:"column:source;type:text;not null"`
	StartedAt        time.Time       `gorm:"column:started_at;type:timestamptz;not null;default:now()"`
	FinishedAt       *time.Time      `gorm:"column:finished_at;type:timestamptz"`
	Status           string          `gorm:"column:status;type:text;not null;default:running"`
	ItemsFetched     int             `gorm:"column:items_fetched;type:integer;not null;default:0"`
	ItemsInserted    int             `gorm:"column:items_inserted;type:integer;not null;default:0"`
	CursorCheckpoint json.RawMessage `gorm:"column:cursor_checkpoint;type:jsonb"`
	ErrorMessage     *string         `gorm:"column:error_message;type:text"`
	CreatedAt        time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (IngestRun) TableName() string { return "transfers.ingest_runs" }

// SourceCheckpoint maps transfers.source_checkpoints.
type SourceCheckpoint struct {
	Source               string          `gorm:"column:source;type:text;primaryKey"`
	SourceCheckpointUUID string          `gorm:"column:source_checkpoint_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	CursorCheckpoint     json.RawMessage `gorm:"column:cursor_checkpoint;type:jsonb;not null"`
	LastSuccessfulRunID  *int64          `gorm:"column:last_successful_run_id;type:bigint"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (SourceCheckpoint) TableName() string { return "transfers.source_checkpoints" }

// RawItem maps transfers.raw_items: one ingested report awaiting, or done
// with, fact extraction.
type RawItem struct {
	RawItemID     int64           `gorm:"column:raw_item_id;primaryKey;autoIncrement"`
	RawItemUUID   string          `gorm:"column:raw_item_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	RunID         int64           `gorm:"column:run_id;type:bigint;not null"`
	Source        string          `gorm:"column:source;type:text;not null;uniqueIndex:ux_raw_items_source_item,priority:1"`
	SourceItemID  string          `gorm:"column:source_item_id;type:text;not null;uniqueIndex:ux_raw_items_source_item,priority:2"`
	AuthorName    string          `gorm:"column:author_name;type:text;not null;default:''"`
	Text          string          `gorm:"column:text;type:text;not null"`
	URL           *string         `gorm:"column:url;type:text"`
	Language      string          `gorm:"column:language;type:text;not null;default:und"`
	PublishedAt   *time.Time      `gorm:"column:published_at;type:timestamptz"`
	FetchedAt     time.Time       `gorm:"column:fetched_at;type:timestamptz;not null;default:now()"`
	RawPayload    json.RawMessage `gorm:"column:raw_payload;type:jsonb;not null"`
	PayloadHash   []byte          `gorm:"column:payload_hash;type:bytea;not null"`
	ProcessStatus string          `gorm:"column:process_status;type:text;not null;default:pending"`
	Attempts      int             `gorm:"column:attempts;type:integer;not null;default:0"`
	LastError     *string         `gorm:"column:last_error;type:text"`
	StoryID       *int64          `gorm:"column:story_id;type:bigint"`
	ProcessedAt   *time.Time      `gorm:"column:processed_at;type:timestamptz"`
	CreatedAt     time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (RawItem) TableName() string { return "transfers.raw_items" }

// Story maps transfers.stories: the durable aggregate keyed by identity key.
type Story struct {
	StoryID       int64           `gorm:"column:story_id;primaryKey;autoIncrement"`
	StoryUUID     string          `gorm:"column:story_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	IdentityKey   string          `gorm:"column:identity_key;type:text;not null;unique"`
	Player        string          `gorm:"column:player;type:text;not null"`
	PlayerKey     string          `gorm:"column:player_key;type:text;not null;index"`
	Status        string          `gorm:"column:status;type:text;not null;default:interest"`
	Importance    int             `gorm:"column:importance;type:integer;not null;default:1"`
	PrimaryClubs  json.RawMessage `gorm:"column:primary_clubs;type:jsonb"`
	Sources       json.RawMessage `gorm:"column:sources;type:jsonb"`
	UpdateCount   int             `gorm:"column:update_count;type:integer;not null;default:0"`
	LastUpdated   time.Time       `gorm:"column:last_updated;type:timestamptz;not null;index"`
	LastCheckedAt time.Time       `gorm:"column:last_checked_at;type:timestamptz;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Story) TableName() string { return "transfers.stories" }

// StoryFact maps transfers.story_facts: one extracted fact contributed to a
// story, in merge order.
type StoryFact struct {
	StoryID       int64           `gorm:"column:story_id;type:bigint;primaryKey"`
	Position      int             `gorm:"column:position;type:integer;primaryKey"`
	StoryFactUUID string          `gorm:"column:story_fact_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Facts         json.RawMessage `gorm:"column:facts;type:jsonb;not null"`
	SourceName    string          `gorm:"column:source_name;type:text;not null;default:''"`
	SourceURL     *string         `gorm:"column:source_url;type:text"`
	CreatedAt     time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (StoryFact) TableName() string { return "transfers.story_facts" }

// MergeEvent maps transfers.merge_events: the audit row written for every
// resolve decision.
type MergeEvent struct {
	MergeEventID   int64           `gorm:"column:merge_event_id;primaryKey;autoIncrement"`
	MergeEventUUID string          `gorm:"column:merge_event_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	RawItemID      int64           `gorm:"column:raw_item_id;type:bigint;not null"`
	StoryID        *int64          `gorm:"column:story_id;type:bigint"`
	Decision       string          `gorm:"column:decision;type:text;not null"`
	IdentityKey    *string         `gorm:"column:identity_key;type:text"`
	Material       bool            `gorm:"column:material;type:boolean;not null;default:false"`
	Ambiguous      bool            `gorm:"column:ambiguous;type:boolean;not null;default:false"`
	StatusBefore   *string         `gorm:"column:status_before;type:text"`
	StatusAfter    *string         `gorm:"column:status_after;type:text"`
	Details        json.RawMessage `gorm:"column:details;type:jsonb"`
	CreatedAt      time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (MergeEvent) TableName() string { return "transfers.merge_events" }

func autoMigrateModels() []any {
	return []any{
		&IngestRun{},
		&SourceCheckpoint{},
		&RawItem{},
		&Story{},
		&StoryFact{},
		&MergeEvent{},
	}
}
