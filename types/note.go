package types

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultIcon = "calendar"

// Icons is the closed set of symbolic tokens accepted for a note's icon and accent.
var Icons = []string{"calendar", "clipboard", "flowswitch", "cake", "camera", "settings", "chat"}

// NormalizeIcon returns s when it is a known icon token and DefaultIcon otherwise.
func NormalizeIcon(s string) string {
	s = strings.TrimSpace(s)
	if slices.Contains(Icons, s) {
		return s
	}
	return DefaultIcon
}

type Note struct {
	ID               string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Owner            string     `gorm:"size:64;not null;index:idx_notes_owner_created,priority:1;index:idx_notes_owner_deleted,priority:1" bson:"owner" json:"-"`
	Title            string     `gorm:"size:200;not null" bson:"title" json:"title"`
	Content          string     `gorm:"type:text;not null" bson:"content" json:"content"`
	PlainTextContent string     `gorm:"type:text" bson:"plain_text_content" json:"plainTextContent"`
	Icon             string     `gorm:"size:16" bson:"icon" json:"icon"`
	Accent           string     `gorm:"size:16" bson:"accent" json:"accent"`
	IsFavorite       bool       `gorm:"not null" bson:"is_favorite" json:"isFavorite"`
	IsArchived       bool       `gorm:"not null" bson:"is_archived" json:"isArchived"`
	IsDeleted        bool       `gorm:"not null;index:idx_notes_owner_deleted,priority:2" bson:"is_deleted" json:"isDeleted"`
	DeletedAt        *time.Time `bson:"deleted_at" json:"deletedAt"`
	Tags             []string   `gorm:"serializer:json" bson:"tags" json:"tags"`
	TagIndex         string     `gorm:"type:text" bson:"-" json:"-"`
	CreatedAt        time.Time  `gorm:"autoCreateTime:false;index:idx_notes_owner_created,priority:2" bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime:false" bson:"updated_at" json:"updatedAt"`
}

// tagSeparator never appears inside a tag, so a substring match against TagIndex is a
// substring match against one tag.
const tagSeparator = "\x1f"

// BuildTagIndex lower-cases and joins tags so SQL stores can match tag substrings with LIKE.
func BuildTagIndex(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	lowered := make([]string, 0, len(tags))
	for _, t := range tags {
		lowered = append(lowered, strings.ToLower(strings.ReplaceAll(t, tagSeparator, " ")))
	}
	return tagSeparator + strings.Join(lowered, tagSeparator) + tagSeparator
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

func (n *Note) BeforeSave(tx *gorm.DB) error {
	n.TagIndex = BuildTagIndex(n.Tags)
	return nil
}

// NoteFields is the input for creating a note.
type NoteFields struct {
	Title   string   `json:"title" form:"title" validate:"required,max=200"`
	Content string   `json:"content" form:"content" validate:"required"`
	Icon    string   `json:"icon,omitempty" form:"icon"`
	Accent  string   `json:"accent,omitempty" form:"accent"`
	Tags    []string `json:"tags,omitempty" form:"tags" validate:"dive,max=50"`
}

// NotePatch is a field-level partial update. Nil fields are left untouched.
type NotePatch struct {
	Title      *string      `json:"title,omitempty" validate:"omitnil,min=1,max=200"`
	Content    *string      `json:"content,omitempty" validate:"omitnil,min=1"`
	Icon       *string      `json:"icon,omitempty"`
	Accent     *string      `json:"accent,omitempty"`
	IsFavorite *bool        `json:"isFavorite,omitempty"`
	IsArchived *bool        `json:"isArchived,omitempty"`
	IsDeleted  *bool        `json:"isDeleted,omitempty"`
	DeletedAt  OptionalTime `json:"deletedAt,omitzero"`
	Tags       *[]string    `json:"tags,omitempty" validate:"omitnil,dive,max=50"`
}

// OptionalTime tells an absent JSON key apart from an explicit null.
type OptionalTime struct {
	Set  bool
	Time *time.Time
}

func SetTime(t *time.Time) OptionalTime {
	return OptionalTime{Set: true, Time: t}
}

func (o OptionalTime) IsZero() bool {
	return !o.Set
}

func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if o.Time == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Time)
}

func (o *OptionalTime) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Time = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	o.Time = &t
	return nil
}

func Ptr[T any](v T) *T {
	return &v
}
