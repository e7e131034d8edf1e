package leaguedb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// League is a tipping league.
type League struct {
	bun.BaseModel `bun:"table:leagues,alias:l"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid"`
	Name      string     `bun:"name,notnull"`
	IsActive  bool       `bun:"is_active,notnull"`
	IsPublic  bool       `bun:"is_public,notnull"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt *time.Time `bun:"deleted_at"`
}

// LeagueMember is a user's membership in a league.
type LeagueMember struct {
	bun.BaseModel `bun:"table:league_members,alias:lm"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid"`
	LeagueID    uuid.UUID  `bun:"league_id,type:uuid,notnull"`
	UserID      string     `bun:"user_id,notnull"`
	DisplayName string     `bun:"display_name,notnull"`
	IsActive    bool       `bun:"is_active,notnull"`
	IsAdmin     bool       `bun:"is_admin,notnull"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt   *time.Time `bun:"deleted_at"`
}
