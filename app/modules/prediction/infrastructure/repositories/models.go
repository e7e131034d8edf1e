package predictiondb

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
)

// Match is a single fixture. The result columns stay NULL until an admin records them.
type Match struct {
	bun.BaseModel `bun:"table:matches,alias:m"`

	ID               uuid.UUID     `bun:"id,pk,type:uuid"`
	LeagueID         uuid.UUID     `bun:"league_id,type:uuid,notnull"`
	HomeTeamID       uuid.UUID     `bun:"home_team_id,type:uuid,notnull"`
	AwayTeamID       uuid.UUID     `bun:"away_team_id,type:uuid,notnull"`
	DateTime         time.Time     `bun:"date_time,notnull"`
	IsPlayoff        bool          `bun:"is_playoff,notnull"`
	IsEvaluated      bool          `bun:"is_evaluated,notnull"`
	HomeRegularScore *int          `bun:"home_regular_score"`
	AwayRegularScore *int          `bun:"away_regular_score"`
	HomeFinalScore   *int          `bun:"home_final_score"`
	AwayFinalScore   *int          `bun:"away_final_score"`
	IsOvertime       bool          `bun:"is_overtime,notnull"`
	IsShootout       bool          `bun:"is_shootout,notnull"`
	Scorers          []MatchScorer `bun:"rel:has-many,join:id=match_id"`
	CreatedAt        time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time     `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt        *time.Time    `bun:"deleted_at"`
}

// ResultSet reports whether both the regular and the final score are recorded.
func (m *Match) ResultSet() bool {
	return m.HomeRegularScore != nil && m.AwayRegularScore != nil &&
		m.HomeFinalScore != nil && m.AwayFinalScore != nil
}

// ScorerIDs returns the players recorded as scoring in the match.
func (m *Match) ScorerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m.Scorers))
	for _, s := range m.Scorers {
		if s.NumberOfGoals > 0 {
			ids = append(ids, s.PlayerID)
		}
	}
	return ids
}

// MatchScorer records how many goals a player scored in a match.
type MatchScorer struct {
	bun.BaseModel `bun:"table:match_scorers,alias:ms"`

	MatchID       uuid.UUID `bun:"match_id,pk,type:uuid"`
	PlayerID      uuid.UUID `bun:"player_id,pk,type:uuid"`
	NumberOfGoals int       `bun:"number_of_goals,notnull"`
}

// Series is a best-of-N playoff series.
type Series struct {
	bun.BaseModel `bun:"table:series,alias:s"`

	ID            uuid.UUID  `bun:"id,pk,type:uuid"`
	LeagueID      uuid.UUID  `bun:"league_id,type:uuid,notnull"`
	HomeTeamID    uuid.UUID  `bun:"home_team_id,type:uuid,notnull"`
	AwayTeamID    uuid.UUID  `bun:"away_team_id,type:uuid,notnull"`
	BestOf        int        `bun:"best_of,notnull"`
	DateTime      time.Time  `bun:"date_time,notnull"`
	IsEvaluated   bool       `bun:"is_evaluated,notnull"`
	HomeTeamScore *int       `bun:"home_team_score"`
	AwayTeamScore *int       `bun:"away_team_score"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt     *time.Time `bun:"deleted_at"`
}

// ResultSet reports whether both win counts are recorded.
func (s *Series) ResultSet() bool {
	return s.HomeTeamScore != nil && s.AwayTeamScore != nil
}

// SpecialBet is a one-off prediction (tournament winner, top scorer, a number).
type SpecialBet struct {
	bun.BaseModel `bun:"table:special_bets,alias:sb"`

	ID             uuid.UUID                 `bun:"id,pk,type:uuid"`
	LeagueID       uuid.UUID                 `bun:"league_id,type:uuid,notnull"`
	Name           string                    `bun:"name,notnull"`
	EvaluatorID    uuid.UUID                 `bun:"evaluator_id,type:uuid,notnull"`
	DateTime       time.Time                 `bun:"date_time,notnull"`
	IsEvaluated    bool                      `bun:"is_evaluated,notnull"`
	ResultTeamID   *uuid.UUID                `bun:"result_team_id,type:uuid"`
	ResultPlayerID *uuid.UUID                `bun:"result_player_id,type:uuid"`
	ResultValue    *decimal.Decimal          `bun:"result_value,type:numeric"`
	AdvancingTeams []SpecialBetAdvancingTeam `bun:"rel:has-many,join:id=special_bet_id"`
	CreatedAt      time.Time                 `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time                 `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt      *time.Time                `bun:"deleted_at"`
}

// ResultSet reports whether exactly one result field is recorded.
func (sb *SpecialBet) ResultSet() bool {
	set := 0
	if sb.ResultTeamID != nil {
		set++
	}
	if sb.ResultPlayerID != nil {
		set++
	}
	if sb.ResultValue != nil {
		set++
	}
	return set == 1
}

// AdvancingTeamIDs returns the teams recorded as leaving the group.
func (sb *SpecialBet) AdvancingTeamIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(sb.AdvancingTeams))
	for _, t := range sb.AdvancingTeams {
		ids = append(ids, t.TeamID)
	}
	return ids
}

// SpecialBetAdvancingTeam is one team in a group-stage special bet's advancing set.
type SpecialBetAdvancingTeam struct {
	bun.BaseModel `bun:"table:special_bet_advancing_teams,alias:sbat"`

	SpecialBetID uuid.UUID `bun:"special_bet_id,pk,type:uuid"`
	TeamID       uuid.UUID `bun:"team_id,pk,type:uuid"`
}

// Question is a yes/no prediction.
type Question struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid"`
	LeagueID    uuid.UUID  `bun:"league_id,type:uuid,notnull"`
	Text        string     `bun:"text,notnull"`
	DateTime    time.Time  `bun:"date_time,notnull"`
	IsEvaluated bool       `bun:"is_evaluated,notnull"`
	Result      *bool      `bun:"result"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt   *time.Time `bun:"deleted_at"`
}

// RuleConfig is the variant-specific JSON configuration of an evaluator rule.
type RuleConfig struct {
	WinnerPoints  *int `json:"winnerPoints,omitempty"`
	AdvancePoints *int `json:"advancePoints,omitempty"`
}

// EvaluatorRule selects a scoring variant and its points for a league and kind.
type EvaluatorRule struct {
	bun.BaseModel `bun:"table:evaluators,alias:ev"`

	ID        uuid.UUID                  `bun:"id,pk,type:uuid"`
	LeagueID  uuid.UUID                  `bun:"league_id,type:uuid,notnull"`
	Name      string                     `bun:"name,notnull"`
	Kind      predictiondomain.EventKind `bun:"kind,notnull"`
	Type      string                     `bun:"type,notnull"`
	Points    int                        `bun:"points,notnull"`
	Config    *RuleConfig                `bun:"config,type:jsonb"`
	IsActive  bool                       `bun:"is_active,notnull"`
	CreatedAt time.Time                  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time                  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt *time.Time                 `bun:"deleted_at"`
}

// MatchBet is a member's score prediction for a match.
type MatchBet struct {
	bun.BaseModel `bun:"table:match_bets,alias:mb"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid"`
	LeagueMemberID uuid.UUID  `bun:"league_member_id,type:uuid,notnull"`
	MatchID        uuid.UUID  `bun:"match_id,type:uuid,notnull"`
	HomeScore      int        `bun:"home_score,notnull"`
	AwayScore      int        `bun:"away_score,notnull"`
	ScorerID       *uuid.UUID `bun:"scorer_id,type:uuid"`
	Overtime       bool       `bun:"overtime,notnull"`
	TotalPoints    int        `bun:"total_points,notnull"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt      *time.Time `bun:"deleted_at"`

	UserID      string `bun:"user_id,scanonly"`
	DisplayName string `bun:"display_name,scanonly"`
}

// SeriesBet is a member's win-count prediction for a series.
type SeriesBet struct {
	bun.BaseModel `bun:"table:series_bets,alias:srb"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid"`
	LeagueMemberID uuid.UUID  `bun:"league_member_id,type:uuid,notnull"`
	SeriesID       uuid.UUID  `bun:"series_id,type:uuid,notnull"`
	HomeTeamScore  int        `bun:"home_team_score,notnull"`
	AwayTeamScore  int        `bun:"away_team_score,notnull"`
	TotalPoints    int        `bun:"total_points,notnull"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt      *time.Time `bun:"deleted_at"`

	UserID      string `bun:"user_id,scanonly"`
	DisplayName string `bun:"display_name,scanonly"`
}

// SpecialBetBet is a member's pick for a special bet; exactly one pick column is set.
type SpecialBetBet struct {
	bun.BaseModel `bun:"table:special_bet_bets,alias:sbb"`

	ID             uuid.UUID        `bun:"id,pk,type:uuid"`
	LeagueMemberID uuid.UUID        `bun:"league_member_id,type:uuid,notnull"`
	SpecialBetID   uuid.UUID        `bun:"special_bet_id,type:uuid,notnull"`
	TeamID         *uuid.UUID       `bun:"team_id,type:uuid"`
	PlayerID       *uuid.UUID       `bun:"player_id,type:uuid"`
	Value          *decimal.Decimal `bun:"value,type:numeric"`
	TotalPoints    int              `bun:"total_points,notnull"`
	CreatedAt      time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time        `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt      *time.Time       `bun:"deleted_at"`

	UserID      string `bun:"user_id,scanonly"`
	DisplayName string `bun:"display_name,scanonly"`
}

// QuestionBet is a member's yes/no answer.
type QuestionBet struct {
	bun.BaseModel `bun:"table:question_bets,alias:qb"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid"`
	LeagueMemberID uuid.UUID  `bun:"league_member_id,type:uuid,notnull"`
	QuestionID     uuid.UUID  `bun:"question_id,type:uuid,notnull"`
	Prediction     *bool      `bun:"prediction"`
	TotalPoints    int        `bun:"total_points,notnull"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt      *time.Time `bun:"deleted_at"`

	UserID      string `bun:"user_id,scanonly"`
	DisplayName string `bun:"display_name,scanonly"`
}

// EventHeader is the kind-independent part of an event.
type EventHeader struct {
	ID          uuid.UUID `bun:"id"`
	LeagueID    uuid.UUID `bun:"league_id"`
	DateTime    time.Time `bun:"date_time"`
	IsEvaluated bool      `bun:"is_evaluated"`
}

// AuditLog is one row written by the audit worker.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64          `bun:"id,pk,autoincrement"`
	Action     string         `bun:"action,notnull"`
	UserID     string         `bun:"user_id"`
	LeagueID   uuid.UUID      `bun:"league_id,type:uuid,notnull"`
	EventKind  string         `bun:"event_kind,notnull"`
	EventID    uuid.UUID      `bun:"event_id,type:uuid,notnull"`
	Metadata   map[string]any `bun:"metadata,type:jsonb"`
	DurationMs int64          `bun:"duration_ms,notnull"`
	OccurredAt time.Time      `bun:"occurred_at,notnull"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
