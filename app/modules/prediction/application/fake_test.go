package predictionservice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leagueservice "github.com/tipping-league/prediction-core/app/modules/league/application"
	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	predictiondb "github.com/tipping-league/prediction-core/app/modules/prediction/infrastructure/repositories"
)

// ------------------------
// Fake Prediction Repo
// ------------------------

type FakePredictionRepo struct {
	trace []string

	GetEventHeaderFunc          func(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, eventID uuid.UUID) (*predictiondb.EventHeader, error)
	GetMatchFunc                func(ctx context.Context, db bun.IDB, matchID uuid.UUID) (*predictiondb.Match, error)
	GetSeriesFunc               func(ctx context.Context, db bun.IDB, seriesID uuid.UUID) (*predictiondb.Series, error)
	GetSpecialBetFunc           func(ctx context.Context, db bun.IDB, specialBetID uuid.UUID) (*predictiondb.SpecialBet, error)
	GetQuestionFunc             func(ctx context.Context, db bun.IDB, questionID uuid.UUID) (*predictiondb.Question, error)
	MarkEvaluatedFunc           func(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, eventID uuid.UUID) error
	ListUnevaluatedEventIDsFunc func(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, leagueID uuid.UUID) ([]uuid.UUID, error)
	ListActiveRulesFunc         func(ctx context.Context, db bun.IDB, leagueID uuid.UUID, kind predictiondomain.EventKind) ([]predictiondb.EvaluatorRule, error)
	GetRuleFunc                 func(ctx context.Context, db bun.IDB, ruleID uuid.UUID) (*predictiondb.EvaluatorRule, error)
}

func NewFakePredictionRepo() *FakePredictionRepo {
	return &FakePredictionRepo{trace: []string{}}
}

func (f *FakePredictionRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakePredictionRepo) GetEventHeader(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, eventID uuid.UUID) (*predictiondb.EventHeader, error) {
	f.record("GetEventHeader")
	if f.GetEventHeaderFunc != nil {
		return f.GetEventHeaderFunc(ctx, db, kind, eventID)
	}
	return nil, predictiondb.ErrNotFound
}

func (f *FakePredictionRepo) GetMatch(ctx context.Context, db bun.IDB, matchID uuid.UUID) (*predictiondb.Match, error) {
	f.record("GetMatch")
	if f.GetMatchFunc != nil {
		return f.GetMatchFunc(ctx, db, matchID)
	}
	return nil, predictiondb.ErrNotFound
}

func (f *FakePredictionRepo) GetSeries(ctx context.Context, db bun.IDB, seriesID uuid.UUID) (*predictiondb.Series, error) {
	f.record("GetSeries")
	if f.GetSeriesFunc != nil {
		return f.GetSeriesFunc(ctx, db, seriesID)
	}
	return nil, predictiondb.ErrNotFound
}

func (f *FakePredictionRepo) GetSpecialBet(ctx context.Context, db bun.IDB, specialBetID uuid.UUID) (*predictiondb.SpecialBet, error) {
	f.record("GetSpecialBet")
	if f.GetSpecialBetFunc != nil {
		return f.GetSpecialBetFunc(ctx, db, specialBetID)
	}
	return nil, predictiondb.ErrNotFound
}

func (f *FakePredictionRepo) GetQuestion(ctx context.Context, db bun.IDB, questionID uuid.UUID) (*predictiondb.Question, error) {
	f.record("GetQuestion")
	if f.GetQuestionFunc != nil {
		return f.GetQuestionFunc(ctx, db, questionID)
	}
	return nil, predictiondb.ErrNotFound
}

func (f *FakePredictionRepo) MarkEvaluated(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, eventID uuid.UUID) error {
	f.record("MarkEvaluated")
	if f.MarkEvaluatedFunc != nil {
		return f.MarkEvaluatedFunc(ctx, db, kind, eventID)
	}
	return nil
}

func (f *FakePredictionRepo) ListUnevaluatedEventIDs(ctx context.Context, db bun.IDB, kind predictiondomain.EventKind, leagueID uuid.UUID) ([]uuid.UUID, error) {
	f.record("ListUnevaluatedEventIDs")
	if f.ListUnevaluatedEventIDsFunc != nil {
		return f.ListUnevaluatedEventIDsFunc(ctx, db, kind, leagueID)
	}
	return nil, nil
}

func (f *FakePredictionRepo) ListActiveRules(ctx context.Context, db bun.IDB, leagueID uuid.UUID, kind predictiondomain.EventKind) ([]predictiondb.EvaluatorRule, error) {
	f.record("ListActiveRules")
	if f.ListActiveRulesFunc != nil {
		return f.ListActiveRulesFunc(ctx, db, leagueID, kind)
	}
	return nil, nil
}

func (f *FakePredictionRepo) GetRule(ctx context.Context, db bun.IDB, ruleID uuid.UUID) (*predictiondb.EvaluatorRule, error) {
	f.record("GetRule")
	if f.GetRuleFunc != nil {
		return f.GetRuleFunc(ctx, db, ruleID)
	}
	return nil, predictiondb.ErrNotFound
}

func (f *FakePredictionRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ predictiondb.Repository = (*FakePredictionRepo)(nil)

// ------------------------
// Fake Wager Store
// ------------------------

type FakeWagerStore[W any] struct {
	trace []string

	ListByEventFunc      func(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]W, error)
	GetLiveFunc          func(ctx context.Context, db bun.IDB, memberID, eventID uuid.UUID) (*W, error)
	InsertFunc           func(ctx context.Context, db bun.IDB, wager *W) error
	UpdatePredictionFunc func(ctx context.Context, db bun.IDB, wager *W) error
	SetPointsFunc        func(ctx context.Context, db bun.IDB, updates []predictiondb.PointsUpdate) error

	Inserted  []*W
	Updated   []*W
	PointsSet []predictiondb.PointsUpdate
}

func NewFakeWagerStore[W any]() *FakeWagerStore[W] {
	return &FakeWagerStore[W]{trace: []string{}}
}

func (f *FakeWagerStore[W]) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeWagerStore[W]) ListByEvent(ctx context.Context, db bun.IDB, eventID uuid.UUID, userID *string) ([]W, error) {
	f.record("ListByEvent")
	if f.ListByEventFunc != nil {
		return f.ListByEventFunc(ctx, db, eventID, userID)
	}
	return nil, nil
}

func (f *FakeWagerStore[W]) GetLive(ctx context.Context, db bun.IDB, memberID, eventID uuid.UUID) (*W, error) {
	f.record("GetLive")
	if f.GetLiveFunc != nil {
		return f.GetLiveFunc(ctx, db, memberID, eventID)
	}
	return nil, predictiondb.ErrNotFound
}

func (f *FakeWagerStore[W]) Insert(ctx context.Context, db bun.IDB, wager *W) error {
	f.record("Insert")
	if f.InsertFunc != nil {
		if err := f.InsertFunc(ctx, db, wager); err != nil {
			return err
		}
	}
	f.Inserted = append(f.Inserted, wager)
	return nil
}

func (f *FakeWagerStore[W]) UpdatePrediction(ctx context.Context, db bun.IDB, wager *W) error {
	f.record("UpdatePrediction")
	if f.UpdatePredictionFunc != nil {
		if err := f.UpdatePredictionFunc(ctx, db, wager); err != nil {
			return err
		}
	}
	f.Updated = append(f.Updated, wager)
	return nil
}

func (f *FakeWagerStore[W]) SetPoints(ctx context.Context, db bun.IDB, updates []predictiondb.PointsUpdate) error {
	f.record("SetPoints")
	if f.SetPointsFunc != nil {
		if err := f.SetPointsFunc(ctx, db, updates); err != nil {
			return err
		}
	}
	f.PointsSet = append(f.PointsSet, updates...)
	return nil
}

func (f *FakeWagerStore[W]) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var (
	_ predictiondb.WagerStore[predictiondb.MatchBet]      = (*FakeWagerStore[predictiondb.MatchBet])(nil)
	_ predictiondb.WagerStore[predictiondb.SeriesBet]     = (*FakeWagerStore[predictiondb.SeriesBet])(nil)
	_ predictiondb.WagerStore[predictiondb.SpecialBetBet] = (*FakeWagerStore[predictiondb.SpecialBetBet])(nil)
	_ predictiondb.WagerStore[predictiondb.QuestionBet]   = (*FakeWagerStore[predictiondb.QuestionBet])(nil)
)

// fakeWagers bundles typed fake stores and exposes them as predictiondb.Wagers.
type fakeWagers struct {
	match    *FakeWagerStore[predictiondb.MatchBet]
	series   *FakeWagerStore[predictiondb.SeriesBet]
	special  *FakeWagerStore[predictiondb.SpecialBetBet]
	question *FakeWagerStore[predictiondb.QuestionBet]
}

func newFakeWagers() fakeWagers {
	return fakeWagers{
		match:    NewFakeWagerStore[predictiondb.MatchBet](),
		series:   NewFakeWagerStore[predictiondb.SeriesBet](),
		special:  NewFakeWagerStore[predictiondb.SpecialBetBet](),
		question: NewFakeWagerStore[predictiondb.QuestionBet](),
	}
}

func (f fakeWagers) Wagers() predictiondb.Wagers {
	return predictiondb.Wagers{Match: f.match, Series: f.series, Special: f.special, Question: f.question}
}

// ------------------------
// Fake collaborators
// ------------------------

type FakeGate struct {
	calls int

	RequireLeagueMemberFunc func(ctx context.Context, leagueID uuid.UUID, userID string) (*leagueservice.Member, error)
}

func (f *FakeGate) RequireLeagueMember(ctx context.Context, leagueID uuid.UUID, userID string) (*leagueservice.Member, error) {
	f.calls++
	if f.RequireLeagueMemberFunc != nil {
		return f.RequireLeagueMemberFunc(ctx, leagueID, userID)
	}
	return &leagueservice.Member{ID: memberIDFor(userID), LeagueID: leagueID, UserID: userID, DisplayName: userID}, nil
}

// memberIDFor derives a stable member id from a user id.
func memberIDFor(userID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID))
}

type FakeAuditor struct {
	mu      sync.Mutex
	Entries []predictiondomain.AuditEntry
	Err     error
}

func (f *FakeAuditor) record(entry predictiondomain.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Entries = append(f.Entries, entry)
	return f.Err
}

func (f *FakeAuditor) OnCreated(_ context.Context, entry predictiondomain.AuditEntry) error {
	return f.record(entry)
}

func (f *FakeAuditor) OnUpdated(_ context.Context, entry predictiondomain.AuditEntry) error {
	return f.record(entry)
}

func (f *FakeAuditor) OnEvaluated(_ context.Context, entry predictiondomain.AuditEntry) error {
	return f.record(entry)
}

type FakePublisher struct {
	Events []predictiondomain.EvaluatedEvent
	Err    error
}

func (f *FakePublisher) PublishEvaluated(_ context.Context, event predictiondomain.EvaluatedEvent) error {
	f.Events = append(f.Events, event)
	return f.Err
}

type FakeCache struct {
	data map[string][]byte
	tags map[string][]string
	gets int
}

func NewFakeCache() *FakeCache {
	return &FakeCache{data: map[string][]byte{}, tags: map[string][]string{}}
}

func (f *FakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.gets++
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *FakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration, tags ...string) error {
	f.data[key] = value
	f.tags[key] = tags
	return nil
}

var (
	_ MembershipGate      = (*FakeGate)(nil)
	_ Auditor             = (*FakeAuditor)(nil)
	_ EvaluationPublisher = (*FakePublisher)(nil)
	_ RevealCache         = (*FakeCache)(nil)
)
