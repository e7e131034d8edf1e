package predictionhandlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmiddleware "github.com/tipping-league/prediction-core/app/modules/auth/infrastructure/middleware"
	predictionservice "github.com/tipping-league/prediction-core/app/modules/prediction/application"
	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
)

// Mount registers the member and admin routes on r. authenticate must put
// claims on the request context.
func (h *Handlers) Mount(r chi.Router, authenticate func(http.Handler) http.Handler) {
	submit := map[predictiondomain.EventKind]http.HandlerFunc{
		predictiondomain.KindMatch: submitHandler(h,
			func(p *predictionservice.MatchBetPayload, id uuid.UUID) { p.MatchID = id },
			h.service.SubmitMatchBet),
		predictiondomain.KindSeries: submitHandler(h,
			func(p *predictionservice.SeriesBetPayload, id uuid.UUID) { p.SeriesID = id },
			h.service.SubmitSeriesBet),
		predictiondomain.KindSpecial: submitHandler(h,
			func(p *predictionservice.SpecialBetPayload, id uuid.UUID) { p.SpecialBetID = id },
			h.service.SubmitSpecialBet),
		predictiondomain.KindQuestion: submitHandler(h,
			func(p *predictionservice.QuestionBetPayload, id uuid.UUID) { p.QuestionID = id },
			h.service.SubmitQuestionBet),
	}

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		for _, kind := range predictiondomain.Kinds {
			segment := "/" + kind.RouteSegment()
			r.Route(segment+"/{eventID}", func(r chi.Router) {
				r.Put("/bet", submit[kind])
				r.Get("/bet", h.myWager(kind))
				r.Get("/friends", h.friendPredictions(kind))
			})
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(authmiddleware.RequireAdmin)
			for _, kind := range predictiondomain.Kinds {
				segment := "/" + kind.RouteSegment()
				r.Post(segment+"/{eventID}/evaluate", h.evaluate(kind))
				r.Post("/leagues/{leagueID}"+segment+"/evaluate", h.evaluateAll(kind))
			}
		})
	})
}
