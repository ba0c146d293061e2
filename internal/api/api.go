package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/calendav/assistant-backend/internal/business/resolver"
	"github.com/calendav/assistant-backend/internal/intent"
	"github.com/calendav/assistant-backend/internal/model"
)

type Api struct {
	handler http.Handler
	logger  *zap.SugaredLogger

	events   eventsService
	resolver commandResolver
	parser   intentParser
	sessions sessionStore
}

type eventsService interface {
	ListEvents(ctx context.Context, filter model.EventsFilter) ([]*model.Event, error)
	CreateEvent(ctx context.Context, info *model.EventCreate) (*model.Event, error)
	UpdateEvent(ctx context.Context, id string, info *model.EventUpdate) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	CalendarNames(ctx context.Context) ([]string, error)
}

type commandResolver interface {
	Resolve(ctx context.Context, cmd *intent.Command) (*resolver.Outcome, error)
}

type intentParser interface {
	ParseCommand(ctx context.Context, text string, cctx *intent.Context) *intent.Command
	Summarize(ctx context.Context, events []*model.Event) string
}

type sessionStore interface {
	Append(id string, messages ...intent.Message)
	History(id string) []intent.Message
	Clear(id string)
}

func NewApi(
	logger *zap.SugaredLogger,
	events eventsService,
	cmdResolver commandResolver,
	parser intentParser,
	sessions sessionStore,
) (*Api, error) {
	a := &Api{
		logger:   logger,
		events:   events,
		resolver: cmdResolver,
		parser:   parser,
		sessions: sessions,
	}
	a.setupHandler()

	return a, nil
}

func (a *Api) setupHandler() {
	middleware.DefaultLogger = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a.logger.Debugw(r.URL.RequestURI(),
				"addr", r.RemoteAddr,
				"protocol", r.Proto,
				"method", r.Method,
			)
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewMux()

	r.Use(middleware.Logger, middleware.Recoverer, middleware.StripSlashes)
	r.NotFound(a.notFoundResponse)
	r.MethodNotAllowed(a.methodNotAllowedResponse)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/calendars", a.getCalendarsHandler)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", a.getEventsHandler)
			r.Post("/", a.createEventHandler)
			r.Put("/{id}", a.updateEventHandler)
			r.Delete("/{id}", a.deleteEventHandler)
		})

		r.Route("/nl", func(r chi.Router) {
			r.Post("/parse", a.parseHandler)
			r.Post("/execute", a.executeHandler)
		})

		r.Delete("/sessions/{id}", a.clearSessionHandler)
	})

	a.handler = r
}

func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}
