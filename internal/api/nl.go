package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/calendav/assistant-backend/internal/business/resolver"
	"github.com/calendav/assistant-backend/internal/intent"
	"github.com/calendav/assistant-backend/internal/model"
	"github.com/calendav/assistant-backend/internal/pkg/validator"
)

const recentEventsLimit = 10

func (a *Api) parseHandler(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Text      string `json:"text"`
		SessionID string `json:"session_id"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(len(req.Text) != 0, "text", "text must be provided")
	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	cmd := a.parser.ParseCommand(r.Context(), req.Text, a.buildContext(r.Context(), req.SessionID))

	if err := a.writeJSON(w, http.StatusOK, cmd, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) executeHandler(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Text      string `json:"text"`
		SessionID string `json:"session_id"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(len(req.Text) != 0, "text", "text must be provided")
	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	cmd := a.parser.ParseCommand(r.Context(), req.Text, a.buildContext(r.Context(), req.SessionID))

	outcome, err := a.resolver.Resolve(r.Context(), cmd)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("resolve command: %w", err))
		return
	}

	if outcome.Kind == resolver.OutcomeListed && outcome.Message == "" {
		outcome.Message = a.parser.Summarize(r.Context(), outcome.Events)
	}

	if req.SessionID != "" {
		a.recordTurn(req.SessionID, req.Text, cmd, outcome)
	}

	resp, err := mapToOutcomeResp(outcome)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) clearSessionHandler(w http.ResponseWriter, r *http.Request) {
	a.sessions.Clear(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// buildContext gathers the situational context sent to the language model.
// Failures here degrade the context, never the request.
func (a *Api) buildContext(ctx context.Context, sessionID string) *intent.Context {
	cctx := &intent.Context{CurrentTime: time.Now()}

	calendars, err := a.events.CalendarNames(ctx)
	if err != nil {
		a.logger.Errorw("calendar names for model context", "err", err)
	} else {
		cctx.Calendars = calendars
	}

	now := time.Now()
	events, err := a.events.ListEvents(ctx, model.EventsFilter{
		From: model.StartOfDay(now),
		To:   model.StartOfDay(now).Add(7 * 24 * time.Hour),
	})
	if err != nil {
		a.logger.Errorw("recent events for model context", "err", err)
	} else {
		for i, event := range events {
			if i == recentEventsLimit {
				break
			}
			cctx.RecentEvents = append(cctx.RecentEvents,
				fmt.Sprintf("%s (%s)", event.Title, event.StartTime.Format(dateTimeFormat)))
		}
	}

	if sessionID != "" {
		cctx.History = a.sessions.History(sessionID)
	}

	return cctx
}

// recordTurn appends the exchange to the session so follow-up requests can
// refer back to it. The assistant side stores the structured command, which
// is more useful to the model than prose.
func (a *Api) recordTurn(sessionID, text string, cmd *intent.Command, outcome *resolver.Outcome) {
	assistant := outcome.Message
	if raw, err := json.Marshal(cmd); err == nil {
		assistant = string(raw)
	}

	a.sessions.Append(sessionID,
		intent.Message{Role: "user", Content: text},
		intent.Message{Role: "assistant", Content: assistant},
	)
}
