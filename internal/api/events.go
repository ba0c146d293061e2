package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/calendav/assistant-backend/internal/model"
	"github.com/calendav/assistant-backend/internal/pkg/validator"
)

func (a *Api) getCalendarsHandler(w http.ResponseWriter, r *http.Request) {
	names, err := a.events.CalendarNames(r.Context())
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("calendar names: %w", err))
		return
	}

	if err := a.writeJSON(w, http.StatusOK, map[string]interface{}{"calendars": names}, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) createEventHandler(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Title          string   `json:"title"`
		StartTime      dateTime `json:"start_time"`
		EndTime        dateTime `json:"end_time"`
		CalendarName   string   `json:"calendar_name"`
		Location       string   `json:"location"`
		Notes          string   `json:"notes"`
		URL            string   `json:"url"`
		AllDay         bool     `json:"all_day"`
		Alarms         []int    `json:"alarms_minutes_offsets"`
		RecurrenceRule string   `json:"recurrence_rule"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(len(req.Title) != 0, "title", "title must be provided")
	v.Check(!time.Time(req.StartTime).IsZero(), "start_time", "start_time must be provided")
	for _, offset := range req.Alarms {
		v.Check(offset >= 0, "alarms_minutes_offsets", "offsets must not be negative")
	}

	var rule *model.RecurrenceRule
	if req.RecurrenceRule != "" {
		var err error
		rule, err = model.ParseRecurrenceRule(req.RecurrenceRule)
		v.Check(err == nil, "recurrence_rule", "must be a valid RRULE")
	}

	if !v.Valid() {
		a.failedValidationResponse(w, r, v.Errors)
		return
	}

	end := time.Time(req.EndTime)
	if end.IsZero() {
		end = time.Time(req.StartTime).Add(time.Hour)
	}

	event, err := a.events.CreateEvent(r.Context(), &model.EventCreate{
		Title:                req.Title,
		StartTime:            time.Time(req.StartTime),
		EndTime:              end,
		CalendarName:         req.CalendarName,
		Location:             req.Location,
		Notes:                req.Notes,
		URL:                  req.URL,
		AllDay:               req.AllDay,
		AlarmsMinutesOffsets: req.Alarms,
		RecurrenceRule:       rule,
	})
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("create event: %w", err))
		return
	}

	resp, err := mapToEventResp(event)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusCreated, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) getEventsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEventsQuery(r)
	if err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	events, err := a.events.ListEvents(r.Context(), *filter)
	if err != nil {
		a.serverErrorResponse(w, r, fmt.Errorf("get events: %w", err))
		return
	}

	resp, err := mapSlice(events, mapToEventResp)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) updateEventHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req := &struct {
		Title          *string   `json:"title"`
		StartTime      *dateTime `json:"start_time"`
		EndTime        *dateTime `json:"end_time"`
		CalendarName   *string   `json:"calendar_name"`
		Location       *string   `json:"location"`
		Notes          *string   `json:"notes"`
		URL            *string   `json:"url"`
		AllDay         *bool     `json:"all_day"`
		Alarms         []int     `json:"alarms_minutes_offsets"`
		RecurrenceRule *string   `json:"recurrence_rule"`
	}{}

	if err := a.readJSON(w, r, req); err != nil {
		a.badRequestResponse(w, r, err)
		return
	}

	update := &model.EventUpdate{
		Title:                req.Title,
		CalendarName:         req.CalendarName,
		Location:             req.Location,
		Notes:                req.Notes,
		URL:                  req.URL,
		AllDay:               req.AllDay,
		AlarmsMinutesOffsets: req.Alarms,
	}
	if req.StartTime != nil {
		start := time.Time(*req.StartTime)
		update.StartTime = &start
	}
	if req.EndTime != nil {
		end := time.Time(*req.EndTime)
		update.EndTime = &end
	}
	if req.RecurrenceRule != nil {
		rule, err := model.ParseRecurrenceRule(*req.RecurrenceRule)
		if err != nil {
			a.failedValidationResponse(w, r, map[string]string{"recurrence_rule": "must be a valid RRULE"})
			return
		}
		update.RecurrenceRule = rule
	}

	if update.Empty() {
		a.badRequestResponse(w, r, errors.New("no fields to update"))
		return
	}

	event, err := a.events.UpdateEvent(r.Context(), id, update)
	if err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			a.notFoundResponse(w, r)
			return
		}
		a.serverErrorResponse(w, r, fmt.Errorf("update event: %w", err))
		return
	}

	resp, err := mapToEventResp(event)
	if err != nil {
		a.serverErrorResponse(w, r, err)
		return
	}

	if err := a.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		a.serverErrorResponse(w, r, err)
	}
}

func (a *Api) deleteEventHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := a.events.DeleteEvent(r.Context(), id); err != nil {
		if errors.Is(err, model.ErrNoRecord) {
			a.notFoundResponse(w, r)
			return
		}
		a.serverErrorResponse(w, r, fmt.Errorf("delete event: %w", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseEventsQuery(r *http.Request) (*model.EventsFilter, error) {
	var err error

	res := &model.EventsFilter{}

	v := r.URL.Query().Get("from")
	if v == "" {
		return nil, fmt.Errorf("from must be provided")
	}
	res.From, err = model.ParseTimestamp(v)
	if err != nil {
		return nil, fmt.Errorf("invalid time format: %w", err)
	}

	v = r.URL.Query().Get("to")
	if v == "" {
		return nil, fmt.Errorf("to must be provided")
	}
	res.To, err = model.ParseTimestamp(v)
	if err != nil {
		return nil, fmt.Errorf("invalid time format: %w", err)
	}

	res.CalendarName = r.URL.Query().Get("calendar")

	return res, nil
}
