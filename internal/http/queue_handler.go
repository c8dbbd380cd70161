package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/ticket-queue/internal/application"
	"github.com/example/ticket-queue/internal/queue"
)

const maxBodyBytes = 1 << 20

type queueService interface {
	OpenDay(ctx context.Context, params application.OpenDayParams) (application.Day, error)
	IssueTicket(ctx context.Context, params application.IssueTicketParams) (queue.Entry, error)
	EditTicket(ctx context.Context, params application.EditTicketParams) (queue.Entry, error)
	ListTickets(ctx context.Context, serviceDate string) (application.TicketList, error)
	CallNext(ctx context.Context, serviceDate string) (application.CallNextResult, error)
	CallPrevious(ctx context.Context, serviceDate string) (application.CallPreviousResult, error)
	GetDisplaySummary(ctx context.Context, serviceDate string) (application.Display, error)
	GetTicker(ctx context.Context, serviceDate string) (application.Ticker, error)
	GetLoadHistory(ctx context.Context, serviceDate string) (application.LoadHistory, error)
	Ping(ctx context.Context) error
}

// QueueHandler serves the queue endpoints.
type QueueHandler struct {
	service   queueService
	responder responder
	logger    *slog.Logger
	validate  *validator.Validate
}

// NewQueueHandler wires a handler around the queue service.
func NewQueueHandler(service queueService, logger *slog.Logger) *QueueHandler {
	base := logger
	if base == nil {
		base = slog.Default()
	}
	return &QueueHandler{
		service:   service,
		responder: newResponder(base),
		logger:    base,
		validate:  newRequestValidator(),
	}
}

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// log prefers the request scoped logger installed by RequestLogger.
func (h *QueueHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil && h != nil {
		logger = h.logger
	}
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(append([]any{"handler", "QueueHandler", "operation", operation}, attrs...)...)
}

func (h *QueueHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// StartDay handles POST /queue/start-day.
func (h *QueueHandler) StartDay(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req startDayRequest
	if !h.decode(w, r, "StartDay", &req) {
		return
	}

	day, err := h.service.OpenDay(r.Context(), application.OpenDayParams{
		ServiceDate: req.ServiceDate,
		Overwrite:   req.Overwrite,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, dayResponse{
		ServiceDate: day.ServiceDate.String(),
		StartedAt:   day.StartedAt,
		Reset:       day.Reset,
	})
}

// CreateEntry handles POST /queue/entries.
func (h *QueueHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req issueTicketRequest
	if !h.decode(w, r, "CreateEntry", &req) {
		return
	}
	h.issue(w, r, "CreateEntry", req)
}

// SubmitForm handles POST /queue/form with form encoded fields.
func (h *QueueHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.log(r.Context(), "SubmitForm", "error_kind", codeBadRequest).WarnContext(r.Context(), "failed to parse form", "error", err)
		h.responder.writeBadRequest(r.Context(), w, codeBadRequest, "invalid form body")
		return
	}

	req := issueTicketRequest{
		Name:        r.PostForm.Get("name"),
		Phone:       r.PostForm.Get("phone"),
		ServiceDate: r.PostForm.Get("service_date"),
	}
	if birthday := strings.TrimSpace(r.PostForm.Get("birthday")); birthday != "" {
		req.Birthday = &birthday
	}
	h.issue(w, r, "SubmitForm", req)
}

func (h *QueueHandler) issue(w http.ResponseWriter, r *http.Request, operation string, req issueTicketRequest) {
	if err := h.validate.Struct(req); err != nil {
		h.log(r.Context(), operation, "error_kind", codeValidation).WarnContext(r.Context(), "ticket request rejected", "error", err)
		h.responder.writeRequestValidation(r.Context(), w, err)
		return
	}

	entry, err := h.service.IssueTicket(r.Context(), application.IssueTicketParams{
		ServiceDate: req.ServiceDate,
		Name:        req.Name,
		Phone:       req.Phone,
		Birthday:    req.Birthday,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEntryDTO(entry))
}

// ListEntries handles GET /queue/entries.
func (h *QueueHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	list, err := h.service.ListTickets(r.Context(), r.URL.Query().Get("service_date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, entryListResponse{
		ServiceDate: list.ServiceDate.String(),
		Entries:     toEntryDTOs(list.Entries),
	})
}

// UpdateEntry handles PATCH /queue/entries/{id}.
func (h *QueueHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	rawID, _ := EntryIDFromContext(r.Context())
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		h.log(r.Context(), "UpdateEntry", "entry_id", rawID, "error_kind", codeInvalidEntryID).WarnContext(r.Context(), "invalid entry id")
		h.responder.writeBadRequest(r.Context(), w, codeInvalidEntryID, "entry id must be a positive integer")
		return
	}

	var req editTicketRequest
	if !h.decode(w, r, "UpdateEntry", &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.log(r.Context(), "UpdateEntry", "entry_id", id, "error_kind", codeValidation).WarnContext(r.Context(), "edit request rejected", "error", err)
		h.responder.writeRequestValidation(r.Context(), w, err)
		return
	}

	entry, err := h.service.EditTicket(r.Context(), application.EditTicketParams{
		EntryID:  id,
		Name:     req.Name,
		Phone:    req.Phone,
		Birthday: req.Birthday,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEntryDTO(entry))
}

// CallNext handles POST /queue/call-next.
func (h *QueueHandler) CallNext(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	date, ok := h.dateFromBody(w, r, "CallNext")
	if !ok {
		return
	}

	result, err := h.service.CallNext(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, callNextResponse{
		ServiceDate: result.ServiceDate.String(),
		Active:      toEntryDTOPtr(result.Active),
		Served:      toEntryDTOPtr(result.Served),
		QueueEmpty:  result.QueueEmpty,
	})
}

// CallPrevious handles POST /queue/call-previous.
func (h *QueueHandler) CallPrevious(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	date, ok := h.dateFromBody(w, r, "CallPrevious")
	if !ok {
		return
	}

	result, err := h.service.CallPrevious(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, callPreviousResponse{
		ServiceDate: result.ServiceDate.String(),
		Active:      toEntryDTOPtr(result.Active),
		Recalled:    toEntryDTOPtr(result.Recalled),
	})
}

// Display handles GET /queue/display.
func (h *QueueHandler) Display(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	display, err := h.service.GetDisplaySummary(r.Context(), r.URL.Query().Get("service_date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	summary := display.Summary
	h.responder.writeJSON(r.Context(), w, http.StatusOK, displayResponse{
		ServiceDate: summary.ServiceDate.String(),
		Active:      toEntryDTOPtr(summary.Active),
		Next:        toEntryDTOPtr(summary.Next),
		Count:       summary.Total,
		Waiting:     summary.Waiting,
		Served:      summary.Served,
		Pending:     summary.Pending,
		Entries:     toEntryDTOs(display.Entries),
		History:     toSnapshotDTOs(display.History),
	})
}

// Ticker handles GET /queue/ticker.
func (h *QueueHandler) Ticker(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	ticker, err := h.service.GetTicker(r.Context(), r.URL.Query().Get("service_date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, tickerResponse{
		ServiceDate: ticker.ServiceDate.String(),
		Current:     toTickerDTO(ticker.Current),
		Next:        toTickerDTO(ticker.Next),
		Waiting:     ticker.Waiting,
		Served:      ticker.Served,
		Pending:     ticker.Pending,
	})
}

// History handles GET /queue/history.
func (h *QueueHandler) History(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	history, err := h.service.GetLoadHistory(r.Context(), r.URL.Query().Get("service_date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, historyResponse{
		ServiceDate: history.ServiceDate.String(),
		Snapshots:   toSnapshotDTOs(history.Snapshots),
	})
}

// Health handles GET /queue/health.
func (h *QueueHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	if err := h.service.Ping(r.Context()); err != nil {
		h.log(r.Context(), "Health").ErrorContext(r.Context(), "store unreachable", "error", err)
		h.responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
}

// decode reads an optional JSON body into dst. An empty body leaves dst untouched.
func (h *QueueHandler) decode(w http.ResponseWriter, r *http.Request, operation string, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		h.log(r.Context(), operation, "error_kind", codeBadRequest).WarnContext(r.Context(), "failed to decode request", "error", err)
		h.responder.writeBadRequest(r.Context(), w, codeBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// dateFromBody reads service_date from the JSON body, falling back to the query.
func (h *QueueHandler) dateFromBody(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	var req serviceDateRequest
	if !h.decode(w, r, operation, &req) {
		return "", false
	}
	if req.ServiceDate == "" {
		req.ServiceDate = r.URL.Query().Get("service_date")
	}
	return req.ServiceDate, true
}

type startDayRequest struct {
	ServiceDate string `json:"service_date"`
	Overwrite   bool   `json:"overwrite"`
}

type serviceDateRequest struct {
	ServiceDate string `json:"service_date"`
}

type issueTicketRequest struct {
	Name        string  `json:"name" validate:"max=200"`
	Phone       string  `json:"phone"`
	ServiceDate string  `json:"service_date"`
	Birthday    *string `json:"birthday"`
}

type editTicketRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Phone    *string `json:"phone"`
	Birthday *string `json:"birthday"`
}

type dayResponse struct {
	ServiceDate string    `json:"service_date"`
	StartedAt   time.Time `json:"started_at"`
	Reset       bool      `json:"reset"`
}

type entryDTO struct {
	ID           int64     `json:"id"`
	ServiceDate  string    `json:"service_date"`
	TicketIndex  int       `json:"ticket_index"`
	TicketNumber string    `json:"ticket_number"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Birthday     *string   `json:"birthday"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type entryListResponse struct {
	ServiceDate string     `json:"service_date"`
	Entries     []entryDTO `json:"entries"`
}

type callNextResponse struct {
	ServiceDate string    `json:"service_date"`
	Active      *entryDTO `json:"active"`
	Served      *entryDTO `json:"served"`
	QueueEmpty  bool      `json:"queue_empty"`
}

type callPreviousResponse struct {
	ServiceDate string    `json:"service_date"`
	Active      *entryDTO `json:"active"`
	Recalled    *entryDTO `json:"recalled"`
}

type snapshotDTO struct {
	WindowStart time.Time `json:"window_start"`
	Pending     int       `json:"pending"`
	Waiting     int       `json:"waiting"`
	Served      int       `json:"served"`
	CapturedAt  time.Time `json:"captured_at"`
}

type displayResponse struct {
	ServiceDate string        `json:"service_date"`
	Active      *entryDTO     `json:"active"`
	Next        *entryDTO     `json:"next"`
	Count       int           `json:"count"`
	Waiting     int           `json:"waiting"`
	Served      int           `json:"served"`
	Pending     int           `json:"pending"`
	Entries     []entryDTO    `json:"entries"`
	History     []snapshotDTO `json:"history"`
}

type tickerDTO struct {
	Number string `json:"number"`
	Name   string `json:"name"`
}

type tickerResponse struct {
	ServiceDate string     `json:"service_date"`
	Current     *tickerDTO `json:"current"`
	Next        *tickerDTO `json:"next"`
	Waiting     int        `json:"waiting"`
	Served      int        `json:"served"`
	Pending     int        `json:"pending"`
}

type historyResponse struct {
	ServiceDate string        `json:"service_date"`
	Snapshots   []snapshotDTO `json:"snapshots"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func toEntryDTO(entry queue.Entry) entryDTO {
	dto := entryDTO{
		ID:           entry.ID,
		ServiceDate:  entry.ServiceDate.String(),
		TicketIndex:  entry.TicketIndex,
		TicketNumber: entry.TicketNumber,
		Name:         entry.Name,
		Phone:        entry.Phone,
		Status:       string(entry.Status),
		CreatedAt:    entry.CreatedAt,
		UpdatedAt:    entry.UpdatedAt,
	}
	if entry.Birthday != nil {
		birthday := entry.Birthday.String()
		dto.Birthday = &birthday
	}
	return dto
}

func toEntryDTOPtr(entry *queue.Entry) *entryDTO {
	if entry == nil {
		return nil
	}
	dto := toEntryDTO(*entry)
	return &dto
}

func toEntryDTOs(entries []queue.Entry) []entryDTO {
	out := make([]entryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toEntryDTO(entry))
	}
	return out
}

func toSnapshotDTOs(snapshots []queue.Snapshot) []snapshotDTO {
	out := make([]snapshotDTO, 0, len(snapshots))
	for _, snapshot := range snapshots {
		out = append(out, snapshotDTO{
			WindowStart: snapshot.WindowStart,
			Pending:     snapshot.Pending,
			Waiting:     snapshot.Waiting,
			Served:      snapshot.Served,
			CapturedAt:  snapshot.CapturedAt,
		})
	}
	return out
}

func toTickerDTO(ticket *application.TickerTicket) *tickerDTO {
	if ticket == nil {
		return nil
	}
	return &tickerDTO{Number: ticket.Number, Name: ticket.Name}
}
