package statement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-theater/internal/common"
	"github.com/noah-isme/backend-theater/internal/theater"
)

// Handler exposes the statement HTTP endpoint.
type Handler struct {
	Svc      *Service
	validate *validator.Validate
}

// NewHandler constructs a handler backed by svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, validate: validator.New(validator.WithRequiredStructEnabled())}
}

type statementRequest struct {
	Invoice invoicePayload         `json:"invoice" validate:"required"`
	Plays   map[string]playPayload `json:"plays" validate:"required,min=1,dive"`
}

type invoicePayload struct {
	Customer     string               `json:"customer" validate:"required"`
	Performances []performancePayload `json:"performances" validate:"required,min=1,dive"`
}

type performancePayload struct {
	PlayID   string `json:"playID" validate:"required"`
	Audience *int   `json:"audience" validate:"required,gte=0,lte=1000000"`
}

type playPayload struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"`
}

type lineResponse struct {
	PlayID        string `json:"playID"`
	Play          string `json:"play"`
	Genre         string `json:"genre"`
	Audience      int    `json:"audience"`
	AmountCents   int64  `json:"amountCents"`
	Amount        string `json:"amount"`
	VolumeCredits int    `json:"volumeCredits"`
}

type statementResponse struct {
	ID               string         `json:"id"`
	Customer         string         `json:"customer"`
	Lines            []lineResponse `json:"lines"`
	TotalAmountCents int64          `json:"totalAmountCents"`
	TotalAmount      string         `json:"totalAmount"`
	VolumeCredits    int            `json:"volumeCredits"`
	Text             string         `json:"text"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Create prices the posted invoice and returns the statement as JSON or plain text.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "statement service not configured", nil)
		return
	}
	var req statementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.BadRequest("INVALID_JSON", "request body must be valid JSON", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.WriteError(w, validationError(err))
		return
	}

	invoice, plays := req.toDomain()
	res, err := h.Svc.Generate(r.Context(), invoice, plays)
	if err != nil {
		common.WriteError(w, mapError(err))
		return
	}

	if res.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	if wantsText(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(res.Text))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toResponse(res)})
}

func (req statementRequest) toDomain() (theater.Invoice, theater.Plays) {
	invoice := theater.Invoice{
		Customer:     req.Invoice.Customer,
		Performances: make([]theater.Performance, 0, len(req.Invoice.Performances)),
	}
	for _, p := range req.Invoice.Performances {
		invoice.Performances = append(invoice.Performances, theater.Performance{PlayID: p.PlayID, Audience: *p.Audience})
	}
	plays := make(theater.Plays, len(req.Plays))
	for id, p := range req.Plays {
		plays[id] = theater.Play{Name: p.Name, Type: p.Type}
	}
	return invoice, plays
}

func toResponse(res Result) statementResponse {
	st := res.Statement
	out := statementResponse{
		ID:               res.ID,
		Customer:         st.Customer,
		Lines:            make([]lineResponse, 0, len(st.Lines)),
		TotalAmountCents: st.TotalAmount,
		TotalAmount:      majorUnits(st.TotalAmount),
		VolumeCredits:    st.TotalVolumeCredits,
		Text:             res.Text,
	}
	for _, line := range st.Lines {
		out.Lines = append(out.Lines, lineResponse{
			PlayID:        line.PlayID,
			Play:          line.PlayName,
			Genre:         line.Genre.String(),
			Audience:      line.Audience,
			AmountCents:   line.Amount,
			Amount:        majorUnits(line.Amount),
			VolumeCredits: line.VolumeCredits,
		})
	}
	return out
}

// majorUnits renders minor units as a fixed two-place decimal string.
func majorUnits(minor Money) string {
	return decimal.New(minor, -2).StringFixed(2)
}

func wantsText(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "text") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/plain") && !strings.Contains(accept, "application/json")
}

func validationError(err error) *common.AppError {
	var details []fieldError
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details = append(details, fieldError{Field: fe.Namespace(), Rule: fe.Tag()})
		}
	}
	return common.BadRequest("VALIDATION_ERROR", "invalid statement request", err).WithDetails(details)
}

func mapError(err error) *common.AppError {
	var unknownPlay *UnknownPlayError
	if errors.As(err, &unknownPlay) {
		return common.Unprocessable("UNKNOWN_PLAY", unknownPlay.Error(), err).
			WithDetails(map[string]string{"playID": unknownPlay.PlayID})
	}
	var unknownType *UnknownPlayTypeError
	if errors.As(err, &unknownType) {
		return common.Unprocessable("UNKNOWN_PLAY_TYPE", unknownType.Error(), err).
			WithDetails(map[string]string{"type": unknownType.Type})
	}
	if errors.Is(err, ErrOverflow) {
		return common.Unprocessable("AMOUNT_OVERFLOW", "statement totals exceed the supported range", err)
	}
	return common.NewAppError("INTERNAL", "failed to generate statement", http.StatusInternalServerError, err)
}
