package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/edgard/diary/internal/auth"
	"github.com/edgard/diary/internal/database"
	"github.com/edgard/diary/internal/diary"
	apperrors "github.com/edgard/diary/internal/errors"
	"github.com/edgard/diary/internal/logger"
	"github.com/edgard/diary/internal/render"
)

const (
	msgInvalidJSON     = "invalid JSON payload"
	msgInvalidID       = "invalid entry id"
	msgInternal        = "Internal server error"
	msgEntryDeleted    = "Entry deleted"
	maxRequestBodySize = 1 << 20
)

type handler struct {
	service  *diary.Service
	admin    *auth.Admin
	board    *render.Board
	health   Pinger
	location *time.Location
	validate *validator.Validate
	log      *slog.Logger
}

func newHandler(deps Deps) *handler {
	return &handler{
		service:  deps.Service,
		admin:    deps.Admin,
		board:    deps.Board,
		health:   deps.Health,
		location: deps.Location,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      deps.Logger.With("component", "httpapi"),
	}
}

type createEntryRequest struct {
	Content string `json:"content" validate:"max=20000"`
	Options string `json:"options" validate:"max=100"`
	Name    string `json:"name"    validate:"max=100"`
	Sub     string `json:"sub"     validate:"max=200"`
}

type adminTokenRequest struct {
	Password string `json:"password" validate:"required,max=256"`
}

type entriesResponse struct {
	Entries []database.Entry `json:"entries"`
}

type entryResponse struct {
	Entry *database.Entry `json:"entry"`
}

type changesResponse struct {
	Message string `json:"message"`
	Changes int64  `json:"changes"`
}

type threadsResponse struct {
	Threads []render.Thread `json:"threads"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) listEntries(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entriesResponse{Entries: entries})
}

func (h *handler) getEntry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	entry, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryResponse{Entry: entry})
}

func (h *handler) createEntry(c *gin.Context) {
	var req createEntryRequest
	if !h.decode(c, &req) {
		return
	}

	admin := false
	if diary.IsClearCommand(req.Options) {
		admin = h.admin.Authorize(c.GetHeader("Authorization")) == nil
	}

	result, err := h.service.Submit(c.Request.Context(), diary.Submission{
		Content: req.Content,
		Options: req.Options,
		Name:    req.Name,
		Sub:     req.Sub,
	}, admin)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if result.Cleared {
		c.JSON(http.StatusOK, changesResponse{Message: result.Message, Changes: result.Changes})
		return
	}
	c.JSON(http.StatusOK, result.Entry)
}

func (h *handler) deleteEntry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	n, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, changesResponse{Message: msgEntryDeleted, Changes: n})
}

func (h *handler) clearEntries(c *gin.Context) {
	n, err := h.service.Clear(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, changesResponse{Message: diary.ClearedMessage, Changes: n})
}

func (h *handler) issueAdminToken(c *gin.Context) {
	var req adminTokenRequest
	if !h.decode(c, &req) {
		return
	}
	token, expiresAt, err := h.admin.Login(req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

func (h *handler) listThreads(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, threadsResponse{Threads: render.Threads(entries, h.location)})
}

// board serves the page. A failed listing renders an empty board.
func (h *handler) board(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context())
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "Board listing failed, rendering empty board",
			"request_id", logger.RequestID(c), "error", err)
		entries = nil
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.board.Render(c.Writer, render.Threads(entries, h.location)); err != nil {
		h.log.ErrorContext(c.Request.Context(), "Failed to render board", "error", err)
		_ = c.Error(err)
	}
}

func (h *handler) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			h.log.ErrorContext(c.Request.Context(), "Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireAdmin aborts with 401 unless the request carries a valid admin
// token.
func (h *handler) requireAdmin(c *gin.Context) {
	if err := h.admin.Authorize(c.GetHeader("Authorization")); err != nil {
		h.writeError(c, err)
		c.Abort()
		return
	}
	c.Next()
}

func (h *handler) decode(c *gin.Context, dst any) bool {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgInvalidJSON})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
		return false
	}
	return true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgInvalidID})
		return 0, false
	}
	return id, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func statusFor(err error) int {
	switch apperrors.Code(err) {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(c.Request.Context(), "Request failed",
			"request_id", logger.RequestID(c), "code", apperrors.Code(err), "error", err)
	}
	c.JSON(status, errorResponse{Error: apperrors.Message(err, msgInternal)})
}
