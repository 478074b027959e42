package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

const HeaderSessionKey = "X-Session-Key"

type ChatRequest struct {
	Query      string `json:"query"`
	SessionKey string `json:"session_key"`
	// ThreadID is accepted as an alias of SessionKey.
	ThreadID string `json:"thread_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Chat runs one turn and streams each reply as a text/plain chunk. The
// session key comes from the body, then the X-Session-Key header, else a new
// one is minted and returned in that header.
func (s *Server) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "query cannot be empty"})
	}

	key := firstNonEmpty(req.SessionKey, req.ThreadID, c.Request().Header.Get(HeaderSessionKey))
	if key == "" {
		key = uuid.New().String()
	}

	stream, err := s.runner.Stream(c.Request().Context(), model.TurnInput{SessionKey: key, Query: query})
	if err != nil {
		status := errx.StatusOf(err)
		if errors.Is(err, errx.ErrSessionLocked) {
			status = http.StatusConflict
		}
		logx.Error().Err(err).Str("session_key", key).Int("status", status).Msg("Chat turn failed")
		msg := errx.SystemErrorMessage
		if status < http.StatusInternalServerError {
			msg = err.Error()
		}
		return c.JSON(status, errorResponse{Error: msg})
	}
	defer stream.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set("X-Accel-Buffering", "no")
	res.Header().Set(HeaderSessionKey, key)
	res.WriteHeader(http.StatusOK)

	first := true
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			logx.Error().Err(err).Str("session_key", key).Msg("Chat stream failed")
			return nil
		}
		if !first {
			chunk = "\n\n" + chunk
		}
		first = false
		if _, err := io.WriteString(res, chunk); err != nil {
			logx.Warn().Err(err).Str("session_key", key).Msg("Client went away mid-stream")
			return nil
		}
		res.Flush()
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
