package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blackmichael/bluesense/internal/aggregate"
	"github.com/blackmichael/bluesense/internal/config"
	"github.com/blackmichael/bluesense/internal/domain"
)

const wsWriteWait = 10 * time.Second

// wsMessage is one frame of the analyze websocket stream: zero or more
// "progress" frames followed by exactly one "result" or "error" frame.
type wsMessage struct {
	Type     string            `json:"type"`
	Progress *domain.Progress  `json:"progress,omitempty"`
	Report   *aggregate.Report `json:"report,omitempty"`
	Error    string            `json:"error,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// analyzeParams reads q and limit. On failure it writes a 400 and returns
// false.
func (s *Server) analyzeParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.logger.Warn("analyze called without q parameter")
		writeError(w, http.StatusBadRequest, "InvalidRequest", "q parameter is required")
		return "", 0, false
	}

	limit := s.cfg.Analysis.Limit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > config.MaxAnalysisLimit {
			s.logger.Warn("invalid limit parameter", "limit", l, "error", err)
			writeError(w, http.StatusBadRequest, "InvalidRequest",
				fmt.Sprintf("limit must be between 1 and %d", config.MaxAnalysisLimit))
			return "", 0, false
		}
		limit = parsed
	}

	return query, limit, true
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	query, limit, ok := s.analyzeParams(w, r)
	if !ok {
		return
	}

	s.logger.Info("analyze request", "query", query, "limit", limit)

	ctx, cancel := context.WithTimeout(r.Context(), s.analyzeTimeout)
	defer cancel()

	analysis, err := s.analyzer.RunWithProgress(ctx, query, limit, nil)
	if err != nil {
		status, errType, msg := errorStatus(err)
		s.logger.Error("failed to analyze query", "query", query, "limit", limit, "error", err)
		writeError(w, status, errType, msg)
		return
	}
	s.notify(r.Context(), analysis)

	report, err := aggregate.NewReport(analysis)
	if err != nil {
		s.logger.Error("failed to build report", "analysis_id", analysis.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to build report")
		return
	}

	s.logger.Info("analyze success",
		"analysis_id", analysis.ID,
		"outcome", report.Outcome,
		"posts_returned", len(report.Posts),
	)
	writeJSON(w, http.StatusOK, report)
}

// handleAnalyzeWS runs an analysis and streams its progress over a
// websocket. Parameter errors are reported as plain HTTP 400s before the
// upgrade.
func (s *Server) handleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	query, limit, ok := s.analyzeParams(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client sends nothing; reading only surfaces a close or a dropped
	// connection, which abandons the analysis.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func(msg wsMessage) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(msg)
	}

	s.logger.Info("analyze stream opened", "query", query, "limit", limit)

	analysis, err := s.analyzer.RunWithProgress(ctx, query, limit, func(p domain.Progress) {
		if err := send(wsMessage{Type: "progress", Progress: &p}); err != nil {
			s.logger.Warn("failed to send progress", "error", err)
			cancel()
		}
	})
	if err != nil {
		_, errType, msg := errorStatus(err)
		s.logger.Error("failed to analyze query", "query", query, "limit", limit, "error", err)
		send(wsMessage{Type: "error", Error: errType, Message: msg})
		s.closeStream(conn, websocket.CloseInternalServerErr)
		return
	}
	s.notify(ctx, analysis)

	report, err := aggregate.NewReport(analysis)
	if err != nil {
		s.logger.Error("failed to build report", "analysis_id", analysis.ID, "error", err)
		send(wsMessage{Type: "error", Error: "InternalError", Message: "failed to build report"})
		s.closeStream(conn, websocket.CloseInternalServerErr)
		return
	}

	if err := send(wsMessage{Type: "result", Report: report}); err != nil {
		s.logger.Warn("failed to send result", "analysis_id", analysis.ID, "error", err)
		return
	}
	s.closeStream(conn, websocket.CloseNormalClosure)
}

func (s *Server) closeStream(conn *websocket.Conn, code int) {
	msg := websocket.FormatCloseMessage(code, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait)); err != nil {
		s.logger.Debug("failed to send close frame", "error", err)
	}
}
