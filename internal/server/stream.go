package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-chart/internal/backtest/engine"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"go.uber.org/zap"
)

// Stream message types, in the order a client sees them.
const (
	MessageStart  = "start"
	MessageWindow = "window"
	MessageTrade  = "trade"
	MessageReport = "report"
	MessageError  = "error"
)

// StreamMessage is one frame of /v1/backtest/stream.
type StreamMessage struct {
	Type         string                `json:"type"`
	RunID        string                `json:"run_id,omitempty"`
	TotalWindows int                   `json:"total_windows,omitempty"`
	Window       *engine.WindowEvent   `json:"window,omitempty"`
	Trade        *types.Trade          `json:"trade,omitempty"`
	Report       *types.BacktestReport `json:"report,omitempty"`
	Error        *errorResponse        `json:"error,omitempty"`
}

const streamWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamWriter serializes frames; gorilla connections allow one writer.
type streamWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *streamWriter) send(msg StreamMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}

	return w.conn.WriteJSON(msg)
}

// handleBacktestStream reads one BacktestRequest, streams start, window and
// trade frames while the backtest runs, and finishes with a report or error frame.
// Closing the socket cancels the run.
func (s *Server) handleBacktestStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("Websocket upgrade failed", zap.Error(err))

		return
	}
	defer conn.Close()

	s.metrics.ActiveStreams.Inc()
	defer s.metrics.ActiveStreams.Dec()

	writer := &streamWriter{conn: conn}

	var req BacktestRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.sendError(writer, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid backtest request", err))

		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the read loop only watches for the client going away
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()

				return
			}
		}
	}()

	onStart := engine.OnBacktestStartCallback(func(runID string, _ string, totalWindows int) error {
		return writer.send(StreamMessage{Type: MessageStart, RunID: runID, TotalWindows: totalWindows})
	})
	onWindow := engine.OnWindowEvaluatedCallback(func(event engine.WindowEvent) error {
		return writer.send(StreamMessage{Type: MessageWindow, Window: &event})
	})
	onTrade := engine.OnTradeClosedCallback(func(trade types.Trade) error {
		return writer.send(StreamMessage{Type: MessageTrade, Trade: &trade})
	})

	report, err := s.runBacktest(ctx, req, engine.LifecycleCallbacks{
		OnBacktestStart:   &onStart,
		OnWindowEvaluated: &onWindow,
		OnTradeClosed:     &onTrade,
	})
	if err != nil {
		s.sendError(writer, err)

		return
	}

	if err := writer.send(StreamMessage{Type: MessageReport, Report: report}); err != nil {
		s.log.Debug("Failed to send report", zap.Error(err))

		return
	}

	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(time.Second),
	)
}

func (s *Server) sendError(writer *streamWriter, err error) {
	s.log.Debug("Backtest stream failed", zap.Error(err))

	if sendErr := writer.send(StreamMessage{
		Type:  MessageError,
		Error: &errorResponse{Error: err.Error(), Code: errors.GetCode(err)},
	}); sendErr != nil {
		s.log.Debug("Failed to send error frame", zap.Error(sendErr))
	}
}
