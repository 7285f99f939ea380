package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/domain"
)

// WSHandler drives one quiz session over a websocket: the client receives the
// current question, submits answers, advances, and finally completes.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Ordinal       int `json:"ordinal"`
	SelectedIndex int `json:"selectedIndex"`
}

type advancePayload struct {
	FromIndex int `json:"fromIndex"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the connection into the session use
// cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	if _, err := h.service.JoinParticipant(ctx, quizID); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errPayload(err)})
		return
	}
	defer h.service.LeaveParticipant(ctx, quizID)

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Single writer goroutine keeps websocket writes serialized.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	h.sendCurrent(ctx, quizID, send)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: "bad_payload", Message: "invalid answer payload"}}
				continue
			}
			grade, err := h.service.SubmitAnswer(ctx, quizID, payload.Ordinal, payload.SelectedIndex)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errPayload(err)}
				continue
			}
			send <- outboundMessage[any]{Type: "gradeResult", Payload: grade}
		case "advance":
			var payload advancePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: "bad_payload", Message: "invalid advance payload"}}
				continue
			}
			if _, err := h.service.Advance(ctx, quizID, payload.FromIndex); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errPayload(err)}
				continue
			}
			h.sendCurrent(ctx, quizID, send)
		case "complete":
			result, err := h.service.CompleteQuiz(ctx, quizID)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errPayload(err)}
				continue
			}
			send <- outboundMessage[any]{Type: "result", Payload: result}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: "bad_payload", Message: "unsupported message type"}}
		}
	}

	close(send)
	<-writerDone
}

// sendCurrent pushes the question under the pointer, or an "exhausted"
// notice once the client has moved past the last one.
func (h *WSHandler) sendCurrent(ctx context.Context, quizID string, send chan<- outboundMessage[any]) {
	current, err := h.service.CurrentQuestion(ctx, quizID)
	if err != nil {
		if errors.Is(err, domain.ErrExhausted) {
			send <- outboundMessage[any]{Type: "exhausted", Payload: struct{}{}}
			return
		}
		send <- outboundMessage[any]{Type: "error", Payload: errPayload(err)}
		return
	}
	send <- outboundMessage[any]{Type: "question", Payload: current}
}

// errPayload maps domain errors onto stable wire kinds so clients branch on
// identity, not message text.
func errPayload(err error) errorPayload {
	kind := "internal"
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrProgressNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrSubjectNotFound),
		errors.Is(err, domain.ErrNoteNotFound):
		kind = "not_found"
	case errors.Is(err, domain.ErrInvalidSelection):
		kind = "invalid_selection"
	case errors.Is(err, domain.ErrAlreadyAnswered):
		kind = "already_answered"
	case errors.Is(err, domain.ErrStaleProgress):
		kind = "stale_progress"
	case errors.Is(err, domain.ErrExhausted):
		kind = "exhausted"
	case errors.Is(err, domain.ErrNoAnswersSubmitted):
		kind = "no_answers"
	case errors.Is(err, domain.ErrNoReviewNeeded):
		kind = "no_review_needed"
	case errors.Is(err, domain.ErrMalformedBank):
		kind = "malformed_bank"
	}
	return errorPayload{Kind: kind, Message: err.Error()}
}
