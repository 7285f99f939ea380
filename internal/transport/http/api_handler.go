package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"studyquiz-service/internal/app"
	"studyquiz-service/internal/domain"
)

// APIHandler exposes the notebook and quiz operations as plain JSON
// endpoints for the surrounding platform's controllers.
type APIHandler struct {
	quizzes  *app.QuizService
	notebook *app.NotebookService
	composer *app.ReviewComposer
}

func NewAPIHandler(quizzes *app.QuizService, notebook *app.NotebookService, composer *app.ReviewComposer) *APIHandler {
	return &APIHandler{quizzes: quizzes, notebook: notebook, composer: composer}
}

// Register mounts every route on the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/quizzes", h.createQuiz)
	mux.HandleFunc("/api/quizzes/current", h.currentQuestion)
	mux.HandleFunc("/api/quizzes/advance", h.advance)
	mux.HandleFunc("/api/quizzes/answer", h.submitAnswer)
	mux.HandleFunc("/api/quizzes/complete", h.completeQuiz)
	mux.HandleFunc("/api/quizzes/abandon", h.abandonQuiz)
	mux.HandleFunc("/api/wrong-answers", h.wrongAnswers)
	mux.HandleFunc("/api/wrong-answers/pending", h.pendingReview)
	mux.HandleFunc("/api/wrong-answers/weakness", h.weakness)
	mux.HandleFunc("/api/wrong-answers/review", h.markReviewed)
	mux.HandleFunc("/api/wrong-answers/purge", h.purgeNote)
	mux.HandleFunc("/api/review-quizzes", h.composeReview)
}

func (h *APIHandler) createQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		OwnerUserID string            `json:"ownerUserId"`
		SubjectID   string            `json:"subjectId"`
		Questions   []domain.Question `json:"questions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	id, err := h.quizzes.CreateQuiz(r.Context(), req.OwnerUserID, req.SubjectID, req.Questions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"quizInstanceId": id})
}

func (h *APIHandler) currentQuestion(w http.ResponseWriter, r *http.Request) {
	current, err := h.quizzes.CurrentQuestion(r.Context(), r.URL.Query().Get("quizId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (h *APIHandler) advance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuizID    string `json:"quizId"`
		FromIndex int    `json:"fromIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	newIndex, err := h.quizzes.Advance(r.Context(), req.QuizID, req.FromIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"newIndex": newIndex})
}

func (h *APIHandler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuizID        string `json:"quizId"`
		Ordinal       int    `json:"ordinal"`
		SelectedIndex int    `json:"selectedIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	grade, err := h.quizzes.SubmitAnswer(r.Context(), req.QuizID, req.Ordinal, req.SelectedIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grade)
}

func (h *APIHandler) completeQuiz(w http.ResponseWriter, r *http.Request) {
	h.finishQuiz(w, r, h.quizzes.CompleteQuiz)
}

func (h *APIHandler) abandonQuiz(w http.ResponseWriter, r *http.Request) {
	h.finishQuiz(w, r, h.quizzes.AbandonQuiz)
}

func (h *APIHandler) finishQuiz(w http.ResponseWriter, r *http.Request, finish func(context.Context, string) (domain.QuizResult, error)) {
	var req struct {
		QuizID string `json:"quizId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	result, err := finish(r.Context(), req.QuizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) wrongAnswers(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notebook.WrongAnswers(r.Context(), r.URL.Query().Get("userId"), r.URL.Query().Get("subjectId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *APIHandler) pendingReview(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notebook.PendingReview(r.Context(), r.URL.Query().Get("userId"), r.URL.Query().Get("subjectId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *APIHandler) weakness(w http.ResponseWriter, r *http.Request) {
	weakness, err := h.notebook.WeaknessByKeyword(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weakness)
}

func (h *APIHandler) markReviewed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NoteID     string `json:"noteId"`
		WasCorrect bool   `json:"wasCorrect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	outcome, err := h.notebook.MarkReviewed(r.Context(), req.NoteID, req.WasCorrect)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *APIHandler) purgeNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		NoteID string `json:"noteId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.notebook.PurgeNote(r.Context(), req.UserID, req.NoteID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) composeReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       string `json:"userId"`
		SubjectID    string `json:"subjectId"`
		MaxQuestions int    `json:"maxQuestions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	id, err := h.composer.ComposeReview(r.Context(), req.UserID, req.SubjectID, req.MaxQuestions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"quizInstanceId": id})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates domain errors to status codes while keeping the kind
// visible to callers.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrProgressNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrSubjectNotFound),
		errors.Is(err, domain.ErrNoteNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSelection),
		errors.Is(err, domain.ErrMalformedBank):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyAnswered),
		errors.Is(err, domain.ErrStaleProgress):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNoAnswersSubmitted),
		errors.Is(err, domain.ErrNoReviewNeeded),
		errors.Is(err, domain.ErrExhausted):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errPayload(err))
}
