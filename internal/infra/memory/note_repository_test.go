package memory

import (
	"context"
	"testing"
	"time"

	"studyquiz-service/internal/domain"
)

func TestNoteCreateIfAbsentKeyedByAnswer(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()

	note := sampleNote("n1", "a1", time.Now())
	created, err := repo.CreateIfAbsent(ctx, note)
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}

	again := sampleNote("n2", "a1", time.Now())
	created, err = repo.CreateIfAbsent(ctx, again)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created {
		t.Fatalf("same answer must not create a second note")
	}

	notes, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != "n1" {
		t.Fatalf("expected only the first note, got %+v", notes)
	}
}

func TestNoteListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"n1", "n2", "n3"} {
		note := sampleNote(id, "answer-"+id, base.Add(time.Duration(i)*time.Minute))
		if _, err := repo.CreateIfAbsent(ctx, note); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	notes, err := repo.ListNotMastered(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 3 || notes[0].ID != "n3" || notes[2].ID != "n1" {
		t.Fatalf("expected newest first, got %+v", notes)
	}
}

func TestNoteSubjectFilterAndMastery(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()

	n1 := sampleNote("n1", "a1", time.Now())
	n2 := sampleNote("n2", "a2", time.Now())
	n2.SubjectID = "other"
	n3 := sampleNote("n3", "a3", time.Now())
	n3.IsMastered = true
	for _, n := range []domain.WrongAnswerNote{n1, n2, n3} {
		if _, err := repo.CreateIfAbsent(ctx, n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	bySubject, err := repo.ListByUserAndSubject(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("list by subject: %v", err)
	}
	if len(bySubject) != 2 {
		t.Fatalf("expected 2 notes in s1, got %d", len(bySubject))
	}

	pending, err := repo.ListNotMastered(ctx, "u1", "")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("mastered note should be excluded, got %d", len(pending))
	}
}

func sampleNote(id, answerID string, createdAt time.Time) domain.WrongAnswerNote {
	return domain.WrongAnswerNote{
		ID:             id,
		UserID:         "u1",
		SubjectID:      "s1",
		SourceAnswerID: answerID,
		QuestionText:   "What is the powerhouse of the cell?",
		Options:        []string{"Ribosome", "Mitochondria", "Nucleus", "Golgi"},
		CorrectIndex:   1,
		UserWrongIndex: 0,
		Keyword:        "cells",
		CreatedAt:      createdAt,
	}
}
