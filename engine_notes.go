package goNotes

import (
	"context"
	"errors"
	"strings"
	"time"
)

// NoteDateLayout is the accepted note_date format.
const NoteDateLayout = "2006-01-02"

// maxNoteText bounds a single note body in bytes.
const maxNoteText = 64 << 10

// CreateNote stores a note for userID. An empty date means today (UTC).
// The note id is the user's previous highest id plus one.
func (e *Engine) CreateNote(ctx context.Context, userID int64, text, date string) (Note, error) {
	if err := e.notesReady(); err != nil {
		return Note{}, err
	}
	if err := validateNoteText(text); err != nil {
		return Note{}, err
	}
	date = strings.TrimSpace(date)
	if date == "" {
		date = e.now().UTC().Format(NoteDateLayout)
	} else if _, err := time.Parse(NoteDateLayout, date); err != nil {
		return Note{}, ErrInvalidNote
	}

	n, err := e.noteStore.CreateNote(ctx, userID, date, text)
	if err != nil {
		return Note{}, e.noteError("create_note", err)
	}
	e.metricInc(MetricNoteCreated)
	return n, nil
}

func (e *Engine) GetNote(ctx context.Context, userID, noteID int64) (Note, error) {
	if err := e.notesReady(); err != nil {
		return Note{}, err
	}
	if noteID <= 0 {
		return Note{}, ErrNoteNotFound
	}
	n, err := e.noteStore.GetNote(ctx, userID, noteID)
	if err != nil {
		return Note{}, e.noteError("get_note", err)
	}
	return n, nil
}

// ListNotes returns the user's notes ordered by id. A user without notes gets
// an empty, non-nil slice.
func (e *Engine) ListNotes(ctx context.Context, userID int64) ([]Note, error) {
	if err := e.notesReady(); err != nil {
		return nil, err
	}
	notes, err := e.noteStore.ListNotes(ctx, userID)
	if err != nil {
		return nil, e.noteError("list_notes", err)
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

// UpdateNote replaces the text of an existing note. The date is unchanged.
func (e *Engine) UpdateNote(ctx context.Context, userID, noteID int64, text string) error {
	if err := e.notesReady(); err != nil {
		return err
	}
	if err := validateNoteText(text); err != nil {
		return err
	}
	if noteID <= 0 {
		return ErrNoteNotFound
	}
	if err := e.noteStore.UpdateNote(ctx, userID, noteID, text); err != nil {
		return e.noteError("update_note", err)
	}
	e.metricInc(MetricNoteUpdated)
	return nil
}

func (e *Engine) DeleteNote(ctx context.Context, userID, noteID int64) error {
	if err := e.notesReady(); err != nil {
		return err
	}
	if noteID <= 0 {
		return ErrNoteNotFound
	}
	if err := e.noteStore.DeleteNote(ctx, userID, noteID); err != nil {
		return e.noteError("delete_note", err)
	}
	e.metricInc(MetricNoteDeleted)
	return nil
}

func (e *Engine) notesReady() error {
	if e == nil || e.noteStore == nil {
		return ErrEngineNotReady
	}
	return nil
}

// noteError keeps store sentinels out of the infrastructure path. A user
// deleted between Authorize and the store call is unauthorized.
func (e *Engine) noteError(op string, err error) error {
	switch {
	case errors.Is(err, ErrNoteNotFound):
		return ErrNoteNotFound
	case errors.Is(err, ErrUserNotFound):
		return ErrUnauthorized
	}
	return e.infra(op, err)
}

func validateNoteText(text string) error {
	if strings.TrimSpace(text) == "" || len(text) > maxNoteText {
		return ErrInvalidNote
	}
	return nil
}
