package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/model"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Email: "  Exec@Example.COM ", PasswordHash: "hash", Name: "Exec"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == "" {
		t.Error("CreateUser() did not set ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("CreateUser() did not set timestamps")
	}
	if user.Email != "exec@example.com" {
		t.Errorf("Email = %q, want lower-cased and trimmed", user.Email)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com")

	err := db.CreateUser(context.Background(), &model.User{Email: "DUP@example.com", PasswordHash: "h", Name: "Other"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("CreateUser() error = %v, want ErrValidation", err)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Field != "email" {
		t.Errorf("error field = %+v, want email", appErr)
	}
}

func TestGetUserByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "get@example.com")

	got, err := db.GetUserByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Email != created.Email || got.Name != created.Name || got.PasswordHash != "hash" {
		t.Errorf("GetUserByID() = %+v", got)
	}
	if got.BookExcerpts == nil {
		t.Error("BookExcerpts should be an empty slice, not nil")
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "case@example.com")

	got, err := db.GetUserByEmail(context.Background(), "CASE@Example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetUserByEmail() ID = %s, want %s", got.ID, created.ID)
	}
}

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "update@example.com")

	user.Name = "Renamed"
	user.EAEmail = "ea@example.com"
	user.WritingStyle = "warm, direct"
	user.BookExcerpts = []model.BookExcerpt{{Title: "Good to Great", Content: "First who, then what."}}
	if err := db.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	got, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Name != "Renamed" || got.EAEmail != "ea@example.com" || got.WritingStyle != "warm, direct" {
		t.Errorf("profile not updated: %+v", got)
	}
	if len(got.BookExcerpts) != 1 || got.BookExcerpts[0].Title != "Good to Great" {
		t.Errorf("BookExcerpts = %+v", got.BookExcerpts)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateUser(context.Background(), &model.User{ID: "ghost"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("UpdateUser() error = %v, want ErrNotFound", err)
	}
}
