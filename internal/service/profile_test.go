package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/auth"
	"github.com/sakif/execmind/internal/generation"
	"github.com/sakif/execmind/internal/generation/generationtest"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/repository/sqlite"
)

type profileFixture struct {
	db     *sqlite.DB
	gen    *generationtest.Fake
	mail   *fakeMailer
	tokens *auth.TokenService
	svc    *ProfileService
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", "execmind-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	f := &profileFixture{
		db:     newTestDB(t),
		gen:    generationtest.New(),
		mail:   &fakeMailer{},
		tokens: tokens,
	}
	f.svc = NewProfileService(f.db, tokens, auth.NewPasswordServiceForTest(), f.gen, f.mail, quietLogger())
	return f
}

func (f *profileFixture) register(t *testing.T, email string) *AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{Name: "Dana", Email: email, Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return res
}

func TestRegister_IssuesTokenForNewUser(t *testing.T) {
	f := newProfileFixture(t)

	res, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "  Dana  ", Email: " Dana@Example.com ", Password: "secret1", EAEmail: "ea@example.com",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if res.User.ID == "" || res.User.Name != "Dana" || res.User.Email != "dana@example.com" {
		t.Errorf("user = %+v", res.User)
	}
	if res.User.PasswordHash == "secret1" {
		t.Error("password stored in plain text")
	}
	sub, err := f.tokens.Validate(res.Token)
	if err != nil || sub != res.User.ID {
		t.Errorf("token subject = %q, %v; want %q", sub, err, res.User.ID)
	}
}

func TestRegister_ReportsEveryProblem(t *testing.T) {
	f := newProfileFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "123"})
	wantKind(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	errors.As(err, &appErr)
	if len(appErr.Details) != 3 {
		t.Errorf("details = %v, want name, email and password problems", appErr.Details)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newProfileFixture(t)
	f.register(t, "dup@example.com")

	_, err := f.svc.Register(context.Background(), RegisterInput{Name: "Other", Email: "DUP@example.com", Password: "secret2"})
	wantKind(t, err, apperror.ErrValidation)
	wantMessage(t, err, "email already exists")
}

func TestLogin(t *testing.T) {
	f := newProfileFixture(t)
	reg := f.register(t, "login@example.com")
	ctx := context.Background()

	res, err := f.svc.Login(ctx, "login@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.User.ID != reg.User.ID || res.Token == "" {
		t.Errorf("Login() = %+v", res)
	}

	for _, tc := range []struct{ email, password string }{
		{"login@example.com", "wrong-password"},
		{"nobody@example.com", "secret1"},
	} {
		_, err := f.svc.Login(ctx, tc.email, tc.password)
		wantKind(t, err, apperror.ErrUnauthorized)
		wantMessage(t, err, "Invalid credentials")
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newProfileFixture(t)
	user := f.register(t, "update@example.com").User
	ctx := context.Background()

	fields := map[string]json.RawMessage{
		"writingStyle": json.RawMessage(`"warm, direct"`),
		"bookExcerpts": json.RawMessage(`[{"title":"Ch. 1","content":"Lead from the front."}]`),
	}
	updated, err := f.svc.UpdateProfile(ctx, user, fields)
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.WritingStyle != "warm, direct" || len(updated.BookExcerpts) != 1 {
		t.Errorf("updated = %+v", updated)
	}

	stored, err := f.db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if stored.WritingStyle != "warm, direct" || stored.BookExcerpts[0].Content != "Lead from the front." {
		t.Errorf("stored = %+v", stored)
	}
}

func TestUpdateProfile_RejectsForbiddenKeys(t *testing.T) {
	f := newProfileFixture(t)
	user := f.register(t, "forbidden@example.com").User

	for _, key := range []string{"email", "password", "passwordHash", "id"} {
		_, err := f.svc.UpdateProfile(context.Background(), user, map[string]json.RawMessage{
			"name": json.RawMessage(`"New Name"`),
			key:    json.RawMessage(`"x"`),
		})
		wantKind(t, err, apperror.ErrValidation)
		wantMessage(t, err, "Invalid updates!")
	}

	stored, _ := f.db.GetUserByID(context.Background(), user.ID)
	if stored.Name != "Dana" {
		t.Errorf("rejected update was partly applied: name = %q", stored.Name)
	}
}

func TestUpdateProfile_WrongType(t *testing.T) {
	f := newProfileFixture(t)
	user := f.register(t, "types@example.com").User

	_, err := f.svc.UpdateProfile(context.Background(), user, map[string]json.RawMessage{
		"bookExcerpts": json.RawMessage(`"not a list"`),
	})
	wantKind(t, err, apperror.ErrValidation)
}

func TestSendExcerpt(t *testing.T) {
	f := newProfileFixture(t)
	user := &model.User{
		ID: "u1",
		BookExcerpts: []model.BookExcerpt{
			{Title: "On trust", Content: "Trust is built in drops."},
			{Title: "On speed", Content: "Move fast, then slow down."},
		},
	}
	f.gen.Reply(generation.FindExcerpt,
		`{"bestMatch":{"title":"On trust","content":"Trust is built in drops."},"relevanceJustification":"fits"}`)

	res, err := f.svc.SendExcerpt(context.Background(), user, "building trust", "friend@example.com", "from our chat")
	if err != nil {
		t.Fatalf("SendExcerpt() error = %v", err)
	}
	if res.Excerpt.Title != "On trust" {
		t.Errorf("excerpt = %+v", res.Excerpt)
	}

	prompt, _ := f.gen.LastPrompt(generation.FindExcerpt)
	if !strings.Contains(prompt, "[Excerpt 2: On speed]") {
		t.Errorf("prompt does not list every excerpt:\n%s", prompt)
	}

	sent := f.mail.messages()
	if len(sent) != 1 || sent[0].To[0] != "friend@example.com" || !strings.Contains(sent[0].Text, "from our chat") {
		t.Fatalf("sent = %+v", sent)
	}
}

func TestSendExcerpt_Failures(t *testing.T) {
	withExcerpts := &model.User{ID: "u1", BookExcerpts: []model.BookExcerpt{{Title: "t", Content: "c"}}}

	tests := []struct {
		name    string
		user    *model.User
		query   string
		setup   func(f *profileFixture)
		kind    error
		message string
	}{
		{
			name: "no query", user: withExcerpts, query: " ",
			kind: apperror.ErrValidation, message: "A query is required.",
		},
		{
			name: "no excerpts", user: &model.User{ID: "u2"}, query: "anything",
			kind: apperror.ErrValidation, message: "No book excerpts found on your profile.",
		},
		{
			name: "no match", user: withExcerpts, query: "anything",
			setup: func(f *profileFixture) {
				f.gen.Reply(generation.FindExcerpt, `{"bestMatch":null,"relevanceJustification":"none"}`)
			},
			kind: apperror.ErrNotFound, message: "Could not find a relevant excerpt for your query.",
		},
		{
			name: "generation fails", user: withExcerpts, query: "anything",
			setup: func(f *profileFixture) { f.gen.Fail(generation.FindExcerpt, errors.New("boom")) },
			kind:  generation.ErrGenerationFailed, message: "Failed to send book excerpt.",
		},
		{
			name: "mail fails", user: withExcerpts, query: "anything",
			setup: func(f *profileFixture) {
				f.gen.Reply(generation.FindExcerpt, `{"bestMatch":{"title":"t","content":"c"}}`)
				f.mail.err = errors.New("smtp down")
			},
			kind: apperror.ErrUpstream, message: "Failed to send book excerpt.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProfileFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.svc.SendExcerpt(context.Background(), tt.user, tt.query, "friend@example.com", "")
			wantKind(t, err, tt.kind)
			wantMessage(t, err, tt.message)
		})
	}
}

func TestValidEmail(t *testing.T) {
	for s, want := range map[string]bool{
		"a@example.com":          true,
		"first.last@example.org": true,
		"not-an-email":           false,
		"Dana <a@example.com>":   false,
		"":                       false,
	} {
		if got := validEmail(s); got != want {
			t.Errorf("validEmail(%q) = %v, want %v", s, got, want)
		}
	}
}
