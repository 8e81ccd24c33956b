// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Most services here also orchestrate an outside collaborator: they pick
// context records through the assembler, ask the generation gateway for a
// typed result and persist what comes back.
//
// DEPENDENCY INJECTION:
// Every service takes interfaces (repository.MeetingRepository,
// generation.Generator, mail.Mailer...), never *sqlite.DB or *Gateway.
// Tests pass an in-memory database and a scripted generator; production
// wiring lives in server.New.
//
// ERRORS:
// Services return apperror values. A failed generation call is wrapped in
// apperror.Upstream with the message the client should see ("Failed to
// create idea"); the gateway's own error stays in the cause for the log.
package service

import (
	"strings"
	"time"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/model"
)

// Shared limits.
const (
	MaxQueryLength    = 1000
	MaxContentLength  = 50000
	InsightListLimit  = 20
	SynthesisIdeas    = 5
	AskMeetings       = 3
	InsightWindowDays = 7
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

// requireQuery trims q and enforces the shared query rules.
func requireQuery(q, message string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", apperror.ValidationFailed("query", message)
	}
	if len(q) > MaxQueryLength {
		return "", apperror.ValidationFailed("query", "query is too long")
	}
	return q, nil
}

// level normalises a provider-supplied importance/priority.
func level(s string) model.Level {
	return model.ParseLevel(strings.ToLower(strings.TrimSpace(s)), model.LevelMedium)
}
