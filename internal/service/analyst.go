package service

import (
	"context"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/generation"
	"github.com/sakif/execmind/internal/knowledge"
)

// AnalystService answers questions about the internal documents held in the
// knowledge base.
type AnalystService struct {
	kb  *knowledge.Base
	gen generation.Generator
}

func NewAnalystService(kb *knowledge.Base, gen generation.Generator) *AnalystService {
	return &AnalystService{kb: kb, gen: gen}
}

// Query finds the document the question is about and has it analysed.
func (s *AnalystService) Query(ctx context.Context, query string) (*generation.DocumentAnalysis, error) {
	query, err := requireQuery(query, "A query is required.")
	if err != nil {
		return nil, err
	}

	doc, ok := s.kb.RetrieveDocument(query)
	if !ok {
		return nil, apperror.Missing("No relevant context found for this query.")
	}

	prompt := "Question: " + query + "\n\nDocument: " + doc.Title + "\n" + doc.Body

	var out generation.DocumentAnalysis
	if err := s.gen.Generate(ctx, generation.AnalyzeDocument, prompt, &out); err != nil {
		return nil, apperror.Upstream("Failed to analyze the document.", err)
	}
	return &out, nil
}
