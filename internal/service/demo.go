package service

import "github.com/sakif/execmind/internal/knowledge"

// DemoService plays back the scripted demo conversation.
type DemoService struct {
	kb *knowledge.Base
}

func NewDemoService(kb *knowledge.Base) *DemoService {
	return &DemoService{kb: kb}
}

// Reply returns the scripted line for turn, or the closing line once the
// script has run out.
func (s *DemoService) Reply(turn int) string {
	return s.kb.DemoLine(turn)
}
