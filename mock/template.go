package mock

import (
	"context"

	"github.com/fwojciec/ckassist"
)

// Interface compliance check.
var _ ckassist.TemplateService = (*TemplateService)(nil)

// TemplateService is a test double for ckassist.TemplateService.
// Set the function fields for the methods you need.
type TemplateService struct {
	FetchTemplateFn  func(ctx context.Context, sessionID string, templateType ckassist.TemplateType) (*ckassist.Template, error)
	UpsertTemplateFn func(ctx context.Context, in ckassist.UpsertTemplateInput) (*ckassist.Template, error)
}

// FetchTemplate delegates to FetchTemplateFn.
func (s *TemplateService) FetchTemplate(ctx context.Context, sessionID string, templateType ckassist.TemplateType) (*ckassist.Template, error) {
	return s.FetchTemplateFn(ctx, sessionID, templateType)
}

// UpsertTemplate delegates to UpsertTemplateFn.
func (s *TemplateService) UpsertTemplate(ctx context.Context, in ckassist.UpsertTemplateInput) (*ckassist.Template, error) {
	return s.UpsertTemplateFn(ctx, in)
}
