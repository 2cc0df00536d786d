package importer

import (
	"context"
	"fmt"

	"hydraimport/internal/domain"

	"go.uber.org/zap"
)

// TypeRegistry resolves component type names against one template. It is
// loaded once per run and read-only afterwards.
type TypeRegistry struct {
	svc TemplateService
	log *zap.Logger

	templateID int64
	types      map[string]domain.TypeDescriptor
	attrs      map[int64]domain.Attribute
}

// NewTypeRegistry creates an empty registry backed by svc
func NewTypeRegistry(svc TemplateService, log *zap.Logger) *TypeRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &TypeRegistry{
		svc:   svc,
		log:   log,
		types: make(map[string]domain.TypeDescriptor),
		attrs: make(map[int64]domain.Attribute),
	}
}

// LoadTemplate fetches the template and indexes its types by name.
// A zero templateID means no template was given.
func (r *TypeRegistry) LoadTemplate(ctx context.Context, templateID int64) ([]domain.TypeDescriptor, error) {
	if templateID <= 0 {
		return nil, NewError(ErrMissingTemplate, "a template ID is required to resolve component types")
	}

	tmpl, err := r.svc.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("get template %d: %w", templateID, err)
	}

	r.templateID = templateID
	for _, t := range tmpl.Types {
		if t.TemplateID == 0 {
			t.TemplateID = templateID
		}
		r.types[t.Name] = t
	}

	r.log.Info("template loaded",
		zap.Int64("template_id", templateID),
		zap.String("template", tmpl.Name),
		zap.Int("types", len(r.types)))

	return tmpl.Types, nil
}

// LoadAttributes fetches the attribute catalogue and indexes it by ID.
// The catalogue is not filtered by template.
func (r *TypeRegistry) LoadAttributes(ctx context.Context, templateID int64) error {
	attrs, err := r.svc.GetAllAttributes(ctx)
	if err != nil {
		return fmt.Errorf("get attributes: %w", err)
	}

	attrIDMap := make(map[int64]domain.Attribute, len(attrs))
	for _, a := range attrs {
		attrIDMap[a.ID] = a
	}
	r.attrs = attrIDMap

	r.log.Debug("attribute catalogue loaded",
		zap.Int64("template_id", templateID),
		zap.Int("attributes", len(attrIDMap)))
	return nil
}

// Attribute looks up a catalogue entry by ID
func (r *TypeRegistry) Attribute(id int64) (domain.Attribute, bool) {
	a, ok := r.attrs[id]
	return a, ok
}

// Resolve returns the descriptor for a component type name
func (r *TypeRegistry) Resolve(name string) (domain.TypeDescriptor, error) {
	t, ok := r.types[name]
	if !ok {
		return domain.TypeDescriptor{}, NewError(ErrUnresolvedType,
			"%q is not defined by template %d", name, r.templateID)
	}
	return t, nil
}

// Binding returns the type binding for a component type name
func (r *TypeRegistry) Binding(name string) (domain.TypeBinding, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return domain.TypeBinding{}, err
	}
	return domain.TypeBinding{TemplateID: r.templateID, ID: t.ID}, nil
}

// TemplateID returns the loaded template, or 0 before LoadTemplate
func (r *TypeRegistry) TemplateID() int64 {
	return r.templateID
}
