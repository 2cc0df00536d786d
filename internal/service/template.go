package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"hydraimport/internal/codec"
	"hydraimport/internal/domain"
	"hydraimport/internal/repository"
)

// TemplateFile is the on-disk form of a template and the attributes it uses
type TemplateFile struct {
	Name       string                  `json:"name" yaml:"name" validate:"required"`
	Types      []domain.TypeDescriptor `json:"types" yaml:"types" validate:"min=1,dive"`
	Attributes []domain.Attribute      `json:"attributes" yaml:"attributes"`
}

// SeedTemplateFile loads a template file (YAML or JSON, by extension) and
// stores it with SeedTemplate
func (s *PersistenceService) SeedTemplateFile(ctx context.Context, path string) (*domain.Template, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer f.Close()

	var tf TemplateFile
	if err := c.Parse(f, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}
	return s.SeedTemplate(ctx, &tf)
}

// SeedTemplate stores a template and its attributes. A template whose name
// is already taken is returned unchanged, so seeding on every start is safe.
func (s *PersistenceService) SeedTemplate(ctx context.Context, tf *TemplateFile) (*domain.Template, error) {
	if err := s.validateStruct(tf); err != nil {
		return nil, err
	}

	for i := range tf.Attributes {
		if err := s.repo.SaveAttribute(ctx, &tf.Attributes[i]); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.GetTemplateByName(ctx, tf.Name)
	if err == nil {
		s.log.Info("template already present", zap.String("name", tf.Name), zap.Int64("template_id", existing.ID))
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	tmpl := &domain.Template{Name: tf.Name, Types: tf.Types}
	for i := range tmpl.Types {
		tmpl.Types[i].ID = 0
	}
	if err := s.repo.SaveTemplate(ctx, tmpl); err != nil {
		return nil, err
	}

	s.log.Info("template seeded",
		zap.String("name", tmpl.Name),
		zap.Int64("template_id", tmpl.ID),
		zap.Int("types", len(tmpl.Types)),
		zap.Int("attributes", len(tf.Attributes)),
	)
	s.eventBus.Publish(Event{
		Type:    EventTemplateSeeded,
		Payload: map[string]string{"template_id": fmt.Sprint(tmpl.ID), "name": tmpl.Name},
	})
	return tmpl, nil
}
