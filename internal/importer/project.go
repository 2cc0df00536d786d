package importer

import (
	"context"
	"fmt"
	"time"

	"hydraimport/internal/domain"

	"go.uber.org/zap"
)

// ProjectResolver finds the project a network is imported into, creating a
// new one when none is given.
type ProjectResolver struct {
	svc        ProjectService
	namePrefix string
	now        func() time.Time
	log        *zap.Logger
}

// NewProjectResolver creates a resolver. namePrefix starts the name of
// projects it creates.
func NewProjectResolver(svc ProjectService, namePrefix string, log *zap.Logger) *ProjectResolver {
	if log == nil {
		log = zap.NewNop()
	}
	if namePrefix == "" {
		namePrefix = "Import Project"
	}
	return &ProjectResolver{
		svc:        svc,
		namePrefix: namePrefix,
		now:        time.Now,
		log:        log,
	}
}

// Resolve returns project projectID, or a newly created project when
// projectID is zero. The new project's name carries the current time so that
// repeated runs never collide.
func (p *ProjectResolver) Resolve(ctx context.Context, projectID int64) (*domain.Project, error) {
	if projectID > 0 {
		project, err := p.svc.GetProject(ctx, projectID)
		if err != nil {
			if isRemoteNotFound(err) {
				return nil, WrapError(ErrProjectNotFound, err, "project %d", projectID)
			}
			return nil, fmt.Errorf("get project %d: %w", projectID, err)
		}
		p.log.Info("loading existing project", zap.Int64("project_id", projectID))
		return project, nil
	}

	newProject := &domain.Project{
		Name:        fmt.Sprintf("%s created at %s", p.namePrefix, p.now().Format(time.RFC3339Nano)),
		Description: "Default project created by the network importer.",
	}
	saved, err := p.svc.AddProject(ctx, newProject)
	if err != nil {
		return nil, fmt.Errorf("add project: %w", err)
	}
	p.log.Info("project created", zap.Int64("project_id", saved.ID), zap.String("name", saved.Name))
	return saved, nil
}
