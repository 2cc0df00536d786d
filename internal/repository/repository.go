package repository

import (
	"context"
	"errors"
	"time"

	"hydraimport/internal/domain"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidReference is returned when a record points at something
	// that is not part of the same network
	ErrInvalidReference = errors.New("invalid reference")
	// ErrConflict is returned when a unique name is already taken
	ErrConflict = errors.New("already exists")
)

// Repository defines the interface for persistence service data access
type Repository interface {
	// Projects
	CreateProject(ctx context.Context, project *domain.Project) error
	GetProject(ctx context.Context, id int64) (*domain.Project, error)

	// Templates and the attribute catalogue
	SaveTemplate(ctx context.Context, tmpl *domain.Template) error
	GetTemplate(ctx context.Context, id int64) (*domain.Template, error)
	GetTemplateByName(ctx context.Context, name string) (*domain.Template, error)
	SaveAttribute(ctx context.Context, attr *domain.Attribute) error
	ListAttributes(ctx context.Context) ([]domain.Attribute, error)

	// Networks are written in one transaction. Provisional IDs on nodes,
	// links and groups are replaced with permanent ones.
	CreateNetwork(ctx context.Context, network *domain.Network) error
	GetNetwork(ctx context.Context, id int64, scenarioIDs []int64) (*domain.Network, error)

	// Scenarios
	CreateScenario(ctx context.Context, scenario *domain.Scenario) error
	GetScenario(ctx context.Context, id int64) (*domain.Scenario, error)

	// Users and sessions
	CreateUser(ctx context.Context, username string, passwordHash []byte) error
	GetPasswordHash(ctx context.Context, username string) ([]byte, error)
	CreateSession(ctx context.Context, id, username string, expires time.Time) error
	GetSession(ctx context.Context, id string) (username string, expires time.Time, err error)

	// Close releases resources
	Close() error
}
