package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectResolverExisting(t *testing.T) {
	svc := newFakeService()
	p := NewProjectResolver(svc, "", nil)

	project, err := p.Resolve(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "existing", project.Name)
	assert.Equal(t, []string{"get_project"}, svc.calls)
}

func TestProjectResolverNotFound(t *testing.T) {
	p := NewProjectResolver(newFakeService(), "", nil)

	_, err := p.Resolve(context.Background(), 42)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.True(t, IsExpected(err))
}

func TestProjectResolverTransportError(t *testing.T) {
	svc := newFakeService()
	svc.failOn["get_project"] = errors.New("connection reset")
	p := NewProjectResolver(svc, "", nil)

	_, err := p.Resolve(context.Background(), 3)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProjectNotFound)
	assert.False(t, IsExpected(err))
}

func TestProjectResolverCreates(t *testing.T) {
	svc := newFakeService()
	p := NewProjectResolver(svc, "CALVIN Import", nil)
	tick := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}

	first, err := p.Resolve(context.Background(), 0)
	require.NoError(t, err)
	second, err := p.Resolve(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, "CALVIN Import created at 2024-03-01T12:00:00.001Z", first.Name)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Name, second.Name)
	assert.Equal(t, 2, svc.count("add_project"))
}
