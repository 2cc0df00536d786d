package importer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestReportFail(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantError   string
		wantMessage string
	}{
		{
			name:        "domain error keeps message",
			err:         fmt.Errorf("node %q: %w", "Lake", NewError(ErrUnresolvedType, "%q is not defined by template 7", "Pump")),
			wantError:   `node "Lake": unresolved component type: "Pump" is not defined by template 7`,
			wantMessage: `An error was encountered: unresolved component type: "Pump" is not defined by template 7`,
		},
		{
			name:        "unexpected error is hidden",
			err:         errors.New("dial tcp: connection refused"),
			wantError:   GenericErrorMessage,
			wantMessage: "An unknown error has occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReport("hydraimport")
			r.Fail(tt.err, zap.NewNop())
			assert.False(t, r.OK())
			assert.Equal(t, []string{tt.wantError}, r.Errors)
			assert.Equal(t, tt.wantMessage, r.Message)
		})
	}
}

func TestReportNilError(t *testing.T) {
	r := NewReport("hydraimport")
	r.Fail(nil, nil)
	r.Warn("a", "b")
	r.AddFile("network_x.json")
	assert.True(t, r.OK())
	assert.Equal(t, []string{"a", "b"}, r.Warnings)
	assert.Equal(t, []string{"network_x.json"}, r.Files)
}
