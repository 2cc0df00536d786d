package domain

import "testing"

func TestNewNetworkNode(t *testing.T) {
	binding := TypeBinding{TemplateID: 3, ID: 7}

	t.Run("creates node with defaults", func(t *testing.T) {
		node := NewNetworkNode(-1, "Lake", 10, -900000, binding)

		if node.ID != -1 {
			t.Errorf("expected ID -1, got %d", node.ID)
		}
		if node.Name != "Lake" {
			t.Errorf("expected name 'Lake', got %s", node.Name)
		}
		if node.Description != "Node" {
			t.Errorf("expected description 'Node', got %s", node.Description)
		}
		if node.X != 10 || node.Y != -900000 {
			t.Errorf("expected (10, -900000), got (%v, %v)", node.X, node.Y)
		}
		if node.Attributes == nil || len(node.Attributes) != 0 {
			t.Error("expected empty, non-nil Attributes")
		}
		if len(node.Types) != 1 || node.Types[0] != binding {
			t.Errorf("expected single binding %+v, got %+v", binding, node.Types)
		}
	})
}

func TestNetworkNodeIsProvisional(t *testing.T) {
	tests := []struct {
		id   int64
		want bool
	}{
		{-3, true},
		{-1, true},
		{1, false},
		{42, false},
	}

	for _, tt := range tests {
		node := &NetworkNode{ID: tt.id}
		if got := node.IsProvisional(); got != tt.want {
			t.Errorf("IsProvisional() for ID %d = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestTypeDescriptorBinding(t *testing.T) {
	td := TypeDescriptor{ID: 9, TemplateID: 2, Name: "Reservoir", ResourceType: ResourceTypeNode}
	got := td.Binding()

	if got.TemplateID != 2 || got.ID != 9 {
		t.Errorf("expected {TemplateID:2 ID:9}, got %+v", got)
	}
	if got.Name != "" {
		t.Errorf("expected binding without name, got %q", got.Name)
	}
}
