package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeFor(t *testing.T) {
	assert.Equal(t, "Widget.Created", TypeFor("Widget", ActionCreated))
}

func TestActionOf(t *testing.T) {
	tests := []struct {
		eventType string
		want      Action
	}{
		{"Widget.Created", ActionCreated},
		{"Widget.Updated", ActionUpdated},
		{"Widget.Deleted", ActionDeleted},
		{"Namespaced.Widget.Updated", ActionUpdated},
		{"Widget.Archived", Action("archived")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ActionOf(tt.eventType), "ActionOf(%q)", tt.eventType)
	}
}

func TestIsCrud(t *testing.T) {
	assert.True(t, IsCrud("Widget.Created"))
	assert.True(t, IsCrud("Widget.Updated"))
	assert.True(t, IsCrud("Widget.Deleted"))
	assert.False(t, IsCrud("Widget.Archived"))
}

func TestIsDeleted(t *testing.T) {
	assert.True(t, IsDeleted("Widget.Deleted"))
	assert.False(t, IsDeleted("Widget.Updated"))
}
