package nodetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogDefaults(t *testing.T) {
	c, err := NewCatalog(Defaults())
	require.NoError(t, err)

	label, err := c.LabelOf(DataElement)
	require.NoError(t, err)
	assert.Equal(t, "Data Element Concept", label)

	root, ok := c.ByName(RootConcept)
	require.True(t, ok)
	assert.True(t, root.IsRootConcept())

	assert.Len(t, c.Types(), len(Defaults()))
	assert.Equal(t, "Conceptual Domain", c.Labels()[ConceptualDomain])
}

func TestNewCatalogFillsDefaults(t *testing.T) {
	c, err := NewCatalog([]NodeType{{Name: "plain"}})
	require.NoError(t, err)

	nt, ok := c.ByName("plain")
	require.True(t, ok)
	assert.Equal(t, "plain", nt.Label)
	assert.Equal(t, DefaultColor, nt.Color)
}

func TestNewCatalogRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		types []NodeType
	}{
		{
			name:  "missing name",
			types: []NodeType{{Label: "No Name"}},
		},
		{
			name:  "duplicate name",
			types: []NodeType{{Name: "a", BorderShape: "oval"}, {Name: "a", BorderShape: "rectangle"}},
		},
		{
			name: "duplicate appearance",
			types: []NodeType{
				{Name: "a", BackgroundColor: "1,2,3,255"},
				{Name: "b", BackgroundColor: " 1, 2, 3, 255"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.types)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestClassify(t *testing.T) {
	c, err := NewCatalog(Defaults())
	require.NoError(t, err)

	tests := []struct {
		name       string
		appearance Appearance
		wantName   string
		wantErr    bool
	}{
		{
			name:       "root concept",
			appearance: Appearance{BackgroundColor: "255,255,0,255", BorderColor: "0,0,0,255", BorderShape: "oval"},
			wantName:   RootConcept,
		},
		{
			name:       "normalized spacing and case",
			appearance: Appearance{BackgroundColor: "237, 244, 246, 255", BorderColor: "0,0,0,255", BorderShape: "Rounded-Rectangle"},
			wantName:   ConceptualDomain,
		},
		{
			name:       "no appearance",
			appearance: Appearance{},
			wantName:   "concept",
		},
		{
			name:       "unknown",
			appearance: Appearance{BackgroundColor: "1,1,1,255"},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt, err := c.Classify(tt.appearance)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownAppearance)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, nt.Name)
		})
	}
}

func TestLabelOfUnknown(t *testing.T) {
	c, err := NewCatalog(nil)
	require.NoError(t, err)

	_, err = c.LabelOf(DataElement)
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestResolve(t *testing.T) {
	c, err := NewCatalog(Defaults())
	require.NoError(t, err)

	ct, err := Resolve(c, "1JXQ", Appearance{BackgroundColor: "255,255,0,255", BorderColor: "0,0,0,255", BorderShape: "oval"})
	require.NoError(t, err)
	assert.True(t, ct.IsRootNode())
	assert.Equal(t, "Observation Concept", ct.Type())
	assert.Equal(t, "#FF0000", ct.Color())

	ct, err = Resolve(c, "2ABC", Appearance{BackgroundColor: "204,255,204,255", BorderColor: "0,0,0,255"})
	require.NoError(t, err)
	assert.False(t, ct.IsRootNode())

	_, err = Resolve(c, "3XYZ", Appearance{BorderShape: "hexagon"})
	require.ErrorIs(t, err, ErrUnknownAppearance)
	assert.Contains(t, err.Error(), "3XYZ")
}
