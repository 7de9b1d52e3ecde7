package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateTemplateData_V1(t *testing.T) {
	v1 := `{
		"background": "#001f3f",
		"elements": [
			{"type": "txt", "x": 10, "y": 20, "w": 300, "h": 40, "props": {"text": "Matchday"}},
			{"type": "logo", "x": 0, "y": 0, "w": 64, "h": 64},
			{"type": "Score", "x": 100, "y": 200, "w": 80, "h": 30},
			{"type": "Sticker", "x": 1, "y": 2, "w": 3, "h": 4}
		]
	}`

	out, changed, err := MigrateTemplateData(json.RawMessage(v1))
	require.NoError(t, err)
	assert.True(t, changed)

	var got TemplateV2
	require.NoError(t, json.Unmarshal(out, &got))

	assert.Equal(t, TemplateSchemaV2, got.SchemaVersion)
	assert.Equal(t, "#001f3f", got.Background)
	require.Len(t, got.Layers, 4)

	assert.Equal(t, Layer{
		ID:       "layer-1",
		Kind:     "text",
		Position: Point{X: 10, Y: 20},
		Size:     Size{Width: 300, Height: 40},
		Props:    map[string]any{"text": "Matchday"},
	}, got.Layers[0])
	assert.Equal(t, "club_logo", got.Layers[1].Kind)
	assert.Equal(t, "score", got.Layers[2].Kind)
	assert.Equal(t, "sticker", got.Layers[3].Kind)
	assert.Equal(t, "layer-4", got.Layers[3].ID)
}

func TestMigrateTemplateData_Idempotent(t *testing.T) {
	v1 := json.RawMessage(`{"elements":[{"type":"img","x":1,"y":2,"w":3,"h":4}]}`)

	once, changed, err := MigrateTemplateData(v1)
	require.NoError(t, err)
	require.True(t, changed)

	twice, changed, err := MigrateTemplateData(once)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.JSONEq(t, string(once), string(twice))
}

func TestMigrateTemplateData_EmptyElements(t *testing.T) {
	out, changed, err := MigrateTemplateData(json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.JSONEq(t, `{"schema_version":2,"layers":[]}`, string(out))
}

func TestMigrateTemplateData_Errors(t *testing.T) {
	_, _, err := MigrateTemplateData(json.RawMessage(`not json`))
	assert.Error(t, err)

	_, _, err = MigrateTemplateData(json.RawMessage(`{"schema_version":9}`))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "unsupported")
	}
}

func TestTemplateInput_Validate(t *testing.T) {
	valid := TemplateInput{Name: " Game day ", Kind: TemplateKindPreview, Data: json.RawMessage(`{"layers":[]}`)}
	require.NoError(t, valid.Validate("test"))
	assert.Equal(t, "Game day", valid.Name)

	invalid := TemplateInput{Name: "", Kind: "poster", Data: json.RawMessage(`{`)}
	err := invalid.Validate("test")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "kind")
	assert.Contains(t, verr.Fields, "data")
}
