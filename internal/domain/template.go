package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TemplateKind is the kind of graphic a template renders.
type TemplateKind string

const (
	TemplateKindPreview TemplateKind = "preview"
	TemplateKindResult  TemplateKind = "result"
)

// IsValid returns true if the kind is known.
func (k TemplateKind) IsValid() bool {
	return k == TemplateKindPreview || k == TemplateKindResult
}

// Template schema versions.
const (
	TemplateSchemaV1      = 1
	TemplateSchemaV2      = 2
	TemplateSchemaCurrent = TemplateSchemaV2
)

// MaxTemplateDataSize bounds the stored JSON payload.
const MaxTemplateDataSize = 512 * 1024

// Template is a user-owned graphic layout.
type Template struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Name          string          `json:"name"`
	Kind          TemplateKind    `json:"kind"`
	Data          json.RawMessage `json:"data"`
	SchemaVersion int             `json:"schema_version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// MaxTemplateAssetSize bounds a single uploaded image.
const MaxTemplateAssetSize = 10 * 1024 * 1024

// TemplateAsset is an image uploaded for use on a template.
type TemplateAsset struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	ThumbnailKey string `json:"thumbnail_key,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

// TemplateInput is the client-supplied part of a template.
type TemplateInput struct {
	Name string          `json:"name"`
	Kind TemplateKind    `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Validate checks the input and returns a ValidationError listing every
// invalid field.
func (in *TemplateInput) Validate(op string) error {
	in.Name = strings.TrimSpace(in.Name)
	var verr *ValidationError
	add := func(field, msg string) {
		if verr == nil {
			verr = NewValidationError(op, field, msg)
			return
		}
		verr.Fields[field] = msg
	}

	if in.Name == "" {
		add("name", "Name is required")
	} else if len(in.Name) > 120 {
		add("name", "Name must be 120 characters or fewer")
	}
	if !in.Kind.IsValid() {
		add("kind", "Kind must be preview or result")
	}
	if len(in.Data) == 0 {
		add("data", "Data is required")
	} else if len(in.Data) > MaxTemplateDataSize {
		add("data", "Template data is too large")
	} else if !json.Valid(in.Data) {
		add("data", "Data must be valid JSON")
	}

	if verr != nil {
		return verr
	}
	return nil
}

// =============================================================================
// Schema v1 -> v2 migration
// =============================================================================

// templateV1 is the legacy payload: a flat list of positioned elements.
type templateV1 struct {
	Background string      `json:"background,omitempty"`
	Elements   []elementV1 `json:"elements"`
}

type elementV1 struct {
	Type  string         `json:"type"`
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
	W     float64        `json:"w"`
	H     float64        `json:"h"`
	Props map[string]any `json:"props,omitempty"`
}

// TemplateV2 is the current payload layout.
type TemplateV2 struct {
	SchemaVersion int     `json:"schema_version"`
	Background    string  `json:"background,omitempty"`
	Layers        []Layer `json:"layers"`
}

// Layer is a single drawable on a v2 template.
type Layer struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	Position Point          `json:"position"`
	Size     Size           `json:"size"`
	Props    map[string]any `json:"props,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// layerKinds maps legacy element types to layer kinds.
var layerKinds = map[string]string{
	"txt":   "text",
	"text":  "text",
	"img":   "image",
	"image": "image",
	"logo":  "club_logo",
	"score": "score",
}

// NormalizeLayerKind maps a legacy element type onto its v2 layer kind.
func NormalizeLayerKind(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if k, ok := layerKinds[t]; ok {
		return k
	}
	return t
}

// DetectTemplateSchema returns the schema version of a template payload.
// Payloads without an explicit schema_version are v1.
func DetectTemplateSchema(data json.RawMessage) (int, error) {
	var probe struct {
		SchemaVersion *int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("decode template payload: %w", err)
	}
	if probe.SchemaVersion == nil {
		return TemplateSchemaV1, nil
	}
	return *probe.SchemaVersion, nil
}

// MigrateTemplateData converts a v1 payload to v2. It reports changed=false
// and returns data untouched when the payload is already current.
func MigrateTemplateData(data json.RawMessage) (out json.RawMessage, changed bool, err error) {
	version, err := DetectTemplateSchema(data)
	if err != nil {
		return nil, false, err
	}
	switch version {
	case TemplateSchemaCurrent:
		return data, false, nil
	case TemplateSchemaV1:
	default:
		return nil, false, fmt.Errorf("unsupported template schema version %d", version)
	}

	var v1 templateV1
	if err := json.Unmarshal(data, &v1); err != nil {
		return nil, false, fmt.Errorf("decode v1 template: %w", err)
	}

	v2 := TemplateV2{
		SchemaVersion: TemplateSchemaV2,
		Background:    v1.Background,
		Layers:        make([]Layer, 0, len(v1.Elements)),
	}
	for i, el := range v1.Elements {
		v2.Layers = append(v2.Layers, Layer{
			ID:       fmt.Sprintf("layer-%d", i+1),
			Kind:     NormalizeLayerKind(el.Type),
			Position: Point{X: el.X, Y: el.Y},
			Size:     Size{Width: el.W, Height: el.H},
			Props:    el.Props,
		})
	}

	out, err = json.Marshal(v2)
	if err != nil {
		return nil, false, fmt.Errorf("encode v2 template: %w", err)
	}
	return out, true, nil
}

// TemplateMigrationReport summarises a migration run.
type TemplateMigrationReport struct {
	Scanned  int               `json:"scanned"`
	Migrated int               `json:"migrated"`
	Skipped  int               `json:"skipped"`
	Failed   map[string]string `json:"failed,omitempty"`
	DryRun   bool              `json:"dry_run"`
}
