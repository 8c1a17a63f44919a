package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"transit-delay-api/logging"
)

// FallbackModelName is the canonical default when neither configuration nor
// the manifest names one.
const FallbackModelName = "random_forest"

const manifestFile = "feature_info.json"

// Model is an opaque regressor. The estimate is in minutes and is neither
// clamped nor rounded.
type Model interface {
	Predict(ctx context.Context, features FeatureVector) (float64, error)
}

type Performance struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

type ModelInfo struct {
	Name        string       `json:"name"`
	Kind        string       `json:"kind"`
	Default     bool         `json:"default"`
	Performance *Performance `json:"performance,omitempty"`
}

type registeredModel struct {
	model Model
	info  ModelInfo
}

// Registry holds the models loaded at startup. It is filled before the
// server starts and is read-only afterwards, so lookups take no lock.
type Registry struct {
	schema      *FeatureSchema
	defaultName string
	models      map[string]registeredModel
}

func NewRegistry(schema *FeatureSchema, defaultName string) *Registry {
	if defaultName == "" {
		defaultName = FallbackModelName
	}
	return &Registry{schema: schema, defaultName: defaultName, models: make(map[string]registeredModel)}
}

// Register adds a model. Only call during startup.
func (r *Registry) Register(name, kind string, m Model, perf *Performance) {
	r.models[name] = registeredModel{model: m, info: ModelInfo{Name: name, Kind: kind, Performance: perf}}
}

func (r *Registry) Schema() *FeatureSchema { return r.schema }

func (r *Registry) Len() int { return len(r.models) }

func (r *Registry) Has(name string) bool {
	_, ok := r.models[name]
	return ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.models))
	for n := range r.models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultName is the name Resolve("") would return, or "" when empty.
func (r *Registry) DefaultName() string {
	name, _, err := r.Resolve("")
	if err != nil {
		return ""
	}
	return name
}

// Resolve returns the requested model when loaded, else the canonical
// default, else the first loaded model by name. It fails only when nothing
// is loaded.
func (r *Registry) Resolve(requested string) (string, Model, error) {
	if m, ok := r.models[requested]; ok {
		return requested, m.model, nil
	}
	if m, ok := r.models[r.defaultName]; ok {
		return r.defaultName, m.model, nil
	}
	names := r.Names()
	if len(names) == 0 {
		return "", nil, ErrServiceUnavailable
	}
	return names[0], r.models[names[0]].model, nil
}

func (r *Registry) Info() []ModelInfo {
	def := r.DefaultName()
	out := make([]ModelInfo, 0, len(r.models))
	for _, name := range r.Names() {
		info := r.models[name].info
		info.Default = name == def
		out = append(out, info)
	}
	return out
}

type manifest struct {
	FeatureColumns []string `json:"feature_columns"`
	BestModel      string   `json:"best_model"`
	Models         map[string]struct {
		Type        string       `json:"type"`
		Performance *Performance `json:"performance"`
	} `json:"models"`
}

// LoadOptions configures LoadRegistry.
type LoadOptions struct {
	Dir           string
	DefaultModel  string
	Remote        map[string]string
	RemoteTimeout time.Duration
}

// LoadRegistry reads the manifest and every model artifact in opts.Dir and
// attaches the configured remote models. Artifacts that fail to load are
// logged and skipped; an empty registry is returned without error so the
// process can report itself as not serving.
func LoadRegistry(opts LoadOptions) (*Registry, error) {
	var man manifest
	data, err := os.ReadFile(filepath.Join(opts.Dir, manifestFile))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &man); err != nil {
			return nil, fmt.Errorf("registry: parse %s: %w", manifestFile, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		logging.Warn().Str("dir", opts.Dir).Msg("model manifest not found, using default feature columns")
	default:
		return nil, fmt.Errorf("registry: read %s: %w", manifestFile, err)
	}

	columns := man.FeatureColumns
	if len(columns) == 0 {
		columns = DefaultFeatureColumns
	}
	schema, err := NewFeatureSchema(columns)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	defaultName := opts.DefaultModel
	if defaultName == "" {
		defaultName = man.BestModel
	}
	reg := NewRegistry(schema, defaultName)

	paths, err := filepath.Glob(filepath.Join(opts.Dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("registry: list artifacts: %w", err)
	}
	for _, path := range paths {
		if filepath.Base(path) == manifestFile {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		m, kind, err := LoadArtifact(path, schema)
		if err != nil {
			logging.Error().Err(err).Str("model", name).Msg("failed to load model artifact")
			continue
		}
		var perf *Performance
		if entry, ok := man.Models[name]; ok {
			perf = entry.Performance
		}
		reg.Register(name, kind, m, perf)
		logging.Info().Str("model", name).Str("kind", kind).Msg("model loaded")
	}

	for name, url := range opts.Remote {
		if reg.Has(name) {
			logging.Warn().Str("model", name).Str("url", url).Msg("remote model shadowed by local artifact, skipping")
			continue
		}
		reg.Register(name, KindRemote, NewRemoteModel(name, url, opts.RemoteTimeout), nil)
		logging.Info().Str("model", name).Str("url", url).Msg("remote model attached")
	}

	if reg.Len() == 0 {
		logging.Error().Str("dir", opts.Dir).Msg("no prediction model loaded, predictions will fail")
	} else {
		logging.Info().Int("models", reg.Len()).Str("default", reg.DefaultName()).
			Int("features", schema.Len()).Msg("model registry ready")
	}
	return reg, nil
}
