// pkg/schema/registry.go
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed registry.yaml
var defaultRegistryYAML []byte

// CanonicalField is one platform-independent output column together
// with the header synonyms used to locate it in raw data. Constructed
// once at registry load and never mutated.
type CanonicalField struct {
	Name        string
	Required    bool
	Type        FieldType
	Synonyms    map[string][]string // language tag -> alternative header strings
	Description string
	Custom      bool
}

// AllSynonyms returns every synonym across languages plus the canonical
// name itself, in a deterministic order (languages sorted, then list order).
func (f CanonicalField) AllSynonyms() []string {
	langs := make([]string, 0, len(f.Synonyms))
	for lang := range f.Synonyms {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var out []string
	for _, lang := range langs {
		out = append(out, f.Synonyms[lang]...)
	}
	return append(out, f.Name)
}

// PlatformSchema is a named, ordered bundle of canonical field
// definitions describing one source platform's typical export shape.
// Field order is significant: conflict resolution ties break on it.
type PlatformSchema struct {
	Name   string
	Fields []CanonicalField
}

// Field returns the named field definition.
func (p *PlatformSchema) Field(name string) (CanonicalField, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return CanonicalField{}, false
}

// RequiredFields returns the names of required fields in schema order.
func (p *PlatformSchema) RequiredFields() []string {
	var names []string
	for _, f := range p.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// FieldNames returns all field names in schema order.
func (p *PlatformSchema) FieldNames() []string {
	names := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		names[i] = f.Name
	}
	return names
}

// Registry holds the versioned platform schemas loaded from the
// registry document, plus any fields registered at runtime.
type Registry struct {
	version         string
	defaultPlatform string
	platforms       map[string]*PlatformSchema
	custom          []CanonicalField
	logger          *zap.Logger
}

// Document types mirroring registry.yaml.
type registryDoc struct {
	Version   string                 `yaml:"version"`
	Default   string                 `yaml:"default_platform"`
	Platforms map[string]platformDoc `yaml:"platforms"`
}

type platformDoc struct {
	Fields []fieldDoc `yaml:"fields"`
}

type fieldDoc struct {
	Name        string              `yaml:"name"`
	Required    bool                `yaml:"required"`
	Type        string              `yaml:"type"`
	Synonyms    map[string][]string `yaml:"synonyms"`
	Description string              `yaml:"description"`
}

// Default loads the embedded registry document.
func Default(logger *zap.Logger) (*Registry, error) {
	return parse(defaultRegistryYAML, logger)
}

// Load reads a registry document from disk. Extending the field
// vocabulary or the platform list requires no code change, only a new
// document.
func Load(path string, logger *zap.Logger) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry document: %w", err)
	}
	return parse(data, logger)
}

func parse(data []byte, logger *zap.Logger) (*Registry, error) {
	var doc registryDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid registry document: %w", err)
	}
	if len(doc.Platforms) == 0 {
		return nil, fmt.Errorf("registry document defines no platforms")
	}

	reg := &Registry{
		version:         doc.Version,
		defaultPlatform: doc.Default,
		platforms:       make(map[string]*PlatformSchema, len(doc.Platforms)),
		logger:          logger,
	}
	if reg.defaultPlatform == "" {
		reg.defaultPlatform = "salla"
	}

	for name, pd := range doc.Platforms {
		ps := &PlatformSchema{Name: name, Fields: make([]CanonicalField, 0, len(pd.Fields))}
		for _, fd := range pd.Fields {
			ft, known := ParseFieldType(fd.Type)
			if !known {
				logger.Warn("Unknown field type in registry, defaulting to string",
					zap.String("platform", name),
					zap.String("field", fd.Name),
					zap.String("type", fd.Type))
			}
			ps.Fields = append(ps.Fields, CanonicalField{
				Name:        fd.Name,
				Required:    fd.Required,
				Type:        ft,
				Synonyms:    fd.Synonyms,
				Description: fd.Description,
			})
		}
		reg.platforms[name] = ps
	}

	if _, ok := reg.platforms[reg.defaultPlatform]; !ok {
		return nil, fmt.Errorf("default platform %q not defined in registry", reg.defaultPlatform)
	}

	logger.Info("Loaded schema registry",
		zap.String("version", reg.version),
		zap.Int("platforms", len(reg.platforms)))

	return reg, nil
}

// Version returns the registry document version.
func (r *Registry) Version() string {
	return r.version
}

// DefaultPlatform returns the fallback platform name.
func (r *Registry) DefaultPlatform() string {
	return r.defaultPlatform
}

// Platforms returns the known platform names in sorted order.
func (r *Registry) Platforms() []string {
	names := make([]string, 0, len(r.platforms))
	for name := range r.platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema returns the schema for a platform with any runtime custom
// fields appended. Unknown platforms fall back to the default platform
// with a logged warning; the PlatformCustom classification falls back
// quietly. The returned schema is a copy; callers may not rely on it
// reflecting later AddCustomField calls.
func (r *Registry) Schema(platform string) *PlatformSchema {
	ps, ok := r.platforms[platform]
	if !ok {
		// "custom" is the deliberate outcome of platform detection,
		// not a caller mistake.
		if platform == PlatformCustom {
			r.logger.Info("Custom dataset, using default platform schema",
				zap.String("default", r.defaultPlatform))
		} else {
			r.logger.Warn("Unknown platform requested, using default",
				zap.String("platform", platform),
				zap.String("default", r.defaultPlatform))
		}
		ps = r.platforms[r.defaultPlatform]
	}

	merged := &PlatformSchema{
		Name:   ps.Name,
		Fields: make([]CanonicalField, 0, len(ps.Fields)+len(r.custom)),
	}
	merged.Fields = append(merged.Fields, ps.Fields...)
	merged.Fields = append(merged.Fields, r.custom...)
	return merged
}

// AddCustomField registers an additional canonical field at runtime
// without modifying the registry document. Invalid type tags fall back
// to string. Empty synonym lists default to the field name itself.
func (r *Registry) AddCustomField(name, typeTag string, required bool, synonyms []string, description string) error {
	if name == "" {
		return fmt.Errorf("custom field name cannot be empty")
	}
	for _, f := range r.custom {
		if f.Name == name {
			return fmt.Errorf("custom field %q already registered", name)
		}
	}

	ft, known := ParseFieldType(typeTag)
	if !known {
		r.logger.Warn("Invalid custom field type, using string",
			zap.String("field", name),
			zap.String("type", typeTag))
	}
	if len(synonyms) == 0 {
		synonyms = []string{name}
	}

	r.custom = append(r.custom, CanonicalField{
		Name:        name,
		Required:    required,
		Type:        ft,
		Synonyms:    map[string][]string{"custom": synonyms},
		Description: description,
		Custom:      true,
	})

	r.logger.Info("Registered custom field",
		zap.String("field", name),
		zap.String("type", ft.String()))

	return nil
}

// CustomFields returns the runtime-registered fields.
func (r *Registry) CustomFields() []CanonicalField {
	out := make([]CanonicalField, len(r.custom))
	copy(out, r.custom)
	return out
}
