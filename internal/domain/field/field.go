package field

import "fmt"

// Logical field names.
const (
	Title            = "title"
	TitleNoDates     = "title_no_dates"
	TitleNoStem      = "title_no_stem"
	TitleFirstLetter = "title_first_letter"
	TitleRaw         = "title_raw"
	Edition          = "edition"
	Summary          = "summary"
	MetaDescription  = "meta_description"
	Abstract         = "abstract"
	Keywords         = "keywords"
	KeywordsRaw      = "keywords_raw"
	CDID             = "cdid"
	DatasetID        = "dataset_id"
	ReleaseDate      = "release_date"
	Terms            = "terms"
	Type             = "type"
	URI              = "uri"
	SearchBoost      = "search_boost"
	EmbeddingVector  = "embedding_vector"
)

// DefaultVectorDims is the dimensionality of the indexed sentence vectors.
const DefaultVectorDims = 300

// Field is an immutable value object mapping a logical name onto a store path.
type Field struct {
	name        string
	path        string
	highlighted bool
	rawOf       string
	boost       float64
	dims        int
}

// Option configures a Field at construction.
type Option func(*Field)

// Highlighted marks the field for highlight requests and reconciliation.
func Highlighted() Option { return func(f *Field) { f.highlighted = true } }

// RawOf marks the field as the raw (unanalysed) variant of the display field name.
func RawOf(display string) Option { return func(f *Field) { f.rawOf = display } }

// Boost sets the query-time boost used by the standard content query.
func Boost(b float64) Option { return func(f *Field) { f.boost = b } }

// Dims declares the dimensionality of a dense vector field.
func Dims(n int) Option { return func(f *Field) { f.dims = n } }

// New creates a Field.
func New(name, path string, opts ...Option) Field {
	f := Field{name: name, path: path}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Name returns the logical name.
func (f Field) Name() string { return f.name }

// Path returns the store-side (dotted) field path.
func (f Field) Path() string { return f.path }

// IsHighlighted reports whether the field is highlighted.
func (f Field) IsHighlighted() bool { return f.highlighted }

// IsRaw reports whether the field is the raw variant of a display field.
func (f Field) IsRaw() bool { return f.rawOf != "" }

// RawOf returns the logical name of the display field, empty if not a raw variant.
func (f Field) RawOf() string { return f.rawOf }

// BoostValue returns the query-time boost, 0 if unset.
func (f Field) BoostValue() float64 { return f.boost }

// Dims returns the declared vector dimensionality, 0 for non-vector fields.
func (f Field) Dims() int { return f.dims }

// Registry is a read-only lookup of fields by logical name and by path.
type Registry struct {
	fields []Field
	byName map[string]Field
	byPath map[string]Field
}

// NewRegistry validates and indexes fields. Names and paths must be unique and
// every raw variant must reference a registered display field.
func NewRegistry(fields ...Field) (*Registry, error) {
	r := &Registry{
		fields: make([]Field, 0, len(fields)),
		byName: make(map[string]Field, len(fields)),
		byPath: make(map[string]Field, len(fields)),
	}
	for _, f := range fields {
		if f.name == "" || f.path == "" {
			return nil, fmt.Errorf("field name and path are required")
		}
		if _, ok := r.byName[f.name]; ok {
			return nil, fmt.Errorf("duplicate field name %q", f.name)
		}
		if _, ok := r.byPath[f.path]; ok {
			return nil, fmt.Errorf("duplicate field path %q", f.path)
		}
		r.fields = append(r.fields, f)
		r.byName[f.name] = f
		r.byPath[f.path] = f
	}
	for _, f := range r.fields {
		if f.rawOf == "" {
			continue
		}
		if _, ok := r.byName[f.rawOf]; !ok {
			return nil, fmt.Errorf("field %q is raw variant of unknown field %q", f.name, f.rawOf)
		}
	}
	return r, nil
}

// Default returns the registry of the ONS content index.
func Default(vectorDims int) *Registry {
	if vectorDims <= 0 {
		vectorDims = DefaultVectorDims
	}
	r, err := NewRegistry(
		New(Title, "description.title", Highlighted(), Boost(10)),
		New(TitleNoDates, "description.title.title_no_dates", Boost(10)),
		New(TitleNoStem, "description.title.title_no_stem", Boost(10)),
		New(TitleFirstLetter, "description.title.title_first_letter"),
		New(TitleRaw, "description.title.title_raw"),
		New(Edition, "description.edition", Highlighted()),
		New(Summary, "description.summary", Highlighted()),
		New(MetaDescription, "description.metaDescription", Highlighted()),
		New(Abstract, "description._abstract", Highlighted()),
		New(Keywords, "description.keywords", Highlighted(), Boost(10)),
		New(KeywordsRaw, "description.keywords_raw", Highlighted(), RawOf(Keywords)),
		New(CDID, "description.cdid", Highlighted()),
		New(DatasetID, "description.datasetId", Highlighted()),
		New(ReleaseDate, "description.releaseDate"),
		New(Terms, "terms", Highlighted()),
		New(Type, "type"),
		New(URI, "uri"),
		New(SearchBoost, "searchBoost", Boost(100)),
		New(EmbeddingVector, "embedding_vector", Dims(vectorDims)),
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Get looks a field up by logical name.
func (r *Registry) Get(name string) (Field, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// MustGet looks a field up by logical name and panics if it is not registered.
func (r *Registry) MustGet(name string) Field {
	f, ok := r.byName[name]
	if !ok {
		panic(fmt.Sprintf("field %q is not registered", name))
	}
	return f
}

// ByPath looks a field up by its store path.
func (r *Registry) ByPath(path string) (Field, bool) {
	f, ok := r.byPath[path]
	return f, ok
}

// Highlighted returns the highlighted fields in registration order.
func (r *Registry) Highlighted() []Field {
	var out []Field
	for _, f := range r.fields {
		if f.highlighted {
			out = append(out, f)
		}
	}
	return out
}

// DisplayPath returns the path highlighted values of path are written to:
// the display field's path for raw variants, path itself otherwise.
func (r *Registry) DisplayPath(path string) string {
	f, ok := r.byPath[path]
	if !ok || f.rawOf == "" {
		return path
	}
	return r.byName[f.rawOf].path
}
