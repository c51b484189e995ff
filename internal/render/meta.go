package render

// metaSchemaVersion tracks the repomap-meta.json layout. Bump on any
// field change so downstream readers can detect stale records.
const metaSchemaVersion = 1

// Meta is the machine-readable record written alongside the map layers.
type Meta struct {
	SchemaVersion int        `json:"schema_version"`
	ProjectName   string     `json:"project_name"`
	GeneratedAt   string     `json:"generated_at"`
	Git           GitMeta    `json:"git"`
	Stats         MetaStats  `json:"stats"`
	Ranker        RankerMeta `json:"ranker"`
	Layers        LayerMetas `json:"layers"`
}

// GitMeta carries best-effort repository identity; both fields may be
// empty outside a git checkout.
type GitMeta struct {
	Commit string `json:"commit"`
	Branch string `json:"branch"`
}

// MetaStats counts what the run saw and produced.
type MetaStats struct {
	FileCount            int `json:"file_count"`
	SymbolCount          int `json:"symbol_count"`
	ModuleCount          int `json:"module_count"`
	EdgeCount            int `json:"edge_count"`
	UnresolvedReferences int `json:"unresolved_references"`
}

// RankerMeta records how the score iteration ended.
type RankerMeta struct {
	Converged  bool    `json:"converged"`
	Iterations int     `json:"iterations"`
	Damping    float64 `json:"damping"`
}

// LayerMeta reports one layer's measured size against its budget.
type LayerMeta struct {
	TokensUsed int `json:"tokens_used"`
	Budget     int `json:"budget"`
}

type LayerMetas struct {
	L1 LayerMeta `json:"l1"`
	L2 LayerMeta `json:"l2"`
	L3 LayerMeta `json:"l3"`
}

// NewMeta seeds a record with the schema version filled in.
func NewMeta(project string) Meta {
	return Meta{SchemaVersion: metaSchemaVersion, ProjectName: project}
}

// Tokens measures text with the renderer's counter, for reporting layer
// usage in the metadata record.
func (r *Renderer) Tokens(text string) int {
	return r.count(text)
}
