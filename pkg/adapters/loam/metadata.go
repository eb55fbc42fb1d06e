package loam

// PolicyMetadata is the frontmatter of a policy document.
// Sections are kept as loose maps and decoded by the adapter, so numbers
// arrive either as json.Number (strict mode) or as YAML scalars.
type PolicyMetadata struct {
	ID         string         `json:"id" mapstructure:"id"`
	Title      string         `json:"title" mapstructure:"title"`
	Version    string         `json:"version" mapstructure:"version"`
	Thresholds map[string]any `json:"thresholds" mapstructure:"thresholds"`
	Mapping    map[string]any `json:"mapping" mapstructure:"mapping"`
	Symptoms   map[string]any `json:"symptoms" mapstructure:"symptoms"`
	Renal      map[string]any `json:"renal" mapstructure:"renal"`
}
