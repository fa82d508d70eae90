package pack

// Options holds the packing constants. All lengths are in graph units.
type Options struct {
	// Gap is the minimum separation between placed boxes.
	Gap float64 `toml:"gap"`
	// Step is the grid spacing of candidate positions.
	Step float64 `toml:"step"`
	// MaxCandidates bounds the candidates examined per box. When exhausted
	// the box goes below everything placed so far.
	MaxCandidates int `toml:"max_candidates"`
	// TargetAspect is the preferred width to height ratio of the layout.
	TargetAspect float64 `toml:"target_aspect"`

	Header     float64 `toml:"header"`
	Padding    float64 `toml:"padding"`
	MinWidth   float64 `toml:"min_width"`
	MinHeight  float64 `toml:"min_height"`
	MaxColumns int     `toml:"max_columns"`

	ColumnGap float64 `toml:"column_gap"`
	RowGap    float64 `toml:"row_gap"`
	// ExternalGap separates the file columns from the external column.
	ExternalGap float64 `toml:"external_gap"`

	CharWidth      float64 `toml:"char_width"`
	LabelPadding   float64 `toml:"label_padding"`
	FileHeight     float64 `toml:"file_height"`
	FileMinWidth   float64 `toml:"file_min_width"`
	FileMaxWidth   float64 `toml:"file_max_width"`
	ExternalHeight float64 `toml:"external_height"`
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		Gap:            24,
		Step:           20,
		MaxCandidates:  20000,
		TargetAspect:   1.6,
		Header:         28,
		Padding:        12,
		MinWidth:       160,
		MinHeight:      80,
		MaxColumns:     4,
		ColumnGap:      8,
		RowGap:         6,
		ExternalGap:    16,
		CharWidth:      7,
		LabelPadding:   16,
		FileHeight:     24,
		FileMinWidth:   60,
		FileMaxWidth:   220,
		ExternalHeight: 20,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&o.Gap, d.Gap)
	fill(&o.Step, d.Step)
	fill(&o.TargetAspect, d.TargetAspect)
	fill(&o.Header, d.Header)
	fill(&o.Padding, d.Padding)
	fill(&o.MinWidth, d.MinWidth)
	fill(&o.MinHeight, d.MinHeight)
	fill(&o.ColumnGap, d.ColumnGap)
	fill(&o.RowGap, d.RowGap)
	fill(&o.ExternalGap, d.ExternalGap)
	fill(&o.CharWidth, d.CharWidth)
	fill(&o.LabelPadding, d.LabelPadding)
	fill(&o.FileHeight, d.FileHeight)
	fill(&o.FileMinWidth, d.FileMinWidth)
	fill(&o.FileMaxWidth, d.FileMaxWidth)
	fill(&o.ExternalHeight, d.ExternalHeight)
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = d.MaxCandidates
	}
	if o.MaxColumns < 2 {
		o.MaxColumns = d.MaxColumns
	}
	if o.FileMaxWidth < o.FileMinWidth {
		o.FileMaxWidth = o.FileMinWidth
	}
	return o
}
