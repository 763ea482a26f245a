package sdk

// Style is a partial set of visual properties. Nil fields are unset and
// leave the underlying value untouched when merged.
type Style struct {
	FillColor     *string  `json:"fill_color,omitempty" yaml:"fill_color,omitempty"`
	FillOpacity   *float64 `json:"fill_opacity,omitempty" yaml:"fill_opacity,omitempty"`
	StrokeColor   *string  `json:"stroke_color,omitempty" yaml:"stroke_color,omitempty"`
	StrokeWeight  *float64 `json:"stroke_weight,omitempty" yaml:"stroke_weight,omitempty"`
	StrokeOpacity *float64 `json:"stroke_opacity,omitempty" yaml:"stroke_opacity,omitempty"`
	ZIndex        *int     `json:"z_index,omitempty" yaml:"z_index,omitempty"`
	Clickable     *bool    `json:"clickable,omitempty" yaml:"clickable,omitempty"`
	Visible       *bool    `json:"visible,omitempty" yaml:"visible,omitempty"`
}

// Merge returns s with every field set in o applied on top.
func (s Style) Merge(o Style) Style {
	if o.FillColor != nil {
		s.FillColor = o.FillColor
	}
	if o.FillOpacity != nil {
		s.FillOpacity = o.FillOpacity
	}
	if o.StrokeColor != nil {
		s.StrokeColor = o.StrokeColor
	}
	if o.StrokeWeight != nil {
		s.StrokeWeight = o.StrokeWeight
	}
	if o.StrokeOpacity != nil {
		s.StrokeOpacity = o.StrokeOpacity
	}
	if o.ZIndex != nil {
		s.ZIndex = o.ZIndex
	}
	if o.Clickable != nil {
		s.Clickable = o.Clickable
	}
	if o.Visible != nil {
		s.Visible = o.Visible
	}
	return s
}

// IsZero reports whether no field is set.
func (s Style) IsZero() bool {
	return s == Style{}
}

// Hidden reports whether the style explicitly sets visible to false.
func (s Style) Hidden() bool {
	return s.Visible != nil && !*s.Visible
}

// Ptr returns a pointer to v. Handy for building partial styles.
func Ptr[T any](v T) *T {
	return &v
}
