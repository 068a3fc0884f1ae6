package preprocess

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNumeric sets the columns that are median-filled and standardized.
func WithNumeric(cols ...string) Option {
	return func(p *Pipeline) { p.numeric = append([]string(nil), cols...) }
}

// WithCategorical sets the columns that are mode-filled and one-hot encoded.
func WithCategorical(cols ...string) Option {
	return func(p *Pipeline) { p.categorical = append([]string(nil), cols...) }
}
