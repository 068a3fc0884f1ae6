package source

// Option configures a Reader.
type Option func(*Reader)

// WithDelimiter sets the field separator.
func WithDelimiter(d rune) Option {
	return func(r *Reader) {
		if d != 0 {
			r.delimiter = d
		}
	}
}
