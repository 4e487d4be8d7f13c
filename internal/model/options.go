package model

// Option is a value accepted by a closed-set field together with its display label.
type Option struct {
	Value string
	Label string
}

// LabelFor returns the label of value within options, or value itself when unknown.
func LabelFor(options []Option, value string) string {
	for _, option := range options {
		if option.Value == value {
			return option.Label
		}
	}
	return value
}
