package entity

import "fmt"

type Filter string

const (
	FilterNone  Filter = "none"
	FilterRed   Filter = "red"
	FilterGreen Filter = "green"
	FilterBlue  Filter = "blue"
)

// Filters lists the supported tags in display order.
var Filters = []Filter{FilterNone, FilterRed, FilterGreen, FilterBlue}

// ParseFilter maps a tag to a Filter. The empty tag means FilterNone.
func ParseFilter(tag string) (Filter, error) {
	if tag == "" {
		return FilterNone, nil
	}
	for _, f := range Filters {
		if string(f) == tag {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, tag)
}
