package input

import "strings"

// StringSliceFlag accumulates values for flags given repeatedly or as a
// comma-separated list, so -t 1.1.1.1 -t 8.8.8.8 and -t 1.1.1.1,8.8.8.8
// read the same.
type StringSliceFlag []string

func (s *StringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *StringSliceFlag) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}
