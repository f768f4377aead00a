package domain

import "fmt"

func errRequired(field string) error {
	return fmt.Errorf("%s is required", field)
}

func errInvariant(msg string) error {
	return fmt.Errorf("invalid job record: %s", msg)
}
