package cli

import (
	"errors"
	"fmt"

	"eoreview/internal/content"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// explain adds the flag or env var that fixes a credentials error.
func explain(err error) error {
	switch {
	case errors.Is(err, content.ErrNoPassword):
		return fmt.Errorf("%w (pass --password or set EOREVIEW_PASSWORD)", err)
	case errors.Is(err, content.ErrNoCredentials):
		return fmt.Errorf("%w (pass --key1/--key2 once, or run `eoreview keys set`)", err)
	case errors.Is(err, content.ErrNoPack):
		return fmt.Errorf("%w (add one with `eoreview pack`)", err)
	}
	return err
}
