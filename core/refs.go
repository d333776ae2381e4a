package core

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// Ref is an optional foreign key of a payload. Get looks the row up among
// the rows of the payload's owner.
type Ref struct {
	Field string
	ID    null.String
	Get   func(ctx context.Context, id string) error
}

// CheckRefs reports every set reference that is not found as a field error.
// Other lookup errors are returned as is.
func CheckRefs(ctx context.Context, refs ...Ref) error {
	var flds []FieldError
	for _, r := range refs {
		if !r.ID.Valid {
			continue
		}
		if err := r.Get(ctx, r.ID.String); err != nil {
			if !IsNotFound(err) {
				return errors.Wrapf(err, "checking %s", r.Field)
			}
			flds = append(flds, FieldError{Field: r.Field, Error: errors.Cause(err).Error()})
		}
	}
	if len(flds) > 0 {
		return NewValidationError(nil, flds...)
	}
	return nil
}
