package store

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update violates a database
// constraint (duplicate unique key, empty required field, missing
// foreign key). Callers treat a conflicting insert as "an equivalent
// mutation already happened" rather than a fatal error.
var ErrConflict = errors.New("conflict")

// constraintClassifiers hold the driver-specific predicates for
// integrity errors. lib/pq is built in; any other driver registers its
// predicate through RegisterConstraintClassifier.
var constraintClassifiers = []func(error) bool{pqConstraintErr}

// RegisterConstraintClassifier teaches the store to recognize another
// driver's integrity errors. The sqlite-backed test suites register a
// classifier for their driver; the server binary links only lib/pq.
func RegisterConstraintClassifier(classify func(error) bool) {
	constraintClassifiers = append(constraintClassifiers, classify)
}

func pqConstraintErr(err error) bool {
	var pqErr *pq.Error
	// Class 23 covers integrity constraint violations.
	return errors.As(err, &pqErr) && strings.HasPrefix(string(pqErr.Code), "23")
}

// mapConstraintErr converts driver-level integrity errors into
// ErrConflict so no raw driver error escapes the store.
func mapConstraintErr(err error) error {
	if err == nil {
		return nil
	}
	for _, classify := range constraintClassifiers {
		if classify(err) {
			return ErrConflict
		}
	}
	return err
}
