package rng

import (
	"github.com/gofrs/uuid"
)

var uuidGen = uuid.NewGenWithOptions(uuid.WithRandomReader(Reader))

// UUID returns a random (version 4) UUID drawn from the shared generator.
func UUID() (uuid.UUID, error) {
	return uuidGen.NewV4()
}
