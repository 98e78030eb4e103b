package idgen

import "fmt"

// Generator produces opaque unique identifiers.
type Generator interface {
	Generate() (string, error)
	// Validate returns nil if id could have come from this generator.
	Validate(id string) error
}

// Generator kinds accepted by New.
const (
	KindUUID   = "uuid"
	KindNanoID = "nanoid"
	KindULID   = "ulid"
	KindKSUID  = "ksuid"
	KindCUID2  = "cuid2"
)

// New returns the generator for kind with default settings.
func New(kind string) (Generator, error) {
	switch kind {
	case "", KindUUID:
		return NewUUIDGenerator(), nil
	case KindNanoID:
		return NewNanoIDGenerator(DefaultNanoIDSize, DefaultNanoIDAlphabet)
	case KindULID:
		return NewULIDGenerator(), nil
	case KindKSUID:
		return NewKSUIDGenerator(), nil
	case KindCUID2:
		return NewCUID2Generator(DefaultCUID2Length)
	default:
		return nil, fmt.Errorf("unknown id generator: %s", kind)
	}
}
