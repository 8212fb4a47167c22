package identity

import (
	"strconv"
	"strings"
	"sync"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// CopyUUID derives the uuid of a copied node from the copy operation scope and
// the uuid of the node being copied. Replaying the same copy operation yields
// the same uuid sequence.
func CopyUUID(scope uuid.UUID, source uuid.UUID) uuid.UUID {
	return UUID("go-layouts:copy:" + scope.String() + ":" + source.String())
}

// Generator produces identifiers for new entities and for copies.
type Generator interface {
	// New returns a fresh identifier for a newly created entity or copy operation.
	New() uuid.UUID
	// Derive returns the identifier of the copy of source created within scope.
	Derive(scope uuid.UUID, source uuid.UUID) uuid.UUID
}

// NewGenerator returns the default generator: random uuids for new entities,
// content derived uuids for copies.
func NewGenerator() Generator {
	return randomGenerator{}
}

type randomGenerator struct{}

func (randomGenerator) New() uuid.UUID { return uuid.New() }

func (randomGenerator) Derive(scope uuid.UUID, source uuid.UUID) uuid.UUID {
	return CopyUUID(scope, source)
}

// NewSequence returns a generator whose New values are derived from seed and
// an internal counter, so a replayed sequence of operations yields identical ids.
func NewSequence(seed string) Generator {
	return &sequenceGenerator{seed: strings.TrimSpace(seed)}
}

type sequenceGenerator struct {
	mu      sync.Mutex
	seed    string
	counter int
}

func (g *sequenceGenerator) New() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return UUID("go-layouts:sequence:" + g.seed + ":" + strconv.Itoa(g.counter))
}

func (g *sequenceGenerator) Derive(scope uuid.UUID, source uuid.UUID) uuid.UUID {
	return CopyUUID(scope, source)
}
