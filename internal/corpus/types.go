package corpus

import (
	"time"

	"github.com/google/uuid"
)

// Article is a single statutory provision, e.g. article 1240 of the Code civil.
type Article struct {
	ID       uuid.UUID
	Number   string // canonical article number, e.g. "1240" or "1240-1"
	Title    string
	Body     string
	CodeName string // e.g. "Code civil"
	URL      string // external reference (Légifrance)

	// Embedding is the stored document vector, nil when the row has not been
	// embedded yet or the stored value could not be decoded.
	Embedding []float32
}

// Decision is a case-law decision (jurisprudence).
type Decision struct {
	ID           uuid.UUID
	Jurisdiction string // e.g. "Cour de cassation, 2e chambre civile"
	Date         time.Time
	Number       string // decision number, e.g. "19-12.345"
	Principle    string // principe dégagé par la décision
	Holding      string // solution retenue
	URL          string

	Embedding []float32
}

// MethodNote is a pedagogical methodology note (fiche de méthodologie).
type MethodNote struct {
	ID       uuid.UUID
	Title    string
	Category string // e.g. "dissertation", "commentaire d'arrêt", "cas pratique"
	Level    string // e.g. "L1", "L2", "M1"
	Content  string

	Embedding []float32
}
