package vectordb

import "errors"

// ErrIndexUnavailable is returned by mutating calls when no index has been
// loaded or created yet. Searches degrade to an empty result instead.
var ErrIndexUnavailable = errors.New("vector index unavailable")

// Passage is one retrieved unit of knowledge.
type Passage struct {
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

// Metadata keys stored alongside each vector.
const (
	MetaSource   = "source"
	MetaTicketID = "ticket_id"
	MetaDocument = "document_id"
	MetaPath     = "path"
)
