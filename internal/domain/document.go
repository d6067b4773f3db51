package domain

// DocumentChunk is a bounded substring of a document's extracted text, the
// atomic unit of retrieval. Immutable once produced; Ordinal is the
// zero-based position of the chunk within its document.
type DocumentChunk struct {
	Text           string `json:"text"`
	SourceDocument string `json:"source_document"`
	Ordinal        int    `json:"ordinal"`
}

// IndexRecord is what the vector index stores, one per chunk. Model carries
// the embedding model identifier so queries from an incompatible model can
// be filtered out instead of silently degrading retrieval.
type IndexRecord struct {
	Vector         []float32 `json:"vector"`
	Text           string    `json:"text"`
	SourceDocument string    `json:"source_document"`
	Ordinal        int       `json:"ordinal"`
	Model          string    `json:"model"`
}

// ScoredText is one retrieval hit, ordered by descending similarity.
type ScoredText struct {
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

// ChatTurn is the unit returned to the caller of the query pipeline.
type ChatTurn struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	ContextUsed string `json:"contextUsed"`
}
