package ingestion

// TextExtractor extracts plain text from a document on disk.
//
// Implementations return the full text of the document and the number of
// pages it spans. A page count of zero means the format does not expose
// page boundaries.
type TextExtractor interface {
	ExtractText(path string) (text string, pages int, err error)
}
