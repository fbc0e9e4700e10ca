package importer

// StructuralError means the file itself is unusable (wrong column layout,
// missing key column). It aborts a run before any row is read; per-row
// problems never produce it.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return e.Reason
}
