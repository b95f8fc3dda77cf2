package docstore

import "github.com/strata3d/strata/internal/schema"

// PatchRejectedError reports a rejected batch. Reason is the complete
// human/AI-readable rejection report; the live document is guaranteed
// untouched. Callers (an AI action layer) are expected to correct the
// batch and retry.
type PatchRejectedError struct {
	BatchID    string
	Reason     string
	Violations []schema.ValidationError
}

// Error implements the error interface. The message is the report
// itself, suitable for feeding straight back to an automated writer.
func (e *PatchRejectedError) Error() string {
	return e.Reason
}
