package response

import (
	"fmt"
	"strings"

	"hr-assistant-be/pkg/ai/bulk"
	"hr-assistant-be/pkg/store"
)

// maxListedFailures bounds the per-item lines in a chat reply; the full
// list stays available through the failed-rows export.
const maxListedFailures = 10

func BulkSummary(s *bulk.Summary) string {
	if s.Cancelled {
		return fmt.Sprintf("Operation cancelled after processing %d of %d item(s).", s.Processed, s.Total)
	}

	var b strings.Builder
	switch s.Operation {
	case store.ActionBulkCreate:
		fmt.Fprintf(&b, "Processed %d candidates: %d added, %d skipped (duplicates), %d failed.\n",
			s.Total, s.Succeeded, s.Skipped, len(s.Failed))
	case store.ActionBulkDelete:
		fmt.Fprintf(&b, "Bulk delete finished: %d deleted, %d failed.\n", s.Succeeded, len(s.Failed))
	default:
		fmt.Fprintf(&b, "Bulk update finished: %d updated, %d failed.\n", s.Succeeded, len(s.Failed))
	}

	for i, f := range s.Failed {
		if i == maxListedFailures {
			fmt.Fprintf(&b, "- ... and %d more\n", len(s.Failed)-maxListedFailures)
			break
		}
		switch {
		case f.Row > 0 && f.Label != "":
			fmt.Fprintf(&b, "- Row %d (%s): %s\n", f.Row, f.Label, f.Reason)
		case f.Row > 0:
			fmt.Fprintf(&b, "- Row %d: %s\n", f.Row, f.Reason)
		default:
			fmt.Fprintf(&b, "- Candidate %d: %s\n", f.ID, f.Reason)
		}
	}
	if s.Operation == store.ActionBulkCreate && len(s.Failed) > 0 {
		b.WriteString("\nFailed rows can be downloaded from the failed-rows export.\n")
	}
	return b.String()
}
