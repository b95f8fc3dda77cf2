package schema

import (
	"fmt"
	"strings"
)

// fixChecklist is appended to every rejection report. It targets the
// mistakes automated writers make most often, so a correction loop can
// fix a batch without further round trips.
var fixChecklist = []string{
	`color must be "#" followed by exactly 6 hex digits (e.g. "#ff8800"), not a color name`,
	`position must be exactly 3 numbers, e.g. [0, 1.5, -2]`,
	`size must be a positive number; omit it for the default of 1`,
	`node type must be "mesh" or "light"`,
	`every asset or texture key referenced by a node must exist under /assets`,
	`activeScene must name an entry under /scenes`,
	`node ids must be non-empty and unique within their scene`,
}

// Report renders violations as a multi-line string: one line per
// failing field path, then the common-fixes checklist. The output is
// meant to be readable by a human and directly feedable to an automated
// correction loop.
func Report(errs []ValidationError) string {
	if len(errs) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "document validation failed with %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(&b, "  - %s: %s [%s]\n", e.Field, e.Message, e.Code)
	}
	b.WriteString("common fixes:\n")
	for _, fix := range fixChecklist {
		fmt.Fprintf(&b, "  * %s\n", fix)
	}
	return b.String()
}
