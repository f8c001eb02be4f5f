package recstore

import (
	"encoding/json"

	"github.com/tidwall/pretty"
)

// ExportJSON renders rows as an indented JSON array of arrays, for
// dumping search results to a terminal or a file.
func ExportJSON(rows []Row) []byte {
	if rows == nil {
		rows = []Row{}
	}
	// a [][]string can't fail to marshal
	d, _ := json.Marshal(rows)
	return pretty.Pretty(d)
}
