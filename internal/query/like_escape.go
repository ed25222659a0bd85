package query

import (
	"fmt"
	"strings"
)

const likeEscapeClause = "ESCAPE '\\'"

var likeReplacer = strings.NewReplacer(
	"\\", "\\\\",
	"%", "\\%",
	"_", "\\_",
)

func escapeLikePattern(value string) string {
	return likeReplacer.Replace(value)
}

// buildContainsSQL matches token anywhere in the column. Both sides are
// lowercased so sqlite and postgres agree on case handling.
func buildContainsSQL(columnName string, token interface{}) (string, []interface{}) {
	pattern := "%" + escapeLikePattern(strings.ToLower(fmt.Sprint(token))) + "%"
	return fmt.Sprintf("LOWER(%s) LIKE ? %s", columnName, likeEscapeClause), []interface{}{pattern}
}
