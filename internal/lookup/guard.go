package lookup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	errx "github.com/clinic-frontdesk/agent/internal/core/error"
)

const DefaultRowLimit = 20

var (
	forbiddenWords = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|copy|comment|vacuum|call|execute|merge|lock|refresh|reindex|cluster|listen|notify|set)\b`)
	tableRefs      = regexp.MustCompile(`(?i)\b(?:from|join)\s+("?[a-z_][a-z0-9_]*"?(?:\."?[a-z_][a-z0-9_]*"?)?)`)
	cteNames       = regexp.MustCompile(`(?i)(?:\bwith|,)\s*(?:recursive\s+)?([a-z_][a-z0-9_]*)\s+as\s*\(`)
	limitClause    = regexp.MustCompile(`(?i)\blimit\s+(\d+)\s*$`)
	fence          = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// Guard validates a generated statement and returns it in executable form:
// a single SELECT (or WITH ... SELECT) that only reads the schema tables and
// returns at most limit rows. A trailing LIMIT above limit is capped by
// wrapping the statement.
func Guard(statement string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultRowLimit
	}
	sql := strings.TrimSpace(statement)
	if m := fence.FindStringSubmatch(sql); m != nil {
		sql = strings.TrimSpace(m[1])
	}
	sql = strings.TrimSpace(strings.TrimRight(sql, "; \n\t"))
	if sql == "" {
		return "", errx.Validation("lookup: empty statement")
	}
	if strings.Contains(sql, ";") {
		return "", errx.Validation("lookup: multiple statements are not allowed")
	}
	if strings.Contains(sql, "--") || strings.Contains(sql, "/*") {
		return "", errx.Validation("lookup: comments are not allowed")
	}

	lower := strings.ToLower(sql)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return "", errx.Validation("lookup: only SELECT statements are allowed")
	}
	if w := forbiddenWords.FindString(sql); w != "" {
		return "", errx.Validation("lookup: keyword %q is not allowed", strings.ToUpper(w))
	}

	// column names are accepted too so EXTRACT(... FROM col) passes
	allowed := map[string]bool{}
	for _, t := range Tables {
		allowed[t.Name] = true
		for _, c := range t.Columns {
			allowed[c] = true
		}
	}
	for _, m := range cteNames.FindAllStringSubmatch(sql, -1) {
		allowed[strings.ToLower(m[1])] = true
	}
	for _, m := range tableRefs.FindAllStringSubmatch(sql, -1) {
		name := strings.ToLower(strings.ReplaceAll(m[1], `"`, ""))
		name = strings.TrimPrefix(name, "public.")
		if !allowed[name] {
			return "", errx.Validation("lookup: table %q is not part of the clinic schema", name)
		}
	}

	if m := limitClause.FindStringSubmatch(sql); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= limit {
			return sql, nil
		}
	}
	return fmt.Sprintf("SELECT * FROM (%s) AS lookup LIMIT %d", sql, limit), nil
}
