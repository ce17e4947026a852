package db

import (
	"fmt"
	"strings"
)

// Assembles a query piece by piece, numbering `$?` placeholders as it goes.
type QueryBuilder struct {
	sql  strings.Builder
	args []any
}

/*
Appends a chunk of SQL. Each `$?` becomes the next argument number:

	qb.Add(`WHERE author_id = $?`, userID)   // $1
	qb.Add(`AND $? = ANY(tags)`, "go")       // $2
*/
func (qb *QueryBuilder) Add(sql string, args ...any) {
	numPlaceholders := strings.Count(sql, "$?")
	if numPlaceholders != len(args) {
		panic(fmt.Errorf("cannot add chunk to query; expected %d arguments but got %d", numPlaceholders, len(args)))
	}

	for _, arg := range args {
		qb.args = append(qb.args, arg)
		sql = strings.Replace(sql, "$?", fmt.Sprintf("$%d", len(qb.args)), 1)
	}

	qb.sql.WriteString(sql)
	qb.sql.WriteString("\n")
}

func (qb *QueryBuilder) String() string {
	return qb.sql.String()
}

func (qb *QueryBuilder) Args() []any {
	return qb.args
}
