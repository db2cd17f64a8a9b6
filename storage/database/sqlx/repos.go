// Package sqlxrepos implements the core repositories over database/sql
// via sqlx. Queries use "?" placeholders and are rebound per engine.
package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/bmwamba/darasa/core"
)

// trapNoRowsErr maps driver "no rows" to the domain not-found error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func marshalJSON(v interface{}) (string, error) {
	if v == nil {
		return "[]", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "marshalling json column")
	}
	return string(data), nil
}

func unmarshalJSON(data string, v interface{}) error {
	if data == "" {
		return nil
	}
	return errors.Wrap(json.Unmarshal([]byte(data), v), "unmarshalling json column")
}

// orderBy renders an ORDER BY clause from orderings whose fields appear in
// the allowed set; unknown fields are dropped.
func orderBy(orderings []core.DBOrdering, allowed map[string]bool, fallback string) string {
	clauses := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if allowed[ord.Field] {
			clauses = append(clauses, ord.String())
		}
	}
	if len(clauses) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func joinAnd(clauses []string) string {
	return strings.Join(clauses, " AND ")
}

func in(db *sqlx.DB, query string, args []interface{}) (string, []interface{}, error) {
	q, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "expanding IN clause")
	}
	return db.Rebind(q), inArgs, nil
}
