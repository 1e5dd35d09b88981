package query

import (
	"errors"
	"fmt"
	"strings"
)

// Source is the set of parquet files holding one reporting country.
type Source struct {
	Country string
	URLs    []string
}

func Escape(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

func Literal(value string) string {
	return "'" + Escape(value) + "'"
}

// List renders values as a comma separated list of string literals.
func List(values []string) string {
	literals := make([]string, 0, len(values))
	for _, value := range values {
		literals = append(literals, Literal(value))
	}
	return strings.Join(literals, ", ")
}

// ReadClause unions one parquet read per source, tagging every row with the
// source country. Columns are matched by name both across the files of a
// source and across sources.
func ReadClause(sources []Source) (string, error) {
	if len(sources) == 0 {
		return "", errors.New("query: no sources provided")
	}
	selects := make([]string, 0, len(sources))
	for _, source := range sources {
		if len(source.URLs) == 0 {
			return "", fmt.Errorf("query: no files for %s", source.Country)
		}
		selects = append(selects, fmt.Sprintf(
			"SELECT %s AS country, file.* FROM read_parquet([%s], union_by_name=true) AS file",
			Literal(source.Country), List(source.URLs)))
	}
	return "(" + strings.Join(selects, " UNION ALL BY NAME ") + ")", nil
}

// CountryRows selects columns for the source countries.
func CountryRows(sources []Source, columns []string) (string, error) {
	clause, err := ReadClause(sources)
	if err != nil {
		return "", err
	}
	countries := make([]string, 0, len(sources))
	for _, source := range sources {
		countries = append(countries, source.Country)
	}
	return fmt.Sprintf("SELECT %s FROM %s AS data WHERE country IN (%s)",
		strings.Join(columns, ", "), clause, List(countries)), nil
}
