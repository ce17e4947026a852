package models

// A row of the keys table, holding externally issued credentials.
type Key struct {
	Name  string `db:"name"`
	Value string `db:"value"`
}
