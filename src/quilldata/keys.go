package quilldata

import (
	"context"
	"errors"

	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/imagepipe"
	"github.com/quillpress/quill/src/oops"
)

func GetKey(ctx context.Context, dbConn db.ConnOrTx, name string) (string, error) {
	value, err := db.QueryOneScalar[string](ctx, dbConn,
		`SELECT value FROM keys WHERE name = $1`,
		name,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return "", db.NotFound
		}
		return "", oops.New(err, "failed to read key %s", name)
	}
	return value, nil
}

func SetKey(ctx context.Context, dbConn db.ConnOrTx, name, value string) error {
	_, err := dbConn.Exec(ctx,
		`
		INSERT INTO keys (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value
		`,
		name,
		value,
	)
	if err != nil {
		return oops.New(err, "failed to store key %s", name)
	}
	return nil
}

// Reads the upload credential from the keys table. A missing or empty row
// is imagepipe.ErrMissingCredential.
func ImageCredential(dbConn db.ConnOrTx, keyName string) imagepipe.CredentialFunc {
	return func(ctx context.Context) (string, error) {
		value, err := GetKey(ctx, dbConn, keyName)
		if errors.Is(err, db.NotFound) || (err == nil && value == "") {
			return "", imagepipe.ErrMissingCredential
		}
		return value, err
	}
}
