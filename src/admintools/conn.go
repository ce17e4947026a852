package admintools

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/quillpress/quill/src/db"
)

func mustConn(ctx context.Context) *pgx.Conn {
	conn, err := db.NewConn(ctx)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	return conn
}
