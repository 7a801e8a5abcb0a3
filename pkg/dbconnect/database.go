package dbconnect

import "github.com/jmoiron/sqlx"

type Database interface {
	Connect() (*sqlx.DB, error)
	Ping() error
}
