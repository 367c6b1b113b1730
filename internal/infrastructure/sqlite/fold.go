package sqlite

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"

	"github.com/jhoicas/jugueria-api/internal/domain/repository"
)

// driverName driver sqlite3 con las funciones propias registradas en cada conexión.
const driverName = "sqlite3_jugueria"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(repository.FoldFunc, foldValue, true)
		},
	})
}

// foldValue pliega mayúsculas en todo Unicode ("PIÑA" → "piña"); NULL y números pasan sin cambio.
func foldValue(v any) any {
	switch x := v.(type) {
	case string:
		return cases.Fold().String(x)
	case []byte:
		if x == nil {
			return nil
		}
		return cases.Fold().String(string(x))
	default:
		return v
	}
}
