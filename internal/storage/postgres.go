package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	errorMessageOpenPostgresDatabase = "storage: open postgres database"

	recordNotFoundDescription = "registro não encontrado"
)

func openPostgresDatabase(configuration Config) (*gorm.DB, error) {
	if configuration.DataSourceName == "" {
		return nil, ErrMissingDataSourceName
	}

	database, openErr := gorm.Open(postgres.Open(configuration.DataSourceName), gormConfig(configuration))
	if openErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageOpenPostgresDatabase, openErr)
	}
	return database, nil
}

// DescribeError renders a backend error as the short text shown in the admin banner.
// PostgreSQL errors keep their server message and SQLSTATE code.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return recordNotFoundDescription
	}
	var postgresError *pgconn.PgError
	if errors.As(err, &postgresError) {
		description := strings.TrimSpace(postgresError.Message)
		if postgresError.Detail != "" {
			description = description + " (" + strings.TrimSpace(postgresError.Detail) + ")"
		}
		return fmt.Sprintf("%s [%s]", description, postgresError.Code)
	}
	return err.Error()
}
