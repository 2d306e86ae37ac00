package pgdb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPostgresDuplicate(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "products_barcode_uidx"}

	assert.True(t, postgresDuplicate(dup))
	assert.True(t, postgresDuplicate(fmt.Errorf("insert: %w", dup)))
	assert.False(t, postgresDuplicate(&pgconn.PgError{Code: "23503"}))
	assert.False(t, postgresDuplicate(errors.New("23505")))
	assert.False(t, postgresDuplicate(nil))
}
