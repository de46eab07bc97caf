package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsDuplicate(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	if !isDuplicate(dup) {
		t.Fatal("1062 not detected")
	}
	if !isDuplicate(fmt.Errorf("insert: %w", dup)) {
		t.Fatal("wrapped 1062 not detected")
	}
	if isDuplicate(&mysql.MySQLError{Number: 1146}) || isDuplicate(errors.New("1062")) {
		t.Fatal("false positive")
	}
}
