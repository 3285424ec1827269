package mysql

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	driver "github.com/go-sql-driver/mysql"

	"vendorsummary/internal/store"
	"vendorsummary/internal/table"
)

func TestPrepareStatements(t *testing.T) {
	t.Parallel()

	d, _ := store.DialectFor(store.KindMySQL)
	tbl := table.Table{Columns: []table.Column{{Name: "Brand", Kind: table.KindInt}}}

	got := prepareStatements(d, "inv.summary", tbl)
	want := []string{
		"DROP TABLE IF EXISTS `inv`.`summary__staging`, `inv`.`summary__retired`",
		"CREATE TABLE IF NOT EXISTS `inv`.`summary` (`Brand` BIGINT)",
		"CREATE TABLE `inv`.`summary__staging` (`Brand` BIGINT)",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("prepareStatements =\n  %q\nwant\n  %q", got, want)
	}
}

func TestSwapStatements(t *testing.T) {
	t.Parallel()

	d, _ := store.DialectFor(store.KindMySQL)
	got := swapStatements(d, "summary")
	if len(got) != 2 {
		t.Fatalf("got %d statements", len(got))
	}
	if want := "RENAME TABLE `summary` TO `summary__retired`, `summary__staging` TO `summary`"; got[0] != want {
		t.Fatalf("rename = %q, want %q", got[0], want)
	}
	if !strings.HasPrefix(got[1], "DROP TABLE IF EXISTS `summary__retired`") {
		t.Fatalf("drop = %q", got[1])
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	err := describe(&driver.MySQLError{Number: 1146, Message: "Table doesn't exist"})
	if !strings.Contains(err.Error(), "mysql error 1146") {
		t.Fatalf("describe = %v", err)
	}
	var me *driver.MySQLError
	if !errors.As(err, &me) {
		t.Fatalf("describe lost the driver error")
	}

	plain := errors.New("x")
	if describe(plain) != plain {
		t.Fatalf("describe changed a non-driver error")
	}
}
