package store

import (
	"database/sql/driver"
	"strconv"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Amount is a uint64 column. database/sql rejects uint64 values with the high
// bit set, so amounts travel as decimal strings.
type Amount uint64

func (a Amount) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(a), 10), nil
}

func (a *Amount) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*a = 0
		return nil
	case int64:
		if v < 0 {
			return errors.Errorf("negative amount %d", v)
		}
		*a = Amount(v)
		return nil
	case []byte:
		return a.parse(string(v))
	case string:
		return a.parse(v)
	default:
		return errors.Errorf("unsupported amount type %T", value)
	}
}

func (a *Amount) parse(s string) error {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "amount %q", s)
	}
	*a = Amount(n)
	return nil
}

// GormDBDataType keeps the full uint64 range. SQLite would turn a numeric
// above int64 into a float, so it stores text.
func (Amount) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "numeric(20,0)"
	}
	return "text"
}
