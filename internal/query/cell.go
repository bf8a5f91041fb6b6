package query

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/marcboeker/go-duckdb"
)

// MaxCellLength is the number of runes shown per cell on screen.
const MaxCellLength = 100

// NullDisplay is how a NULL cell is rendered on screen.
const NullDisplay = "NULL"

// Normalize reduces a scanned driver value to a plain value that survives a
// JSON round trip: nil, bool, int64, float64 or string. Everything else is
// rendered with FormatValue.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil, bool, int64, string:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return FormatValue(x)
		}
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return strconv.FormatUint(x, 10)
	case float32:
		return Normalize(float64(x))
	default:
		return FormatValue(v)
	}
}

// NormalizeColumn is Normalize for a value read from a column whose engine
// type is dbType. The type disambiguates values the driver returns in a
// shared Go representation.
func NormalizeColumn(v any, dbType string) any {
	switch x := v.(type) {
	case []byte:
		if dbType == "UUID" && len(x) == 16 {
			u := duckdb.UUID(x)
			return u.String()
		}
	case time.Time:
		switch dbType {
		case "DATE":
			return x.Format(time.DateOnly)
		case "TIME":
			return x.Format("15:04:05.999999")
		case "TIMETZ":
			return x.Format("15:04:05.999999-07")
		case "TIMESTAMP", "TIMESTAMP_S", "TIMESTAMP_MS", "TIMESTAMP_NS":
			return x.Format("2006-01-02 15:04:05.999999")
		case "TIMESTAMPTZ":
			return x.Format("2006-01-02 15:04:05.999999-07")
		}
	}
	return Normalize(v)
}

// FormatValue renders a value in full. NULL becomes the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
		return hex.EncodeToString(x)
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format("2006-01-02 15:04:05.999999")
	case *big.Int:
		return x.String()
	case duckdb.Decimal:
		return formatDecimal(x)
	case *duckdb.Decimal:
		if x == nil {
			return ""
		}
		return formatDecimal(*x)
	case duckdb.Interval:
		return formatInterval(x)
	case []any:
		return formatList(x)
	case map[string]any:
		return formatStruct(x)
	case duckdb.Map:
		return formatMap(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// FormatCell renders a value for the results grid, truncated to MaxCellLength runes.
func FormatCell(v any) string {
	if v == nil {
		return NullDisplay
	}
	s := FormatValue(v)
	if utf8.RuneCountInString(s) <= MaxCellLength {
		return s
	}
	return string([]rune(s)[:MaxCellLength])
}

// formatDecimal prints the unscaled value with exactly Scale fractional digits.
func formatDecimal(d duckdb.Decimal) string {
	if d.Value == nil {
		return ""
	}
	digits := new(big.Int).Abs(d.Value).String()
	sign := ""
	if d.Value.Sign() < 0 {
		sign = "-"
	}
	scale := int(d.Scale)
	if scale == 0 {
		return sign + digits
	}
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	return sign + digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
}

const (
	microsPerSecond = int64(time.Second / time.Microsecond)
	microsPerMinute = 60 * microsPerSecond
	microsPerHour   = 60 * microsPerMinute
)

// formatInterval renders an interval like DuckDB: "1 year 2 months 3 days 04:05:06.5".
func formatInterval(iv duckdb.Interval) string {
	var parts []string
	if years := iv.Months / 12; years != 0 {
		parts = append(parts, plural(int64(years), "year"))
	}
	if months := iv.Months % 12; months != 0 {
		parts = append(parts, plural(int64(months), "month"))
	}
	if iv.Days != 0 {
		parts = append(parts, plural(int64(iv.Days), "day"))
	}
	if iv.Micros != 0 || len(parts) == 0 {
		parts = append(parts, formatClock(iv.Micros))
	}
	return strings.Join(parts, " ")
}

func plural(n int64, unit string) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func formatClock(micros int64) string {
	sign := ""
	if micros < 0 {
		sign = "-"
		micros = -micros
	}
	h := micros / microsPerHour
	m := micros % microsPerHour / microsPerMinute
	sec := micros % microsPerMinute / microsPerSecond
	out := fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, sec)
	if frac := micros % microsPerSecond; frac != 0 {
		out += "." + strings.TrimRight(fmt.Sprintf("%06d", frac), "0")
	}
	return out
}

// nested renders a value inside a list, struct or map.
func nested(v any) string {
	if v == nil {
		return NullDisplay
	}
	return FormatValue(v)
}

func formatList(xs []any) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = nested(x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatStruct renders {'a': 1, 'b': x}. The driver hands structs over as Go
// maps, so fields come out in name order.
func formatStruct(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = "'" + k + "': " + nested(m[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatMap renders {k=v, ...} ordered by rendered key.
func formatMap(m duckdb.Map) string {
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, nested(k)+"="+nested(v))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}
