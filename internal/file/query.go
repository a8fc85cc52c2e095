package file

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sort orders for ListQuery.Order.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListQuery filters a listing. Zero values mean "no filter".
type ListQuery struct {
	ID            string
	Name          string // prefix, case-insensitive
	Path          string // decoded virtual directory, exact
	MimeType      string
	Store         string
	SizeFrom      *int64
	SizeTo        *int64
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
	Skip          int
	Take          int
	Order         string

	// Revalidate drops the cached result for this query before reading.
	Revalidate bool
}

// Fingerprint serializes every filter except Revalidate into a cache key.
// Equal queries always produce equal fingerprints.
func (q ListQuery) Fingerprint() string {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("id", q.ID)
	set("name", q.Name)
	set("path", q.Path)
	set("mimetype", q.MimeType)
	set("store", q.Store)
	if q.SizeFrom != nil {
		v.Set("sizeFrom", strconv.FormatInt(*q.SizeFrom, 10))
	}
	if q.SizeTo != nil {
		v.Set("sizeTo", strconv.FormatInt(*q.SizeTo, 10))
	}
	if q.CreatedAtFrom != nil {
		v.Set("createdAtFrom", q.CreatedAtFrom.UTC().Format(time.RFC3339Nano))
	}
	if q.CreatedAtTo != nil {
		v.Set("createdAtTo", q.CreatedAtTo.UTC().Format(time.RFC3339Nano))
	}
	if q.Skip != 0 {
		v.Set("skip", strconv.Itoa(q.Skip))
	}
	if q.Take != 0 {
		v.Set("take", strconv.Itoa(q.Take))
	}
	set("order", q.Order)
	return "files:" + v.Encode()
}

// ParseListQuery reads a ListQuery from URL query parameters.
func ParseListQuery(v url.Values) (ListQuery, error) {
	q := ListQuery{
		ID:       v.Get("id"),
		Name:     v.Get("name"),
		Path:     v.Get("path"),
		MimeType: v.Get("mimetype"),
		Store:    v.Get("store"),
		Order:    v.Get("order"),
	}

	if q.ID != "" {
		if _, err := uuid.Parse(q.ID); err != nil {
			return q, fmt.Errorf("%w: id must be a UUID", ErrInvalidQuery)
		}
	}
	if q.Order != "" && q.Order != OrderAsc && q.Order != OrderDesc {
		return q, fmt.Errorf("%w: order must be %q or %q", ErrInvalidQuery, OrderAsc, OrderDesc)
	}

	var err error
	if q.SizeFrom, err = parseSize(v, "sizeFrom"); err != nil {
		return q, err
	}
	if q.SizeTo, err = parseSize(v, "sizeTo"); err != nil {
		return q, err
	}
	if q.CreatedAtFrom, err = parseTime(v, "createdAtFrom"); err != nil {
		return q, err
	}
	if q.CreatedAtTo, err = parseTime(v, "createdAtTo"); err != nil {
		return q, err
	}
	if q.Skip, err = parseCount(v, "skip"); err != nil {
		return q, err
	}
	if q.Take, err = parseCount(v, "take"); err != nil {
		return q, err
	}
	if s := v.Get("revalidate"); s != "" {
		if q.Revalidate, err = strconv.ParseBool(s); err != nil {
			return q, fmt.Errorf("%w: revalidate must be a boolean", ErrInvalidQuery)
		}
	}
	return q, nil
}

func parseSize(v url.Values, key string) (*int64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidQuery, key)
	}
	return &n, nil
}

func parseCount(v url.Values, key string) (int, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidQuery, key)
	}
	return n, nil
}

func parseTime(v url.Values, key string) (*time.Time, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", ErrInvalidQuery, key)
	}
	return &t, nil
}

// dialect captures the SQL differences between PostgreSQL and SQLite.
type dialect struct {
	placeholder func(n int) string
	timeArg     func(t time.Time) any
	noLimit     string
}

var postgresDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	timeArg:     func(t time.Time) any { return t },
	noLimit:     "ALL",
}

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	timeArg:     func(t time.Time) any { return formatSQLiteTime(t) },
	noLimit:     "-1",
}

// buildListWhere returns the WHERE clause (possibly empty) and its arguments.
func buildListWhere(q ListQuery, d dialect) (string, []any) {
	var conds []string
	var args []any
	add := func(expr string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(expr, d.placeholder(len(args))))
	}

	if q.ID != "" {
		add("id = %s", q.ID)
	}
	if q.Name != "" {
		add(`LOWER(name) LIKE LOWER(%s) ESCAPE '\'`, escapeLike(q.Name)+"%")
	}
	if q.Path != "" {
		add("path = %s", q.Path)
	}
	if q.MimeType != "" {
		add("mimetype = %s", q.MimeType)
	}
	if q.Store != "" {
		add("store = %s", q.Store)
	}
	if q.SizeFrom != nil {
		add("size >= %s", *q.SizeFrom)
	}
	if q.SizeTo != nil {
		add("size <= %s", *q.SizeTo)
	}
	if q.CreatedAtFrom != nil {
		add("created_at >= %s", d.timeArg(*q.CreatedAtFrom))
	}
	if q.CreatedAtTo != nil {
		add("created_at <= %s", d.timeArg(*q.CreatedAtTo))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// buildListTail returns ORDER BY and pagination. Unknown orders sort ascending.
func buildListTail(q ListQuery, d dialect) string {
	dir := "ASC"
	if q.Order == OrderDesc {
		dir = "DESC"
	}
	tail := fmt.Sprintf(" ORDER BY created_at %s, id %s", dir, dir)

	switch {
	case q.Take > 0:
		tail += " LIMIT " + strconv.Itoa(q.Take)
	case q.Skip > 0:
		tail += " LIMIT " + d.noLimit
	}
	if q.Skip > 0 {
		tail += " OFFSET " + strconv.Itoa(q.Skip)
	}
	return tail
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
