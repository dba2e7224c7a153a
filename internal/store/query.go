package store

import (
	"fmt"
	"math"
	"strings"

	"github.com/oseayemenre/bookshelf/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

const bookColumns = `b.id, b.user_id, b.title, b.authors, b.isbn, b.publisher, b.year, b.cover_url,
	b.category, b.tags, b.description_notes, b.status, b.rating, b.total_pages,
	b.current_page, b.start_date, b.end_date, b.created_at, b.updated_at`

// Paginate clamps page to [1, math.MaxInt/limit] and limit to [1, MaxLimit],
// so the offset never overflows. Zero values fall back to the defaults.
func Paginate(page, limit int) (int, int, int) {
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}

	switch {
	case page < 1:
		page = DefaultPage
	case page > math.MaxInt/limit:
		page = math.MaxInt / limit
	}

	return page, limit, (page - 1) * limit
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// bookWhere builds the WHERE clause shared by the page, count and status
// count queries. The owner predicate is always $1.
func bookWhere(f *models.BookFilter, withStatus bool) (string, []any) {
	clauses := []string{"b.user_id = $1"}
	args := []any{f.UserId}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ShelfId != nil {
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM shelf_books sb WHERE sb.shelf_id = %s AND sb.book_id = b.id)", next(*f.ShelfId)))
	}

	if withStatus && f.Status != "" {
		clauses = append(clauses, "b.status = "+next(f.Status))
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		p := next("%" + escapeLike(search) + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(b.title ILIKE %[1]s OR array_to_string(b.authors, ' ') ILIKE %[1]s OR array_to_string(b.tags, ' ') ILIKE %[1]s OR b.category ILIKE %[1]s)", p))
	}

	if tag := strings.TrimSpace(f.Tag); tag != "" {
		clauses = append(clauses, fmt.Sprintf("%s = ANY(b.tags)", next(tag)))
	}

	return strings.Join(clauses, " AND "), args
}

func orderBy(sort string) string {
	switch sort {
	case models.SortTitle:
		return "b.title ASC, b.id ASC"
	case models.SortAuthor:
		return "b.authors[1] ASC NULLS LAST, b.title ASC, b.id ASC"
	case models.SortRating:
		return "b.rating DESC NULLS LAST, b.title ASC, b.id ASC"
	case models.SortProgress:
		return "b.current_page DESC NULLS LAST, b.total_pages ASC NULLS LAST, b.id ASC"
	default:
		return "b.created_at DESC, b.id DESC"
	}
}

func listBooksQuery(f *models.BookFilter) (string, []any) {
	where, args := bookWhere(f, true)
	_, limit, offset := Paginate(f.Page, f.Limit)

	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM books b WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		bookColumns, where, orderBy(f.Sort), len(args)-1, len(args))

	return query, args
}

func countBooksQuery(f *models.BookFilter) (string, []any) {
	where, args := bookWhere(f, true)

	return fmt.Sprintf(`SELECT COUNT(*) FROM books b WHERE %s`, where), args
}

// statusCountsQuery groups by status using every filter except status.
func statusCountsQuery(f *models.BookFilter) (string, []any) {
	where, args := bookWhere(f, false)

	return fmt.Sprintf(`SELECT b.status, COUNT(*) FROM books b WHERE %s GROUP BY b.status`, where), args
}
