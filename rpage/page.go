// Package rpage is the Page Engine (C7): it wraps a base select with a count
// query and LIMIT/OFFSET pagination, and decomposes large record lists into
// batches for chunked inserts - grounded on the teacher's BulkExec/
// BatchSizeByPlaceholders chunking convention in database/db.go, generalized
// from "chunks of placeholders" to "chunks of records" for both reads and
// writes.
package rpage

import (
	"context"
	"strings"

	"github.com/rbatis-go/rbatis/rdialect"
	"github.com/rbatis-go/rbatis/rerror"
	"github.com/rbatis-go/rbatis/rexec"
	"github.com/rbatis-go/rbatis/rvalue"
)

// PageRequest is the input form of Page: the caller-specified page number,
// size and counting behavior, with no records yet.
type PageRequest struct {
	PageNo      uint64
	PageSize    uint64
	DoCount     bool
	SearchCount bool
}

// Page is a page of records plus the pagination metadata describing where it
// sits within the full result set.
type Page[T any] struct {
	Records     []T
	PageNo      uint64
	PageSize    uint64
	Total       uint64
	DoCount     bool
	SearchCount bool
}

// SelectPage runs baseSQL (a plain, un-paginated SELECT) against ex, paginated
// per req. When req.SearchCount is set, a COUNT(1) variant of baseSQL is
// executed first and its scalar becomes Total; otherwise Total stays 0.
func SelectPage[T any](ctx context.Context, ex rexec.Executor, baseSQL string, args []rvalue.Value, req PageRequest) (Page[T], error) {
	if req.PageSize == 0 {
		return Page[T]{}, rerror.New(rerror.KindDecode, "rpage: page size must be > 0")
	}
	if req.PageNo == 0 {
		req.PageNo = 1
	}

	page := Page[T]{PageNo: req.PageNo, PageSize: req.PageSize, DoCount: req.DoCount, SearchCount: req.SearchCount}

	if req.SearchCount {
		countSQL, err := countQuery(baseSQL)
		if err != nil {
			return Page[T]{}, err
		}

		row, err := ex.QueryOne(ctx, countSQL, args)
		if err != nil {
			return Page[T]{}, err
		}

		total, err := firstCellI64(row)
		if err != nil {
			return Page[T]{}, err
		}
		page.Total = uint64(total)
	}

	paged := appendLimitOffset(baseSQL, ex.Dialect(), req.PageSize, (req.PageNo-1)*req.PageSize)

	rows, err := ex.Query(ctx, paged, args)
	if err != nil {
		return Page[T]{}, err
	}

	records, err := rexec.DecodeRows[T](rows)
	if err != nil {
		return Page[T]{}, err
	}
	page.Records = records

	return page, nil
}

// MakePages decomposes records into contiguous pages of at most batchSize
// entries. An empty input yields an empty slice; batchSize >= len(records)
// yields a single page. batchSize must be > 0.
func MakePages[T any](records []T, batchSize int) ([]Page[T], error) {
	if batchSize <= 0 {
		return nil, rerror.New(rerror.KindDecode, "rpage: batch size must be > 0")
	}
	if len(records) == 0 {
		return nil, nil
	}

	pages := make([]Page[T], 0, (len(records)+batchSize-1)/batchSize)
	for pageNo := uint64(1); ; pageNo++ {
		start := int(pageNo-1) * batchSize
		if start >= len(records) {
			break
		}
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		pages = append(pages, Page[T]{
			Records:  records[start:end],
			PageNo:   pageNo,
			PageSize: uint64(batchSize),
			Total:    uint64(len(records)),
		})
	}

	return pages, nil
}

func firstCellI64(v rvalue.Value) (int64, error) {
	kv := v.MapKV()
	if len(kv) != 1 {
		return 0, rerror.DecodeColumnMismatch()
	}
	n, ok := kv[0].Val.AsI64()
	if !ok {
		return 0, rerror.DecodeColumnMismatch()
	}
	return n, nil
}

func appendLimitOffset(baseSQL string, dialect rdialect.Dialect, limit, offset uint64) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(baseSQL, " \t\n;"))

	if dialect == rdialect.MSSQL {
		// MSSQL's OFFSET/FETCH requires an ORDER BY; the caller's base select
		// is expected to already carry one if ordering matters for paging.
		b.WriteString(" OFFSET ")
		b.WriteString(uitoa(offset))
		b.WriteString(" ROWS FETCH NEXT ")
		b.WriteString(uitoa(limit))
		b.WriteString(" ROWS ONLY")
		return b.String()
	}

	b.WriteString(" LIMIT ")
	b.WriteString(uitoa(limit))
	b.WriteString(" OFFSET ")
	b.WriteString(uitoa(offset))
	return b.String()
}

func uitoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
