// Command rbatis-bench is a small demo/benchmark binary exercising the full
// pipeline - template compile, dialect rewrite, executor, interceptor chain,
// page engine and table sync - against a real
// rdriver adapter, grounded on how the teacher's own cmd binaries parse
// flags/config via config.ParseFlags/config.Load and build a
// *logging.Logging before doing any real work.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/rbatis-go/rbatis/config"
	"github.com/rbatis-go/rbatis/logging"
	"github.com/rbatis-go/rbatis/rdialect"
	"github.com/rbatis-go/rbatis/rdriver"
	"github.com/rbatis-go/rbatis/rdriver/mysql"
	"github.com/rbatis-go/rbatis/rdriver/postgres"
	"github.com/rbatis-go/rbatis/rdriver/sqlite"
	"github.com/rbatis-go/rbatis/rexec"
	"github.com/rbatis-go/rbatis/rintercept"
	"github.com/rbatis-go/rbatis/rpage"
	"github.com/rbatis-go/rbatis/rsync"
	"github.com/rbatis-go/rbatis/rtemplate"
	"github.com/rbatis-go/rbatis/rvalue"
	"github.com/rbatis-go/rbatis/snowflake"
)

// Flags are the CLI switches, parsed by config.ParseFlags the same way the
// teacher's binaries parse their -c/--config flag.
type Flags struct {
	Driver string `short:"d" long:"driver" description:"driver to bench: mysql, postgres or sqlite" default:"sqlite"`
	DSN    string `long:"dsn" description:"connection string; defaults to an in-memory sqlite database"`
	Rows   int    `long:"rows" description:"number of rows to insert and page through" default:"100"`
}

const mapperXML = `
<mapper>
  <insert id="insert_bench">
    insert into bench_items (id, name, score) values (#{id}, #{name}, #{score})
  </insert>
  <select id="select_bench">
    select id, name, score from bench_items order by id
  </select>
</mapper>
`

func main() {
	var flags Flags
	if err := config.ParseFlags(&flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logs, err := logging.NewLogging("rbatis-bench", logging.Config{Output: logging.CONSOLE})
	if err != nil {
		fail(err)
	}
	logger := logs.GetChildLogger("bench")

	if err := run(flags, logger); err != nil {
		fail(err)
	}
}

func run(flags Flags, logger *logging.Logger) error {
	ctx := context.Background()

	driver, dsn := resolveDriver(flags)

	db, dialect, err := driver.Connect(ctx, dsn)
	if err != nil {
		return errors.Wrap(err, "can't connect")
	}
	defer func() { _ = db.Close() }()

	conn := rdriver.NewConnection(db)
	if err := conn.Ping(ctx); err != nil {
		return errors.Wrap(err, "can't ping")
	}

	chain := rintercept.NewChain(rintercept.NewLogInterceptor(logger))
	ex := rexec.NewPoolExecutor(db, dialect, chain)

	if err := rsync.Sync(ctx, ex, rsync.DefaultColumnMapper, sampleBenchItem(), "bench_items"); err != nil {
		return errors.Wrap(err, "can't sync schema")
	}

	registry := rtemplate.NewRegistry()
	if err := registry.LoadXML(mapperXML); err != nil {
		return errors.Wrap(err, "can't load mapper")
	}

	insertTpl := registry.Get("insert_bench")
	selectTpl := registry.Get("select_bench")

	logger.Infof("inserting %d rows", flags.Rows)
	for i := 0; i < flags.Rows; i++ {
		root := rvalue.MapOf(
			[2]rvalue.Value{rvalue.String("id"), rvalue.I64(snowflake.NextID())},
			[2]rvalue.Value{rvalue.String("name"), rvalue.String(fmt.Sprintf("item-%d", i))},
			[2]rvalue.Value{rvalue.String("score"), rvalue.F64(float64(i) * 1.5)},
		)

		sql, args, err := insertTpl.RenderFor(root, dialect)
		if err != nil {
			return errors.Wrap(err, "can't render insert")
		}
		if _, err := ex.Exec(ctx, sql, args); err != nil {
			return errors.Wrap(err, "can't insert")
		}
	}

	baseSQL, _ := selectTpl.Render(rvalue.Null)
	baseSQL, err = rdialect.Rewrite(baseSQL, dialect)
	if err != nil {
		return errors.Wrap(err, "can't rewrite select")
	}

	start := time.Now()
	page, err := rpage.SelectPage[benchItem](ctx, ex, baseSQL, nil, rpage.PageRequest{
		PageNo: 1, PageSize: 20, DoCount: true, SearchCount: true,
	})
	if err != nil {
		return errors.Wrap(err, "can't select page")
	}
	logger.Infof("fetched page %d (page size %d, %d of %d rows) in %s", page.PageNo, page.PageSize, len(page.Records), page.Total, time.Since(start))

	pages, err := rpage.MakePages(page.Records, 10)
	if err != nil {
		return errors.Wrap(err, "can't paginate in-memory records")
	}
	logger.Infof("split fetched page into %d sub-pages", len(pages))

	return nil
}

type benchItem struct {
	ID    int64   `db:"id"`
	Name  string  `db:"name"`
	Score float64 `db:"score"`
}

func sampleBenchItem() rvalue.Value {
	return rvalue.MapOf(
		[2]rvalue.Value{rvalue.String("id"), rvalue.I64(0)},
		[2]rvalue.Value{rvalue.String("name"), rvalue.String("")},
		[2]rvalue.Value{rvalue.String("score"), rvalue.F64(0)},
	)
}

func resolveDriver(flags Flags) (rdriver.Driver, string) {
	switch flags.Driver {
	case "mysql":
		return mysql.New(), orDefault(flags.DSN, "mysql://root@127.0.0.1:3306/bench")
	case "postgres":
		return postgres.New(), orDefault(flags.DSN, "postgres://postgres@127.0.0.1:5432/bench")
	default:
		return sqlite.New(), orDefault(flags.DSN, "sqlite://:memory:")
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
