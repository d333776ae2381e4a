// Command admin provisions the Study Planner database: migrations, users and demo data.
package main

import (
	"context"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/studyplanner/core"
	logsvc "github.com/trezcool/studyplanner/services/logger"
	"github.com/trezcool/studyplanner/storage/database"
	sqlxrepos "github.com/trezcool/studyplanner/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	ctx := context.Background()

	// set up DB
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()

	// start CLI
	cli := commandLine{
		usrRepo: sqlxrepos.NewUserRepository(db),
		migrate: func(command string, args ...string) error {
			return database.Migrate(db.DB, command, args...)
		},
		inTx: func(ctx context.Context, fn func(ctx context.Context, r repos) error) error {
			return database.RunInTx(ctx, db, func(ctx context.Context, tx *sqlx.Tx) error {
				return fn(ctx, sqlxRepos(tx))
			})
		},
		out: os.Stdout,
	}
	if err := cli.run(ctx, os.Args[1:]); err != nil {
		logger.Error("admin: "+err.Error(), err)
		_ = db.Close()
		os.Exit(1)
	}
}

func sqlxRepos(db sqlxrepos.DB) repos {
	return repos{
		users:    sqlxrepos.NewUserRepository(db),
		courses:  sqlxrepos.NewCourseRepository(db),
		syllabus: sqlxrepos.NewSyllabusRepository(db),
		tasks:    sqlxrepos.NewTaskRepository(db),
		events:   sqlxrepos.NewEventRepository(db),
		sessions: sqlxrepos.NewSessionRepository(db),
	}
}
