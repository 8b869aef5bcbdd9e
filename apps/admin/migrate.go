package main

import (
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/prologin/gccsite/core"
	appfs "github.com/prologin/gccsite/fs"
	"github.com/prologin/gccsite/storage/database"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) createDB() error {
	return database.CreateIfNotExist(core.Conf)
}

func (cli *commandLine) migrate(args []string) error {
	goose.SetBaseFS(appfs.FS)

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	var db *sql.DB
	if cli.db != nil {
		db = cli.db.DB.DB
	}
	return gooseRunFunc(args[0], db, "migrations", arguments...)
}
