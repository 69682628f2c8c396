package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/studia/core"
	"github.com/trezcool/studia/core/schedule"
	"github.com/trezcool/studia/core/user"
	emailsvc "github.com/trezcool/studia/services/email"
	logsvc "github.com/trezcool/studia/services/logger"
	"github.com/trezcool/studia/storage/database"
	sqlxrepos "github.com/trezcool/studia/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())
	sqlxDB := sqlx.NewDb(db, conf.Database.Engine)

	mailLogger := logsvc.NewRollbarLogger(logger, conf)
	mailLogger.Enable(!conf.Debug)

	mailSvc := newMailService(conf, mailLogger)
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(sqlxDB), mailSvc, conf)
	schedSvc := schedule.NewService(sqlxrepos.NewScheduleRepository(sqlxDB), usrSvc, mailSvc, conf)

	// start CLI
	cli := commandLine{
		db:       db,
		usrSvc:   usrSvc,
		schedSvc: schedSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

// newMailService selects the mail backend: console output in debug, sendgrid
// otherwise so the remind command actually emails task owners.
func newMailService(conf *core.Config, lg core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf, lg)
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
