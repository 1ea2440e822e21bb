package main

import (
	"bytes"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/wansing/editorial/auth"
	"github.com/wansing/editorial/backend"
	"github.com/wansing/editorial/core"
	"github.com/wansing/editorial/i18n"
	"github.com/wansing/editorial/sqldb"
	"github.com/wansing/editorial/sqldb/mysql"
	"github.com/wansing/editorial/sqldb/sqlite3"
	"github.com/wansing/editorial/util"
	"github.com/xo/dburl"
	"golang.org/x/term"
)

const defaultDB = "sqlite3:editorial.sqlite3?_busy_timeout=10000&_journal=WAL&_sync=NORMAL&cache=shared"

func init() {
	log.SetFlags(0) // no log prefixes, on most systems systemd-journald adds them
}

func main() {

	var dbArg string     // is in both FlagSets
	var configArg string // is in both FlagSets

	// default FlagSet

	// Your reverse proxy must not strip the prefix. So if you're using nginx, the "proxy_pass" value should not end with a slash."
	var base = flag.String("base", "", "strip off this `prefix` from every HTTP request")
	flag.StringVar(&configArg, "config", "", "read default values from this ini `file`")
	// MySQL: collation should be utf8mb4_unicode_ci
	flag.StringVar(&dbArg, "db", defaultDB, "sql database url, see github.com/xo/dburl")
	var labelsDir = flag.String("labels", "", "load translated labels from labels.<lang>.ini files in this `directory`")
	var listenAddr = flag.String("listen", "127.0.0.1:8080", "serve HTTP content at this `ip:port`")

	// init FlagSet

	var initFlags = flag.NewFlagSet("init", flag.ExitOnError)

	initFlags.StringVar(&configArg, "config", "", "read default values from this ini `file`")
	initFlags.StringVar(&dbArg, "db", defaultDB, "sql database url, see github.com/xo/dburl") // copied from above
	var initInsert = initFlags.Bool("insert", false, "creates the given role or user")
	var initJoin = initFlags.Bool("join", false, "joins the given user to the given role")
	var initAddRole = initFlags.Bool("add-role", false, "adds the given role to the given workflow, with reader assignment in every state")
	var rolename = initFlags.String("role", "", "specifies a role `name`")
	var username = initFlags.String("user", "", "specifies a user `name`")
	var workflowID = initFlags.Int("workflow", 0, "specifies a workflow `id`")

	var activeFlags = flag.CommandLine
	if len(os.Args) > 1 && os.Args[1] == "init" {
		activeFlags = initFlags
		initFlags.Parse(os.Args[2:])
	} else {
		flag.Parse()
	}

	// config file, explicit flags take precedence

	if configArg != "" {
		if err := applyConfig(activeFlags, configArg); err != nil {
			log.Printf("could not read config file: %v", err)
			return
		}
	}

	var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

	// database

	dbURL, err := dburl.Parse(dbArg)
	if err != nil {
		log.Printf("could not parse database url: %v", err)
		return
	}

	sqlDB, err := sql.Open(dbURL.Driver, dbURL.DSN)
	if err != nil {
		log.Printf("could not open sql database: %v", err)
		return
	}

	defer func() {
		log.Println("closing database")
		sqlDB.Close()
	}()

	if err = sqlDB.Ping(); err != nil {
		log.Printf("could not ping sql database: %v", err)
		return
	}

	log.Printf("using database %s", dbURL.String())

	// base

	*base = strings.Trim(*base, "/")
	if *base != "" {
		*base = "/" + *base
	}

	// assemble stuff

	var sessionStore scs.Store
	switch dbURL.Driver {
	case "mysql":
		sessionStore, err = mysql.NewSessionStore(sqlDB)
	case "sqlite3":
		sessionStore, err = sqlite3.NewSessionStore(sqlDB)
	default:
		err = fmt.Errorf("unknown database backend: %s", dbURL.Driver)
	}
	if err != nil {
		log.Println(err) // log.Fatalln would not run deferred functions
		return
	}

	sqldb.SetDriver(dbURL.Driver)

	db := &core.CoreDB{
		AdhocDB:    sqldb.NewAdhocDB(sqlDB),
		ApprovalDB: sqldb.NewApprovalDB(sqlDB),
		ContentDB:  sqldb.NewContentDB(sqlDB),
		RoleDB:     sqldb.NewRoleDB(sqlDB),
		UserDB:     sqldb.NewUserDB(sqlDB),
		WorkflowDB: sqldb.NewWorkflowDB(sqlDB),
		Logger:     logger,
	}

	if *labelsDir != "" {
		catalog, err := i18n.Load(*labelsDir)
		if err != nil {
			log.Printf("could not load labels: %v", err)
			return
		}
		log.Printf("loaded labels for %v", catalog.Languages())
		db.Translator = catalog
	}

	var resolver = &auth.Resolver{
		Adhoc:   db.AdhocDB,
		Content: db.ContentDB,
	}

	if err := db.Init(resolver); err != nil {
		log.Println(err)
		return
	}

	resolver.Store = db.Store

	// init

	if initFlags.Parsed() {
		var ctx = context.Background()
		switch {
		case *initInsert:
			if *rolename != "" {
				insertRole(ctx, db, *rolename)
			}
			if *username != "" {
				insertUser(ctx, db, *username)
			}
		case *initJoin:
			if *rolename != "" && *username != "" {
				join(ctx, db, *rolename, *username)
			}
		case *initAddRole:
			if *rolename != "" && *workflowID != 0 {
				addRole(ctx, db, *workflowID, *rolename)
			}
		}
		return
	}

	var sessions = scs.New()
	sessions.Store = sessionStore
	sessions.Cookie.Path = *base + "/"
	sessions.Cookie.SameSite = http.SameSiteStrictMode

	listen(db, sessions, *listenAddr, *base)
}

// applyConfig sets the flags which have not been given on the command line.
func applyConfig(flags *flag.FlagSet, filename string) error {

	values, err := util.Ini(filename)
	if err != nil {
		return err
	}

	var explicit = make(map[string]bool)
	flags.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})

	for name, value := range values {
		if explicit[name] || name == "config" {
			continue
		}
		if flags.Lookup(name) == nil {
			continue // e.g. server keys in an init run
		}
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("key %s: %w", name, err)
		}
	}
	return nil
}

func insertRole(ctx context.Context, db *core.CoreDB, name string) {
	if _, err := db.InsertRole(ctx, name); err != nil {
		log.Printf(`error creating role "%s": %v`, name, err)
	}
}

func insertUser(ctx context.Context, db *core.CoreDB, name string) {

	fmt.Printf("password for user %s: ", name)
	pass1, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		log.Printf("error reading password: %v", err)
		return
	}

	fmt.Printf("repeat password: ")
	pass2, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		log.Printf("error reading password: %v", err)
		return
	}

	if !bytes.Equal(pass1, pass2) {
		log.Printf("passwords don't match")
		return
	}

	user, err := db.InsertUser(ctx, name)
	if err != nil {
		log.Printf("error creating user %s: %v", name, err)
		return
	}

	if err := db.SetPassword(ctx, user, string(pass1)); err != nil {
		log.Printf("error setting password: %v", err)
		return
	}
}

func join(ctx context.Context, db *core.CoreDB, rolename string, username string) {

	role, err := db.GetRoleByName(ctx, rolename)
	if err != nil {
		log.Printf("error getting role %s: %v", rolename, err)
		return
	}

	user, err := db.GetUserByName(ctx, username)
	if err != nil {
		log.Printf("error getting user %s: %v", username, err)
		return
	}

	if err := db.Join(ctx, role.ID, user.Name); err != nil {
		log.Printf("error joining: %v", err)
		return
	}
}

func addRole(ctx context.Context, db *core.CoreDB, workflowID int, rolename string) {

	role, err := db.GetRoleByName(ctx, rolename)
	if err != nil {
		log.Printf("error getting role %s: %v", rolename, err)
		return
	}

	if err := db.Store.AddWorkflowRole(ctx, workflowID, role.ID, role.Name); err != nil {
		log.Printf("error adding role %s to workflow %d: %v", rolename, workflowID, err)
		return
	}
}

func listen(db *core.CoreDB, sessions *scs.SessionManager, addr string, base string) {

	var mux = http.NewServeMux()
	util.HandlePrefix(mux, base, backend.NewBackendRouter(db, sessions))

	// listener and listen

	sigintChannel := make(chan os.Signal, 1)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Println(err)
		return
	}

	log.Printf("listening to %s", addr)

	httpSrv := &http.Server{
		Handler:      sessions.LoadAndSave(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil {

			// don't panic, we want a graceful shutdown
			if err != http.ErrServerClosed {
				log.Printf("error listening: %v", err)
			}

			// ensure graceful shutdown
			sigintChannel <- os.Interrupt
		}
	}()

	// graceful shutdown

	signal.Notify(sigintChannel, os.Interrupt, syscall.SIGTERM) // SIGINT (Interrupt) or SIGTERM
	<-sigintChannel

	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("error shutting down: %v", err)
	}
}
