package types

import (
	errs "errors"
	"fmt"
	"net/mail"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/oliverisaac/goli"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"

	NoteStoreSQL    = "sql"
	NoteStoreMongo  = "mongo"
	NoteStoreMemory = "memory"
)

type Config struct {
	ListenAddr        string
	Hostname          string
	AllowSignup       bool
	AllowSignupEmails []string
	CookieSecret      []byte
	DBDriver          string
	DBPath            string
	DBDSN             string
	NoteStore         string
	MongoURI          string
	MongoDatabase     string
	RateLimitRPS      float64
	RateLimitBurst    int
	BatchConcurrency  int
	LogLevel          logrus.Level
}

func ConfigFromEnv() (Config, error) {
	ret := Config{}
	var retErr error
	var err error

	ret.ListenAddr = goli.DefaultEnv("KEEPNOTES_LISTEN_ADDR", ":8080")
	ret.Hostname = goli.DefaultEnv("KEEPNOTES_HOSTNAME", "localhost")

	ret.LogLevel, err = logrus.ParseLevel(goli.DefaultEnv("KEEPNOTES_LOG_LEVEL", "info"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing KEEPNOTES_LOG_LEVEL"))
	}

	ret.AllowSignup, err = strconv.ParseBool(goli.DefaultEnv("KEEPNOTES_ALLOW_SIGNUP", "true"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing KEEPNOTES_ALLOW_SIGNUP"))
	}

	allowedEmails := strings.Split(os.Getenv("KEEPNOTES_ALLOW_SIGNUP_EMAILS"), ",")
	for _, e := range allowedEmails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		email, err := mail.ParseAddress(e)
		if err != nil {
			retErr = errs.Join(retErr, errors.Wrapf(err, "parsing email %q", e))
		} else {
			ret.AllowSignupEmails = append(ret.AllowSignupEmails, email.Address)
		}
	}
	if len(ret.AllowSignupEmails) > 0 {
		logrus.Infof("Allowed signup emails: %v", ret.AllowSignupEmails)
	}

	cookieSecret, ok := os.LookupEnv("KEEPNOTES_COOKIE_STORE_SECRET")
	if !ok || cookieSecret == "" {
		retErr = errs.Join(retErr, fmt.Errorf("You must define env KEEPNOTES_COOKIE_STORE_SECRET"))
	} else {
		ret.CookieSecret = []byte(cookieSecret)
	}

	ret.DBDriver = goli.DefaultEnv("KEEPNOTES_DB_DRIVER", DBDriverSQLite)
	switch ret.DBDriver {
	case DBDriverSQLite:
		ret.DBPath, ok = os.LookupEnv("KEEPNOTES_DB_PATH")
		if !ok {
			retErr = errs.Join(retErr, fmt.Errorf("You must define env KEEPNOTES_DB_PATH"))
		} else if _, err := os.Stat(path.Dir(ret.DBPath)); err != nil {
			retErr = errs.Join(retErr, errors.Wrap(err, "Directory for KEEPNOTES_DB_PATH must exist"))
		}
	case DBDriverPostgres:
		ret.DBDSN, ok = os.LookupEnv("KEEPNOTES_DB_DSN")
		if !ok {
			retErr = errs.Join(retErr, fmt.Errorf("You must define env KEEPNOTES_DB_DSN for the postgres driver"))
		}
	default:
		retErr = errs.Join(retErr, fmt.Errorf("unknown KEEPNOTES_DB_DRIVER %q", ret.DBDriver))
	}

	ret.NoteStore = goli.DefaultEnv("KEEPNOTES_NOTE_STORE", NoteStoreSQL)
	switch ret.NoteStore {
	case NoteStoreSQL, NoteStoreMemory:
	case NoteStoreMongo:
		ret.MongoURI, ok = os.LookupEnv("KEEPNOTES_MONGO_URI")
		if !ok {
			retErr = errs.Join(retErr, fmt.Errorf("You must define env KEEPNOTES_MONGO_URI for the mongo note store"))
		}
		ret.MongoDatabase = goli.DefaultEnv("KEEPNOTES_MONGO_DATABASE", "keepnotes")
	default:
		retErr = errs.Join(retErr, fmt.Errorf("unknown KEEPNOTES_NOTE_STORE %q", ret.NoteStore))
	}

	ret.RateLimitRPS, err = strconv.ParseFloat(goli.DefaultEnv("KEEPNOTES_RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing KEEPNOTES_RATE_LIMIT_RPS"))
	}

	ret.RateLimitBurst, err = strconv.Atoi(goli.DefaultEnv("KEEPNOTES_RATE_LIMIT_BURST", "40"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing KEEPNOTES_RATE_LIMIT_BURST"))
	}

	ret.BatchConcurrency, err = strconv.Atoi(goli.DefaultEnv("KEEPNOTES_BATCH_CONCURRENCY", "8"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing KEEPNOTES_BATCH_CONCURRENCY"))
	} else if ret.BatchConcurrency < 1 {
		retErr = errs.Join(retErr, fmt.Errorf("KEEPNOTES_BATCH_CONCURRENCY must be at least 1"))
	}

	return ret, retErr
}
