// Package inmemdb provides map-backed repositories for tests and local
// hacking; no database required.
package inmemdb

import (
	"strconv"
	"sync"

	"github.com/prologin/gccsite/core/applicant"
	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/core/form"
	"github.com/prologin/gccsite/core/newsletter"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/core/sponsor"
	"github.com/prologin/gccsite/core/user"
)

type DB struct {
	mutex   sync.RWMutex
	pkCount int

	users       map[int]*user.User
	forms       map[string]*form.Form
	questions   map[string]*form.Question
	formItems   map[string][]formItem // form id -> ordered question refs
	editions    map[int]*edition.Edition
	centers     map[string]*edition.Center
	events      map[string]*edition.Event
	applicants  map[string]*applicant.Applicant
	wishes      map[string]*applicant.EventWish
	answers     map[string]*applicant.Answer
	labels      map[string]*review.Label
	correctors  map[string]*review.Corrector
	subscribers map[int]*newsletter.Subscriber
	sponsors    map[string]*sponsor.Sponsor
}

type formItem struct {
	questionID string
	order      int
	seq        int
}

func NewDB() *DB {
	return &DB{
		users:       make(map[int]*user.User),
		forms:       make(map[string]*form.Form),
		questions:   make(map[string]*form.Question),
		formItems:   make(map[string][]formItem),
		editions:    make(map[int]*edition.Edition),
		centers:     make(map[string]*edition.Center),
		events:      make(map[string]*edition.Event),
		applicants:  make(map[string]*applicant.Applicant),
		wishes:      make(map[string]*applicant.EventWish),
		answers:     make(map[string]*applicant.Answer),
		labels:      make(map[string]*review.Label),
		correctors:  make(map[string]*review.Corrector),
		subscribers: make(map[int]*newsletter.Subscriber),
		sponsors:    make(map[string]*sponsor.Sponsor),
	}
}

// nextPK must be called with the write lock held.
func (db *DB) nextPK() int {
	db.pkCount++
	return db.pkCount
}

func (db *DB) nextID() string {
	return "inmem-" + strconv.Itoa(db.nextPK())
}
