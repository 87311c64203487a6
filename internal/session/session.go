// Package session keeps per-session UI preferences in memory.
package session

import (
	"fmt"
	"sync"

	"github.com/calvinalkan/cycle-count/internal/count"
)

// Prefs are the preferences of one session.
type Prefs struct {
	Lang    string `json:"lang"`
	Sound   bool   `json:"sound"`
	Vibrate bool   `json:"vibrate"`
}

// T returns en or es depending on the session language.
func (p Prefs) T(en, es string) string {
	if p.Lang == count.LangSpanish {
		return es
	}

	return en
}

// Update is a partial change to [Prefs]. Nil fields are left alone.
type Update struct {
	Lang    *string `json:"lang,omitempty"`
	Sound   *bool   `json:"sound,omitempty"`
	Vibrate *bool   `json:"vibrate,omitempty"`
}

// MaxSessions caps how many sessions a [Store] keeps. Storing one more
// evicts an arbitrary other session, which then reads the defaults again.
const MaxSessions = 10_000

// Store maps session ids to preferences. Only sessions whose preferences
// differ from the defaults are kept; every other id reads the defaults. The
// zero value is not usable; see [NewStore].
type Store struct {
	mu       sync.Mutex
	defaults Prefs
	prefs    map[string]Prefs
}

// NewStore returns a store whose sessions start in lang with sound and
// vibration on. An empty lang means English.
func NewStore(lang string) *Store {
	if lang == "" {
		lang = count.LangEnglish
	}

	return &Store{
		defaults: Prefs{Lang: lang, Sound: true, Vibrate: true},
		prefs:    make(map[string]Prefs),
	}
}

// Get returns the preferences of id, or the defaults when id never changed
// anything. Nothing is stored.
func (s *Store) Get(id string) Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getLocked(id)
}

// Apply merges u into the preferences of id and returns the result. A
// session is stored only while it differs from the defaults. Nothing changes
// when the language is not supported.
func (s *Store) Apply(id string, u Update) (Prefs, error) {
	if u.Lang != nil && *u.Lang != count.LangEnglish && *u.Lang != count.LangSpanish {
		return Prefs{}, fmt.Errorf("%w: %s", count.ErrUnsupportedLang, *u.Lang)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getLocked(id)

	if u.Lang != nil {
		p.Lang = *u.Lang
	}

	if u.Sound != nil {
		p.Sound = *u.Sound
	}

	if u.Vibrate != nil {
		p.Vibrate = *u.Vibrate
	}

	if p == s.defaults {
		delete(s.prefs, id)

		return p, nil
	}

	if _, ok := s.prefs[id]; !ok && len(s.prefs) >= MaxSessions {
		for victim := range s.prefs {
			delete(s.prefs, victim)

			break
		}
	}

	s.prefs[id] = p

	return p, nil
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.prefs)
}

func (s *Store) getLocked(id string) Prefs {
	p, ok := s.prefs[id]
	if !ok {
		return s.defaults
	}

	return p
}
