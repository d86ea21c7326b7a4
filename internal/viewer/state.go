// Package viewer holds the per-session view state: the viewer content, the
// quick links and the search term. Loads for a topic are tagged with a
// request token so a slower, superseded load never replaces a newer one.
package viewer

import (
	"sync"
	"time"

	"github.com/dgallion1/docview/internal/highlight"
	"github.com/dgallion1/docview/internal/nav"
	"github.com/dgallion1/docview/internal/render"
	"golang.org/x/net/html"
)

// State is the view of one session. All methods are safe for concurrent use.
type State struct {
	mu sync.Mutex

	id        string
	topic     string
	token     uint64
	loading   bool
	failure   string
	root      *html.Node
	quick     []nav.Link
	term      string
	result    *highlight.Result
	updatedAt time.Time
}

// Snapshot is a read-only, JSON-safe copy of the view.
type Snapshot struct {
	Session   string            `json:"session"`
	Topic     string            `json:"topic"`
	Token     uint64            `json:"token"`
	Loading   bool              `json:"loading"`
	Error     string            `json:"error,omitempty"`
	HTML      string            `json:"html"`
	Quick     []nav.Link        `json:"quick_links"`
	Term      string            `json:"term"`
	Highlight *highlight.Result `json:"highlight,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func NewState(id string) *State {
	return &State{
		id:        id,
		root:      render.Viewer(),
		updatedAt: time.Now(),
	}
}

func (s *State) ID() string { return s.id }

// Begin starts a load for topic and returns its token. The search term is
// cleared and the viewer shows the loading placeholder until Commit.
func (s *State) Begin(topic string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token++
	s.topic = topic
	s.loading = true
	s.failure = ""
	s.term = ""
	s.result = nil
	s.quick = nil
	s.root = render.Viewer(render.Loading(topic))
	s.updatedAt = time.Now()
	return s.token
}

// Commit installs the result of the load tagged token. It reports false, and
// changes nothing, when a newer load has begun since. A term searched while
// the load was running is applied to the new content.
func (s *State) Commit(token uint64, root *html.Node, quick []nav.Link) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		return false
	}
	s.root = root
	s.quick = quick
	if s.term != "" {
		res := highlight.Refresh(s.root, s.term)
		s.result = &res
	}
	s.loading = false
	s.updatedAt = time.Now()
	return true
}

// Fail ends the load tagged token without content. Like Commit it ignores
// superseded tokens.
func (s *State) Fail(token uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		return false
	}
	s.loading = false
	s.failure = err.Error()
	s.root = render.Viewer()
	s.updatedAt = time.Now()
	return true
}

// Search applies term to the current viewer content. Calls are serialized,
// so each one sees the tree the previous one left.
func (s *State) Search(term string) highlight.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := highlight.Refresh(s.root, term)
	s.term = term
	s.result = &res
	s.updatedAt = time.Now()
	return res
}

// Token returns the token of the latest load.
func (s *State) Token() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Current reports whether token still belongs to the latest load.
func (s *State) Current(token uint64) bool {
	return s.Token() == token
}

func (s *State) touched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Snapshot returns a JSON-safe copy of the view.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	markup, err := render.InnerHTML(s.root)
	failure := s.failure
	if err != nil && failure == "" {
		failure = err.Error()
	}
	quick := s.quick
	if quick == nil {
		quick = []nav.Link{}
	}
	var res *highlight.Result
	if s.result != nil {
		r := *s.result
		res = &r
	}
	return Snapshot{
		Session:   s.id,
		Topic:     s.topic,
		Token:     s.token,
		Loading:   s.loading,
		Error:     failure,
		HTML:      markup,
		Quick:     append([]nav.Link(nil), quick...),
		Term:      s.term,
		Highlight: res,
		UpdatedAt: s.updatedAt,
	}
}
