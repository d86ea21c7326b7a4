package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docview/internal/doctree"
	"github.com/dgallion1/docview/internal/parser"
	"github.com/dgallion1/docview/internal/render"
	"github.com/dgallion1/docview/internal/section"
	"github.com/dgallion1/docview/internal/sheets"
	"github.com/dgallion1/docview/internal/source"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	Docs        []string // document paths searched on every load, in display order
	Concurrency int      // documents fetched and converted at once
	Parser      parser.Options
}

// Loader runs the per-topic load: fetch, convert, extract, render and
// spreadsheet expansion for every configured document.
type Loader struct {
	src      source.Source
	docs     []string
	limit    int
	opts     parser.Options
	cache    *Cache
	stats    *Stats
	expander *sheets.Expander
	log      *slog.Logger
}

func NewLoader(src source.Source, cache *Cache, stats *Stats, cfg LoaderConfig, log *slog.Logger) *Loader {
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = len(cfg.Docs)
	}
	if cache == nil {
		cache = NewCache(0)
	}
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	return &Loader{
		src:      src,
		docs:     cfg.Docs,
		limit:    max(limit, 1),
		opts:     cfg.Parser,
		cache:    cache,
		stats:    stats,
		expander: sheets.NewExpander(src, log),
		log:      log,
	}
}

// Load is the outcome of one topic load.
type Load struct {
	Topic    string
	Blocks   []*html.Node // one per matching document, in document-list order
	Matched  []string     // paths of the matching documents
	Failed   []string     // paths that could not be fetched or converted
	Expanded int          // spreadsheet links replaced by tables
	Broken   int          // spreadsheet links that could not be loaded
	Duration time.Duration
}

// Root builds the viewer content for the load.
func (l *Load) Root() *html.Node {
	if len(l.Blocks) == 0 {
		return render.Viewer(render.NoMatches(l.Topic))
	}
	return render.Viewer(l.Blocks...)
}

type docResult struct {
	block *html.Node
	err   error
	rep   sheets.Report
}

// Load searches every document for topic. It returns only when all documents
// are done, and only fails if ctx ends first. A document that cannot be
// fetched or converted is logged and contributes nothing.
func (l *Loader) Load(ctx context.Context, topic string) (*Load, error) {
	start := time.Now()
	log := l.log.With("topic", topic)
	results := make([]docResult, len(l.docs))

	var g errgroup.Group
	g.SetLimit(l.limit)
	for i, p := range l.docs {
		g.Go(func() error {
			results[i] = l.loadOne(ctx, p, topic)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Load{Topic: topic}
	for i, r := range results {
		p := l.docs[i]
		if r.err != nil {
			log.Warn("document unavailable", "doc", p, "error", r.err)
			out.Failed = append(out.Failed, p)
			continue
		}
		if r.block == nil {
			continue
		}
		out.Blocks = append(out.Blocks, r.block)
		out.Matched = append(out.Matched, p)
		out.Expanded += r.rep.Expanded
		out.Broken += r.rep.Broken
	}
	out.Duration = time.Since(start)

	log.Info("topic loaded",
		"matches", len(out.Blocks),
		"failed", len(out.Failed),
		"sheets", out.Expanded,
		"broken_sheets", out.Broken,
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

func (l *Loader) loadOne(ctx context.Context, p, topic string) docResult {
	doc, err := l.Document(ctx, p)
	if err != nil {
		return docResult{err: err}
	}
	sec, ok := section.Extract(doc.Nodes, topic)
	if !ok {
		return docResult{}
	}
	block := render.Block(p, sec)
	rep := l.expander.Expand(ctx, block, p)
	return docResult{block: block, rep: rep}
}

// Document returns the converted document at p, from the cache when the
// entry is fresh or the source bytes are unchanged.
func (l *Loader) Document(ctx context.Context, p string) (*doctree.Document, error) {
	key := cacheKey(p)
	if doc, ok := l.cache.Fresh(key); ok {
		return doc, nil
	}

	start := time.Now()
	data, err := l.src.Open(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p, err)
	}
	sum := Fingerprint(data)
	if doc, ok := l.cache.Match(key, sum); ok {
		return doc, nil
	}

	conv, err := parser.ForFile(p, l.opts)
	if err != nil {
		return nil, err
	}
	doc, err := conv.Convert(bytes.NewReader(data), p)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", p, err)
	}
	l.stats.Record(strings.ToLower(filepath.Ext(p)), time.Since(start))
	l.cache.Put(key, sum, doc)
	return doc, nil
}

// Outline is the heading list of one configured document.
type Outline struct {
	Path     string   `json:"path"`
	Title    string   `json:"title"`
	Headings []string `json:"headings"`
	Error    string   `json:"error,omitempty"`
}

// Outlines converts every configured document and lists its headings.
func (l *Loader) Outlines(ctx context.Context) []Outline {
	out := make([]Outline, len(l.docs))

	var g errgroup.Group
	g.SetLimit(l.limit)
	for i, p := range l.docs {
		g.Go(func() error {
			o := Outline{Path: p, Title: path.Base(p), Headings: []string{}}
			doc, err := l.Document(ctx, p)
			if err != nil {
				o.Error = err.Error()
			} else {
				o.Title = doc.Title
				if h := section.Outline(doc.Nodes); h != nil {
					o.Headings = h
				}
			}
			out[i] = o
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (l *Loader) Docs() []string { return l.docs }

func (l *Loader) Cache() *Cache { return l.cache }

func (l *Loader) Stats() *Stats { return l.stats }

// cacheKey is the rooted, cleaned form of a document path. The watcher maps
// file events to the same form.
func cacheKey(p string) string {
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}
