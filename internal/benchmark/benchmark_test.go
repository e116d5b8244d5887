// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tagscope/tagscope/internal/category"
	"github.com/tagscope/tagscope/internal/discovery"
	"github.com/tagscope/tagscope/internal/document"
	"github.com/tagscope/tagscope/internal/engine"
	"github.com/tagscope/tagscope/internal/parsecache"
	"github.com/tagscope/tagscope/internal/render"
	"github.com/tagscope/tagscope/internal/tagtree"
	"github.com/tagscope/tagscope/internal/testutil"
	"github.com/tagscope/tagscope/internal/testutil/doctest"
)

const (
	projectRoot = "/bench"
	modules     = 20
	docsPerMod  = 50
)

// sampleFeature is a representative Gherkin document with tags on every
// level that carries them.
const sampleFeature = `@checkout @smoke @JIRA-1201
Feature: Checkout
  As a customer I want to pay for my cart.

  Background:
    Given a signed-in customer

  @smoke @chrome
  Scenario: pay by card
    Given a cart with 2 items
    When I pay with a valid card
    Then the order is confirmed

  @regression @firefox @wip
  Scenario Outline: pay with <method>
    Given a cart with <items> items
    When I pay with <method>
    Then the order is <state>

    @mobile
    Examples:
      | method | items | state     |
      | paypal | 1     | confirmed |
      | iban   | 3     | pending   |

  Rule: gift cards

    @regression
    Scenario: partial gift card payment
      Given a gift card worth 10
      When I pay 25 with the gift card
      Then 15 remain to be paid
`

// sampleStory is a representative JBehave document.
const sampleStory = `Meta:
@theme checkout
@smoke

Narrative:
In order to receive my goods
As a customer
I want to pay for my cart

Scenario: pay by card
Meta:
@regression
@browser chrome firefox
Given a cart with 2 items
When I pay with a valid card
Then the order is confirmed
`

var benchMappings = []category.Mapping{
	{Category: "Test Suite", Tags: "smoke, regression"},
	{Category: "Browser", Tags: "chrome, firefox"},
	{Category: "Jira", Tags: "#^[A-Z]+-[0-9]+$"},
}

var tagPool = []string{"smoke", "regression", "wip", "chrome", "firefox", "mobile", "slow", "JIRA-1", "JIRA-2", "JIRA-3", "checkout", "search"}

// newWorkspace returns an in-memory project of modules*docsPerMod documents.
func newWorkspace() *doctest.Workspace {
	ws := doctest.New(projectRoot)
	for m := range modules {
		mod := fmt.Sprintf("mod%02d", m)
		for d := range docsPerMod {
			id := document.ID(fmt.Sprintf("%s/%s/doc%04d.feature", projectRoot, mod, d))
			tags := []string{tagPool[d%len(tagPool)], tagPool[(d+m)%len(tagPool)], tagPool[(d*7)%len(tagPool)]}
			ws.Put(id, tags, doctest.InRoot(mod), doctest.WithHeading(fmt.Sprintf("Feature %d", d)))
		}
	}
	return ws
}

func newEngine(ws *doctest.Workspace, layout tagtree.LayoutKind) *engine.Engine {
	reg := category.NewRegistry()
	reg.PutMappingsFrom(benchMappings)
	return engine.New(ws, ws, reg, nil, engine.WithLayout(layout))
}

// BenchmarkGherkinParsing benchmarks parsing a feature file with the
// official Gherkin parser.
func BenchmarkGherkinParsing(b *testing.B) {
	var f document.GherkinFormat
	for b.Loop() {
		if _, err := f.Parse(strings.NewReader(sampleFeature)); err != nil {
			b.Fatalf("Parse failed: %v", err)
		}
	}
}

// BenchmarkGherkinFallback benchmarks the lexical scan used for documents
// the Gherkin parser rejects.
func BenchmarkGherkinFallback(b *testing.B) {
	broken := strings.Replace(sampleFeature, "Feature:", "Featur:", 1)
	var f document.GherkinFormat
	for b.Loop() {
		if _, err := f.Parse(strings.NewReader(broken)); err != nil {
			b.Fatalf("Parse failed: %v", err)
		}
	}
}

// BenchmarkStoryParsing benchmarks parsing a JBehave story.
func BenchmarkStoryParsing(b *testing.B) {
	var f document.StoryFormat
	for b.Loop() {
		if _, err := f.Parse(strings.NewReader(sampleStory)); err != nil {
			b.Fatalf("Parse failed: %v", err)
		}
	}
}

// BenchmarkDiscovery benchmarks walking a project on disk and resolving
// the content root of every document.
func BenchmarkDiscovery(b *testing.B) {
	root := b.TempDir()
	files := make(map[string]string)
	for m := range 10 {
		files[fmt.Sprintf("mod%02d/go.mod", m)] = "module example.com/mod\n"
		for d := range 20 {
			files[fmt.Sprintf("mod%02d/features/doc%02d.feature", m, d)] = sampleFeature
		}
	}
	testutil.MustWriteTree(b, root, files)

	ws, err := discovery.New(discovery.Config{Root: root})
	if err != nil {
		b.Fatalf("discovery.New failed: %v", err)
	}

	for b.Loop() {
		ws.Refresh()
		for _, id := range ws.Documents() {
			ws.ContentRootOf(id)
		}
	}
}

// BenchmarkBuildModel benchmarks a full scan of both layouts.
func BenchmarkBuildModel(b *testing.B) {
	ws := newWorkspace()
	for _, layout := range []tagtree.LayoutKind{tagtree.LayoutFlat, tagtree.LayoutGrouped} {
		b.Run(string(layout), func(b *testing.B) {
			e := newEngine(ws, layout)
			for b.Loop() {
				e.BuildModel()
			}
		})
	}
}

// BenchmarkReconcileBatch benchmarks reconciling a batch of edited
// documents against a built tree.
func BenchmarkReconcileBatch(b *testing.B) {
	ws := newWorkspace()
	e := newEngine(ws, tagtree.LayoutGrouped)
	e.BuildModel()

	ids := ws.Documents()[:100]
	variants := [][]string{{"smoke", "slow"}, {"regression", "JIRA-9"}}

	i := 0
	for b.Loop() {
		tags := variants[i%len(variants)]
		for _, id := range ids {
			ws.SetTags(id, tags...)
		}
		e.ReconcileBatch(ids)
		i++
	}
}

// BenchmarkSessionApply benchmarks the session path: parallel parsing
// through the cache, then one locked apply.
func BenchmarkSessionApply(b *testing.B) {
	ws := newWorkspace()
	cache := document.NewCache(ws, nil)
	s := engine.NewSession(newEngine(ws, tagtree.LayoutGrouped), cache)
	b.Cleanup(s.Close)
	if err := s.Rescan(b.Context()); err != nil {
		b.Fatalf("Rescan failed: %v", err)
	}

	ids := ws.Documents()[:100]
	i := 0
	for b.Loop() {
		tag := tagPool[i%len(tagPool)]
		for _, id := range ids {
			ws.SetTags(id, tag, "smoke")
		}
		if _, err := s.Apply(b.Context(), ids...); err != nil {
			b.Fatalf("Apply failed: %v", err)
		}
		i++
	}
}

// BenchmarkSwitchLayout benchmarks toggling between the layouts.
func BenchmarkSwitchLayout(b *testing.B) {
	ws := newWorkspace()
	e := newEngine(ws, tagtree.LayoutFlat)
	e.BuildModel()

	kinds := []tagtree.LayoutKind{tagtree.LayoutGrouped, tagtree.LayoutFlat}
	i := 0
	for b.Loop() {
		e.SwitchLayout(kinds[i%2])
		i++
	}
}

// BenchmarkRenderText benchmarks snapshotting and rendering the tree.
func BenchmarkRenderText(b *testing.B) {
	ws := newWorkspace()
	e := newEngine(ws, tagtree.LayoutGrouped)
	e.BuildModel()
	opts := render.TextOptions{Theme: render.PlainTheme()}

	for b.Loop() {
		snap := render.Capture(e, tagtree.StatisticsDetailed)
		if err := render.Text(io.Discard, snap, opts); err != nil {
			b.Fatalf("Text failed: %v", err)
		}
	}
}

// BenchmarkParseCache benchmarks cache hits of the persistent parse cache.
func BenchmarkParseCache(b *testing.B) {
	store, err := parsecache.Open(parsecache.InMemoryConfig())
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	b.Cleanup(func() { testutil.MustClose(b, store) })

	var f document.GherkinFormat
	parsed, err := f.Parse(strings.NewReader(sampleFeature))
	if err != nil {
		b.Fatalf("Parse failed: %v", err)
	}

	ids := make([]document.ID, 200)
	stamp := document.Stamp{Size: int64(len(sampleFeature)), ModTime: 1}
	for i := range ids {
		ids[i] = document.ID(filepath.ToSlash(filepath.Join(projectRoot, fmt.Sprintf("doc%03d.feature", i))))
		store.Put(ids[i], stamp, parsed)
	}

	i := 0
	for b.Loop() {
		if _, ok := store.Get(ids[i%len(ids)], stamp); !ok {
			b.Fatal("cache miss")
		}
		i++
	}
}
