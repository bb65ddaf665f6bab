package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/playlog/internal/store"
)

// pageFetcher serves canned page bodies keyed by page number.
type pageFetcher struct {
	pages map[int]string
	calls []int
}

func (f *pageFetcher) Get(_ context.Context, page, _ int) ([]byte, error) {
	f.calls = append(f.calls, page)
	body, ok := f.pages[page]
	if !ok {
		return nil, fmt.Errorf("unexpected page %d", page)
	}
	return []byte(body), nil
}

// playbackPage renders a source-shaped page with a full header and n rows
// dated 01/05 starting at 10:00.
func playbackPage(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="bx">`)
	for _, h := range []string{"日期", "播出時間", "歌曲名稱", "演唱(奏)者", "專輯"} {
		fmt.Fprintf(&b, "<div>%s</div>", h)
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<div>01/05</div><div>10:%02d</div><div>Song %d</div><div>Artist %d</div><div>Album %d</div>", i, i, i, i)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func emptyPage() string {
	return `<html><body><div>日期</div><div>播出時間</div><div>歌曲名稱</div><div>演唱(奏)者</div></body></html>`
}

func testApp(cfg Config, f Fetcher) *App {
	if cfg.MaxPages == 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.MinPageRecords == 0 {
		cfg.MinPageRecords = DefaultMinPageRecords
	}
	a := New(cfg)
	a.fetcher = f
	a.now = func() time.Time { return time.Date(2024, time.January, 7, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestHarvest_StopsAfterShortPage(t *testing.T) {
	f := &pageFetcher{pages: map[int]string{
		1: playbackPage(6),
		2: playbackPage(3), // below threshold: treated as the last page
		3: playbackPage(6),
	}}
	a := testApp(Config{}, f)

	records, err := a.Harvest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 9 {
		t.Fatalf("expected 9 records, got %d", len(records))
	}
	if len(f.calls) != 2 {
		t.Fatalf("expected fetches for pages 1-2 only, got %v", f.calls)
	}
	for _, r := range records[:6] {
		if r.Page != 1 {
			t.Fatalf("provenance page = %d, want 1: %+v", r.Page, r)
		}
	}
	if records[0].Date != "2024-01-05" {
		t.Fatalf("resolved date = %q, want 2024-01-05", records[0].Date)
	}
	if records[0].RetrievedAt == "" {
		t.Fatalf("expected RetrievedAt stamp")
	}
}

func TestHarvest_EmptyLaterPageEndsWalk(t *testing.T) {
	f := &pageFetcher{pages: map[int]string{
		1: playbackPage(6),
		2: emptyPage(),
	}}
	a := testApp(Config{}, f)

	records, err := a.Harvest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("expected 6 records, got %d", len(records))
	}
}

func TestHarvest_EmptyFirstPageIsFatal(t *testing.T) {
	f := &pageFetcher{pages: map[int]string{1: emptyPage()}}
	a := testApp(Config{}, f)

	_, err := a.Harvest(context.Background())
	if !errors.Is(err, ErrNoRecordsFirstPage) {
		t.Fatalf("expected ErrNoRecordsFirstPage, got %v", err)
	}
}

func TestHarvest_RespectsMaxPages(t *testing.T) {
	f := &pageFetcher{pages: map[int]string{
		1: playbackPage(6),
		2: playbackPage(6),
		3: playbackPage(6),
	}}
	a := testApp(Config{MaxPages: 2}, f)

	records, err := a.Harvest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 12 {
		t.Fatalf("expected 12 records, got %d", len(records))
	}
	if len(f.calls) != 2 {
		t.Fatalf("expected 2 fetches, got %v", f.calls)
	}
}

func TestHarvest_ConfigurableThreshold(t *testing.T) {
	f := &pageFetcher{pages: map[int]string{
		1: playbackPage(3),
		2: playbackPage(3),
		3: emptyPage(),
	}}
	// Threshold of 1 disables the short-page heuristic in practice; the walk
	// only ends on the empty page.
	a := testApp(Config{MinPageRecords: 1}, f)

	records, err := a.Harvest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("expected 6 records, got %d", len(records))
	}
	if len(f.calls) != 3 {
		t.Fatalf("expected 3 fetches, got %v", f.calls)
	}
}

func TestHarvest_LayoutFailureDumpsArtifacts(t *testing.T) {
	debugDir := t.TempDir()
	f := &pageFetcher{pages: map[int]string{
		1: `<html><body><div>關於我們</div><div>聯絡方式</div></body></html>`,
	}}
	a := testApp(Config{DebugDir: debugDir}, f)

	_, err := a.Harvest(context.Background())
	if err == nil {
		t.Fatalf("expected layout error")
	}
	if _, serr := os.Stat(filepath.Join(debugDir, "page_1_failed.html")); serr != nil {
		t.Fatalf("expected failure artifact: %v", serr)
	}
	if _, serr := os.Stat(filepath.Join(debugDir, "page_1_failed_tokens.txt")); serr != nil {
		t.Fatalf("expected token dump: %v", serr)
	}
}

func TestRun_AppendDedupeMergesExisting(t *testing.T) {
	out := filepath.Join(t.TempDir(), "playlog.csv")
	f := &pageFetcher{pages: map[int]string{1: playbackPage(3)}}
	a := testApp(Config{OutputPath: out, AppendDedupe: true}, f)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, err := store.ReadCSV(out)
	if err != nil {
		t.Fatalf("read first output: %v", err)
	}

	// Second run sees the same page; the merged output must not grow.
	f.calls = nil
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, err := store.ReadCSV(out)
	if err != nil {
		t.Fatalf("read second output: %v", err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 rows in both outputs, got %d and %d", len(first), len(second))
	}
}
