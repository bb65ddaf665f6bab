package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// dumpLastPage keeps the most recently fetched raw page under DebugDir,
// overwritten on every fetch so a crash always leaves the offending content
// behind. Dump failures are logged, never fatal.
func (a *App) dumpLastPage(content []byte) {
	if a.cfg.DebugDir == "" {
		return
	}
	if err := writeArtifact(a.cfg.DebugDir, "page_last.html", content); err != nil {
		log.Warn().Err(err).Msg("debug dump failed")
	}
}

// dumpFailure preserves the page and its token stream when parsing fails, so
// a layout regression can be diagnosed offline.
func (a *App) dumpFailure(page int, content []byte, tokens []string) {
	if a.cfg.DebugDir == "" {
		return
	}
	name := fmt.Sprintf("page_%d_failed", page)
	if err := writeArtifact(a.cfg.DebugDir, name+".html", content); err != nil {
		log.Warn().Err(err).Msg("debug dump failed")
		return
	}
	dump := strings.Join(tokens, "\n")
	if err := writeArtifact(a.cfg.DebugDir, name+"_tokens.txt", []byte(dump)); err != nil {
		log.Warn().Err(err).Msg("debug dump failed")
	}
}

func writeArtifact(dir, name string, content []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir debug dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
