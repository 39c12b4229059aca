// Package workspace lays out the local channel folders and derives artifact
// paths. A file's presence is the completion marker for the stage that
// writes it, so path derivation must be deterministic for a given title and
// publish date.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tubeharvest/internal/config"
	"tubeharvest/internal/fileutil"
	"tubeharvest/internal/textutil"
)

// DateSuffixLayout formats the publish date appended to artifact names.
const DateSuffixLayout = "20060102"

// Folders names the three artifact subfolders.
type Folders struct {
	Transcripts string
	Summaries   string
	Audio       string
}

// FoldersFromConfig reads the folder names from the archive section.
func FoldersFromConfig(cfg *config.Config) Folders {
	t, s, a := cfg.Folders()
	return Folders{Transcripts: t, Summaries: s, Audio: a}
}

// Naming controls artifact stems.
type Naming struct {
	MaxLength int
	WithDate  bool
}

// NamingFromConfig reads artifact naming from the processing section.
func NamingFromConfig(cfg *config.Config) Naming {
	return Naming{MaxLength: cfg.Processing.FileNameMaxLength, WithDate: cfg.Processing.FileNameTimestamp}
}

// Channel is one channel's local staging area.
type Channel struct {
	Name        string
	Root        string
	Transcripts string
	Summaries   string
	Audio       string
	naming      Naming
}

// ForChannel resolves the workspace of channel under dir.
func ForChannel(dir, channel string, folders Folders, naming Naming) Channel {
	return channelAt(filepath.Join(dir, DirName(channel)), channel, folders, naming)
}

func channelAt(root, channel string, folders Folders, naming Naming) Channel {
	return Channel{
		Name:        channel,
		Root:        root,
		Transcripts: filepath.Join(root, folders.Transcripts),
		Summaries:   filepath.Join(root, folders.Summaries),
		Audio:       filepath.Join(root, folders.Audio),
		naming:      naming,
	}
}

// DirName is the sanitized folder name of a channel. It is also the folder
// name used in the remote archive.
func DirName(channel string) string {
	name := textutil.SanitizeName(channel)
	if name == "" {
		name = "channel"
	}
	return name
}

// Ensure creates the channel root and its artifact folders.
func (c Channel) Ensure() error {
	for _, dir := range c.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Dirs lists the artifact folders in upload order.
func (c Channel) Dirs() []string {
	return []string{c.Transcripts, c.Summaries, c.Audio}
}

// Stem derives the artifact base name: the sanitized title truncated to the
// configured length, then _YYYYMMDD of the publish date when enabled.
func (c Channel) Stem(title string, published time.Time) string {
	stem := textutil.SanitizeName(title)
	if c.naming.MaxLength > 0 {
		stem = textutil.Truncate(stem, c.naming.MaxLength)
	}
	if stem == "" {
		stem = "video"
	}
	if c.naming.WithDate && !published.IsZero() {
		stem += "_" + published.Format(DateSuffixLayout)
	}
	return stem
}

// Artifacts are the three per-item output files.
type Artifacts struct {
	Transcript string
	Summary    string
	Audio      string
}

// Artifacts returns the artifact paths for stem.
func (c Channel) Artifacts(stem string) Artifacts {
	return Artifacts{
		Transcript: filepath.Join(c.Transcripts, stem+".txt"),
		Summary:    filepath.Join(c.Summaries, stem+"_summary.txt"),
		Audio:      filepath.Join(c.Audio, stem+".mp3"),
	}
}

// Complete reports which artifacts already exist.
func (a Artifacts) Complete() (transcript, summary, audio bool) {
	return fileutil.Exists(a.Transcript), fileutil.Exists(a.Summary), fileutil.Exists(a.Audio)
}

// Pending lists the artifact files currently staged in the channel folders,
// skipping temporary files from interrupted writes.
func (c Channel) Pending() ([]string, error) {
	var out []string
	for _, dir := range c.Dirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || IsTempFile(entry.Name()) {
				continue
			}
			out = append(out, filepath.Join(dir, entry.Name()))
		}
	}
	return out, nil
}

// IsTempFile reports whether name is an in-progress atomic write.
func IsTempFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp")
}
