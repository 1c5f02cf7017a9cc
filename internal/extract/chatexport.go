package extract

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/docfold/docfold/internal/chunk"
)

// ErrNotExport marks an archive that is not a valid chat export.
var ErrNotExport = errors.New("not a valid chat export")

const (
	usersManifest    = "users.json"
	channelsManifest = "channels.json"
)

// ChatMeta is the metadata carried by chat-export chunks. Users is
// unique and sorted; Start and End bound the message dates covered.
type ChatMeta struct {
	Channel string    `json:"channel"`
	Users   []string  `json:"users"`
	Start   time.Time `json:"start_date"`
	End     time.Time `json:"end_date"`
	Purpose string    `json:"channel_purpose,omitempty"`
	Topic   string    `json:"channel_topic,omitempty"`
}

type exportUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Profile  struct {
		DisplayName string `json:"display_name"`
		RealName    string `json:"real_name"`
	} `json:"profile"`
}

type exportChannel struct {
	Name    string `json:"name"`
	Purpose struct {
		Value string `json:"value"`
	} `json:"purpose"`
	Topic struct {
		Value string `json:"value"`
	} `json:"topic"`
}

type exportMessage struct {
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	User      string `json:"user"`
	Text      string `json:"text"`
	Reactions []struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	} `json:"reactions"`
}

var mentionPattern = regexp.MustCompile(`<@([A-Za-z0-9]+)>`)

// ExtractChatExport emits one chunk per message from a chat-export zip
// archive, ordered by manifest channel order, then day-file name, then
// in-file order. Both manifests must exist at the archive root or the
// extraction fails with ErrNotExport and no partial result.
func ExtractChatExport(data []byte) ([]chunk.Chunk[ChatMeta], error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open export archive; %w", err)
	}

	root, ok := findRoot(zr)
	if !ok {
		return nil, fmt.Errorf("users manifest missing; %w", ErrNotExport)
	}

	var users []exportUser
	if err := readManifest(zr, entryPath(root, usersManifest), &users); err != nil {
		return nil, fmt.Errorf("users manifest; %w", err)
	}
	var channels []exportChannel
	if err := readManifest(zr, entryPath(root, channelsManifest), &channels); err != nil {
		return nil, fmt.Errorf("channels manifest; %w", err)
	}

	names := displayNames(users)
	resolve := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return id
	}

	var chunks []chunk.Chunk[ChatMeta]
	for _, ch := range channels {
		dir := entryPath(root, ch.Name)
		for _, file := range dayFiles(zr, dir) {
			var messages []exportMessage
			if err := decodeEntry(zr, file, &messages); err != nil {
				return nil, fmt.Errorf("read day file %s; %w", file, err)
			}
			day := dayOf(file)

			for _, msg := range messages {
				if msg.Type != "message" {
					continue
				}
				text := mentionPattern.ReplaceAllStringFunc(msg.Text, func(m string) string {
					return resolve(mentionPattern.FindStringSubmatch(m)[1])
				})
				if len(msg.Reactions) > 0 {
					parts := make([]string, 0, len(msg.Reactions))
					for _, r := range msg.Reactions {
						parts = append(parts, fmt.Sprintf("%s×%d", r.Name, r.Count))
					}
					text += "\n" + strings.Join(parts, ", ")
				}

				meta := ChatMeta{
					Channel: ch.Name,
					Start:   day,
					End:     day,
					Purpose: ch.Purpose.Value,
					Topic:   ch.Topic.Value,
				}
				if msg.User != "" {
					meta.Users = []string{resolve(msg.User)}
				}
				chunks = append(chunks, chunk.Chunk[ChatMeta]{Text: text, Metadata: meta})
			}
		}
	}
	return chunks, nil
}

// findRoot locates the export root as the parent of the users manifest,
// wherever it sits in the archive.
func findRoot(zr *zip.Reader) (string, bool) {
	for _, f := range zr.File {
		if path.Base(f.Name) == usersManifest {
			return path.Dir(f.Name), true
		}
	}
	return "", false
}

func entryPath(root, name string) string {
	if root == "" || root == "." {
		return name
	}
	return root + "/" + name
}

func readManifest(zr *zip.Reader, name string, v any) error {
	if err := decodeEntry(zr, name, v); err != nil {
		return fmt.Errorf("%s; %w", err, ErrNotExport)
	}
	return nil
}

func decodeEntry(zr *zip.Reader, name string, v any) error {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s; %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return fmt.Errorf("read %s; %w", name, err)
		}
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode %s; %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("entry %s not found", name)
}

// dayFiles returns the channel's day files sorted by name; date-stamped
// names sort chronologically.
func dayFiles(zr *zip.Reader, dir string) []string {
	var files []string
	for _, f := range zr.File {
		if path.Dir(f.Name) == dir && strings.HasSuffix(f.Name, ".json") {
			files = append(files, f.Name)
		}
	}
	sort.Strings(files)
	return files
}

func dayOf(file string) time.Time {
	base := strings.TrimSuffix(path.Base(file), ".json")
	day, err := time.Parse("2006-01-02", base)
	if err != nil {
		return time.Time{}
	}
	return day
}

// displayNames builds the user-id to display-name map, preferring the
// profile display name, then real name, then handle, then the raw id.
func displayNames(users []exportUser) map[string]string {
	names := make(map[string]string, len(users))
	for _, u := range users {
		switch {
		case u.Profile.DisplayName != "":
			names[u.ID] = u.Profile.DisplayName
		case u.Profile.RealName != "":
			names[u.ID] = u.Profile.RealName
		case u.RealName != "":
			names[u.ID] = u.RealName
		case u.Name != "":
			names[u.ID] = u.Name
		default:
			names[u.ID] = u.ID
		}
	}
	return names
}

// ChatStrategy merges message chunks from the same channel. A merge that
// would overflow the token budget is declined outright; messages are
// never split.
type ChatStrategy struct{}

// Combine implements chunk.Strategy.
func (ChatStrategy) Combine(first, second chunk.Chunk[ChatMeta], rctx *chunk.Context) ([]chunk.Chunk[ChatMeta], error) {
	if first.Metadata.Channel != second.Metadata.Channel {
		return []chunk.Chunk[ChatMeta]{first, second}, nil
	}

	merged := chunk.Chunk[ChatMeta]{Text: first.Text + "\n\n" + second.Text}
	merged.Encoded = rctx.Codec.Encode(merged.Text)
	if len(merged.Encoded) > rctx.TargetTokens {
		return []chunk.Chunk[ChatMeta]{first, second}, nil
	}

	meta := first.Metadata
	meta.Users = unionSorted(first.Metadata.Users, second.Metadata.Users)
	if second.Metadata.Start.Before(meta.Start) {
		meta.Start = second.Metadata.Start
	}
	if second.Metadata.End.After(meta.End) {
		meta.End = second.Metadata.End
	}
	merged.Metadata = meta
	return []chunk.Chunk[ChatMeta]{merged}, nil
}

func unionSorted(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
