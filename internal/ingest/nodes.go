package ingest

import (
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
)

// Identifier seeds. Every ID is graph.NodeID of one of these, so references
// between records can be computed without looking the target up.

func videoID(slug string) string { return graph.NodeID("Video/" + slug) }

func trackID(slug string) string { return graph.NodeID("Track/" + slug) }

func chapterID(trackSlug string, position int) string {
	return graph.NodeID("Chapter/" + trackSlug + "/" + strconv.Itoa(position))
}

func contributionID(videoSlug, name string) string {
	return graph.NodeID("Contribution/" + videoSlug + "/" + name)
}

func faqID(key string) string { return graph.NodeID("FAQ/" + key) }

func talkID(key string) string { return graph.NodeID("Talk/" + key) }

func guideID(slug string) string { return graph.NodeID("Guide/" + slug) }

func pageDataID(t api.Type) string { return graph.NodeID(string(t)) }

func coverImageID(ownerID string) string { return graph.NodeID("CoverImage/" + ownerID) }

// videoSlug is the slug tracks use to reference a video. Challenges and
// guest tutorials live in their own namespaces.
func videoSlug(tag api.SourceTag, relDir string) string {
	switch tag {
	case api.SourceChallenges:
		return path.Join("challenges", relDir)
	case api.SourceGuestTutorials:
		return path.Join("guest-tutorials", relDir)
	default:
		return relDir
	}
}

// entityKey names a record in a directory holding one entity per file or one
// per sub-directory (index.json).
func entityKey(f api.File) string {
	if f.Name == "index" {
		return f.RelativeDirectory
	}
	return path.Join(f.RelativeDirectory, f.Name)
}

func isShowcaseDir(relDir string) bool {
	return path.Base(relDir) == "showcase"
}

func showcaseOwner(relDir string) string {
	owner := path.Dir(relDir)
	if owner == "." {
		return ""
	}
	return owner
}

// looseString accepts a JSON string or number (video numbers are written
// both ways in content files).
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = looseString(num.String())
	return nil
}

func decodeSource(data map[string]any, v any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func newNode(typ api.Type, id string, v any) (*graph.Node, error) {
	fields, err := graph.ToFields(v)
	if err != nil {
		return nil, err
	}
	return &graph.Node{ID: id, Type: typ, Fields: fields}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ---------------------------------------------------------------------------
// Videos, challenges, guest tutorials and their showcase contributions
// ---------------------------------------------------------------------------

type videoSource struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	VideoID       string            `json:"videoId"`
	Link          string            `json:"link"`
	Date          looseString       `json:"date"`
	VideoNumber   looseString       `json:"videoNumber"`
	Languages     []string          `json:"languages"`
	Topics        []string          `json:"topics"`
	Timestamps    []api.Timestamp   `json:"timestamps"`
	CodeExamples  []api.CodeExample `json:"codeExamples"`
	GroupLinks    []api.GroupLinks  `json:"groupLinks"`
	CanContribute bool              `json:"canContribute"`
}

type contributionSource struct {
	Name   string     `json:"name"`
	Title  string     `json:"title"`
	URL    string     `json:"url"`
	Source string     `json:"source"`
	Author api.Author `json:"author"`
}

func videoRelatedNodes(typ api.Type) constructor {
	return func(src source) ([]*graph.Node, error) {
		relDir := src.file.RelativeDirectory
		if isShowcaseDir(relDir) {
			return contributionNodes(src, typ)
		}
		if src.file.Name != "index" || relDir == "" {
			return nil, nil
		}

		var vs videoSource
		if err := decodeSource(src.data, &vs); err != nil {
			return nil, fmt.Errorf("decode video: %w", err)
		}
		link := vs.Link
		if link == "" {
			link = vs.VideoID
		}
		slug := videoSlug(src.tag, relDir)
		v := api.Video{
			ID:            videoID(slug),
			Type:          typ,
			Slug:          slug,
			Title:         vs.Title,
			Description:   vs.Description,
			Link:          link,
			Date:          string(vs.Date),
			VideoNumber:   string(vs.VideoNumber),
			Languages:     nonNil(vs.Languages),
			Topics:        nonNil(vs.Topics),
			Timestamps:    nonNil(vs.Timestamps),
			CodeExamples:  nonNil(vs.CodeExamples),
			GroupLinks:    nonNil(vs.GroupLinks),
			CanContribute: vs.CanContribute,
		}
		n, err := newNode(typ, v.ID, v)
		if err != nil {
			return nil, err
		}
		return []*graph.Node{n}, nil
	}
}

func contributionNodes(src source, ownerType api.Type) ([]*graph.Node, error) {
	owner := showcaseOwner(src.file.RelativeDirectory)
	if owner == "" {
		return nil, fmt.Errorf("showcase directory %q has no owning video", src.file.RelativeDirectory)
	}
	var cs contributionSource
	if err := decodeSource(src.data, &cs); err != nil {
		return nil, fmt.Errorf("decode contribution: %w", err)
	}
	ownerSlug := videoSlug(src.tag, owner)
	name := cs.Name
	if name == "" {
		name = src.file.Name
	}
	c := api.Contribution{
		ID:     contributionID(ownerSlug, src.file.Name),
		Name:   name,
		Title:  cs.Title,
		URL:    cs.URL,
		Source: cs.Source,
		Author: cs.Author,
		Video:  videoID(ownerSlug),
	}
	n, err := newNode(api.TypeContribution, c.ID, c)
	if err != nil {
		return nil, err
	}
	return []*graph.Node{n}, nil
}

// ---------------------------------------------------------------------------
// Tracks and chapters
// ---------------------------------------------------------------------------

type trackSource struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Chapters    []struct {
		Title  string   `json:"title"`
		Videos []string `json:"videos"`
	} `json:"chapters"`
	Videos []string `json:"videos"`
}

func videoIDs(slugs []string) []string {
	out := make([]string, 0, len(slugs))
	for _, s := range slugs {
		out = append(out, videoID(strings.Trim(s, "/")))
	}
	return out
}

func trackRelatedNodes(column string) constructor {
	return func(src source) ([]*graph.Node, error) {
		if src.file.Name != "index" || src.file.RelativeDirectory == "" {
			return nil, nil
		}
		var ts trackSource
		if err := decodeSource(src.data, &ts); err != nil {
			return nil, fmt.Errorf("decode track: %w", err)
		}
		if len(ts.Chapters) > 0 && len(ts.Videos) > 0 {
			return nil, fmt.Errorf("track %s has both chapters and videos", src.file.RelativeDirectory)
		}

		slug := src.file.RelativeDirectory
		t := api.Track{
			ID:          trackID(slug),
			Slug:        slug,
			Title:       ts.Title,
			Description: ts.Description,
			Type:        column,
			Order:       ts.Order,
		}

		var nodes []*graph.Node
		if len(ts.Chapters) > 0 {
			for i, ch := range ts.Chapters {
				c := api.Chapter{
					ID:       chapterID(slug, i),
					Title:    ch.Title,
					Videos:   videoIDs(ch.Videos),
					Track:    t.ID,
					Position: i,
				}
				n, err := newNode(api.TypeChapter, c.ID, c)
				if err != nil {
					return nil, err
				}
				nodes = append(nodes, n)
				t.Chapters = append(t.Chapters, c.ID)
			}
		} else {
			t.Videos = videoIDs(ts.Videos)
		}

		n, err := newNode(api.TypeTrack, t.ID, t)
		if err != nil {
			return nil, err
		}
		return append([]*graph.Node{n}, nodes...), nil
	}
}

// ---------------------------------------------------------------------------
// FAQs, talks and singleton page data
// ---------------------------------------------------------------------------

func faqNodes(src source) ([]*graph.Node, error) {
	var f api.FAQ
	if err := decodeSource(src.data, &f); err != nil {
		return nil, fmt.Errorf("decode faq: %w", err)
	}
	key := entityKey(src.file)
	f.ID = faqID(key)
	f.Slug = key
	n, err := newNode(api.TypeFAQ, f.ID, f)
	if err != nil {
		return nil, err
	}
	return []*graph.Node{n}, nil
}

type talkSource struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Link        string      `json:"link"`
	VideoID     string      `json:"videoId"`
	Date        looseString `json:"date"`
	Speaker     string      `json:"speaker"`
}

func talkNodes(src source) ([]*graph.Node, error) {
	var ts talkSource
	if err := decodeSource(src.data, &ts); err != nil {
		return nil, fmt.Errorf("decode talk: %w", err)
	}
	key := entityKey(src.file)
	link := ts.Link
	if link == "" {
		link = ts.VideoID
	}
	t := api.Talk{
		ID:          talkID(key),
		Slug:        key,
		Title:       ts.Title,
		Description: ts.Description,
		Link:        link,
		Date:        string(ts.Date),
		Speaker:     ts.Speaker,
	}
	n, err := newNode(api.TypeTalk, t.ID, t)
	if err != nil {
		return nil, err
	}
	return []*graph.Node{n}, nil
}

// pageDataNodes keeps the record's fields as they are. There is one node per
// type; a second file in the same directory replaces the first.
func pageDataNodes(typ api.Type) constructor {
	return func(src source) ([]*graph.Node, error) {
		fields := make(map[string]any, len(src.data)+1)
		for k, v := range src.data {
			fields[k] = v
		}
		id := pageDataID(typ)
		fields["id"] = id
		return []*graph.Node{{ID: id, Type: typ, Fields: fields}}, nil
	}
}
