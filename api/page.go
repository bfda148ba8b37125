package api

// PageKind identifies which template the presentation layer renders a page
// with. The pipeline never references templates directly.
type PageKind string

const (
	PageTrackVideo PageKind = "track-video"
	PageTracks     PageKind = "tracks"
	PageChallenges PageKind = "challenges"
	PageChallenge  PageKind = "challenge"
	PageGuide      PageKind = "guide"
)

// Page is a page-creation directive: a route and the minimal context the
// presentation layer needs to fetch the rest at render time.
type Page struct {
	Path    string         `json:"path"`
	Kind    PageKind       `json:"kind"`
	Context map[string]any `json:"context"`
}
