package api

// Type is the type tag carried by every node in the content graph.
type Type string

const (
	TypeFile          Type = "File"
	TypeTrack         Type = "Track"
	TypeChapter       Type = "Chapter"
	TypeVideo         Type = "Video"
	TypeChallenge     Type = "Challenge"
	TypeGuestTutorial Type = "GuestTutorial"
	TypeContribution  Type = "Contribution"
	TypeTalk          Type = "Talk"
	TypeFAQ           Type = "FAQ"
	TypeGuide         Type = "Guide"
	TypeCoverImage    Type = "CoverImage"

	// Singleton page configuration types.
	TypeHomepageInfo       Type = "HomepageInfo"
	TypeAboutPageInfo      Type = "AboutPageInfo"
	TypeNotFoundInfo       Type = "NotFoundInfo"
	TypeTracksPageInfo     Type = "TracksPageInfo"
	TypeChallengesPageInfo Type = "ChallengesPageInfo"
	TypeGuidesPageInfo     Type = "GuidesPageInfo"
)

// Includes reports whether a lookup for t should match a node of type other.
// Video is the family type: it matches plain videos, challenges and guest
// tutorials, which share one shape.
func (t Type) Includes(other Type) bool {
	if t == other {
		return true
	}
	if t == TypeVideo {
		return other == TypeChallenge || other == TypeGuestTutorial
	}
	return false
}

// Members returns the concrete types a lookup for t matches.
func (t Type) Members() []Type {
	if t == TypeVideo {
		return []Type{TypeVideo, TypeChallenge, TypeGuestTutorial}
	}
	return []Type{t}
}

// SourceTag names the source directory (source instance) a raw record was
// read from. The set is closed: records from any other directory are dropped.
type SourceTag string

const (
	SourceChallenges         SourceTag = "challenges"
	SourceGuestTutorials     SourceTag = "guest-tutorials"
	SourceVideos             SourceTag = "videos"
	SourceMainTracks         SourceTag = "main-tracks"
	SourceSideTracks         SourceTag = "side-tracks"
	SourceFAQs               SourceTag = "faqs"
	SourceTalks              SourceTag = "talks"
	SourceGuides             SourceTag = "guides"
	SourceHomepageData       SourceTag = "homepage-data"
	SourceAboutPageData      SourceTag = "about-page-data"
	SourceNotFoundPageData   SourceTag = "404-page-data"
	SourceTracksPageData     SourceTag = "tracks-page-data"
	SourceChallengesPageData SourceTag = "challenges-page-data"
	SourceGuidesPageData     SourceTag = "guides-page-data"
)

// SourceTags lists every recognized source tag.
var SourceTags = []SourceTag{
	SourceChallenges,
	SourceGuestTutorials,
	SourceVideos,
	SourceMainTracks,
	SourceSideTracks,
	SourceFAQs,
	SourceTalks,
	SourceGuides,
	SourceHomepageData,
	SourceAboutPageData,
	SourceNotFoundPageData,
	SourceTracksPageData,
	SourceChallengesPageData,
	SourceGuidesPageData,
}

// ParseSourceTag maps a source instance name onto the closed tag set.
func ParseSourceTag(name string) (SourceTag, bool) {
	for _, t := range SourceTags {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}
