package ingest

import (
	"path"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
)

// Images are correlated with the JSON or MDX record sharing their directory
// and base name: videos/foo/index.png illustrates videos/foo/index.json,
// faqs/bar.png illustrates faqs/bar.json. Images that correlate with nothing
// (inline screenshots, code example thumbnails) produce no node.

func coverImageNode(src source, ownerID string, ownerType api.Type) ([]*graph.Node, error) {
	img := api.CoverImage{
		ID:           coverImageID(ownerID),
		Owner:        ownerID,
		OwnerType:    ownerType,
		File:         src.file.ID,
		RelativePath: src.file.RelativePath,
		MediaType:    src.file.MediaType,
	}
	n, err := newNode(api.TypeCoverImage, img.ID, img)
	if err != nil {
		return nil, err
	}
	return []*graph.Node{n}, nil
}

func videoTypeFor(tag api.SourceTag) api.Type {
	switch tag {
	case api.SourceChallenges:
		return api.TypeChallenge
	case api.SourceGuestTutorials:
		return api.TypeGuestTutorial
	default:
		return api.TypeVideo
	}
}

func videoCoverImage(src source) ([]*graph.Node, error) {
	relDir := src.file.RelativeDirectory
	if isShowcaseDir(relDir) {
		owner := showcaseOwner(relDir)
		if owner == "" {
			return nil, nil
		}
		return coverImageNode(src, contributionID(videoSlug(src.tag, owner), src.file.Name), api.TypeContribution)
	}
	if src.file.Name != "index" || relDir == "" {
		return nil, nil
	}
	return coverImageNode(src, videoID(videoSlug(src.tag, relDir)), videoTypeFor(src.tag))
}

func trackCoverImage(src source) ([]*graph.Node, error) {
	if src.file.Name != "index" || src.file.RelativeDirectory == "" {
		return nil, nil
	}
	return coverImageNode(src, trackID(src.file.RelativeDirectory), api.TypeTrack)
}

func faqCoverImage(src source) ([]*graph.Node, error) {
	return coverImageNode(src, faqID(entityKey(src.file)), api.TypeFAQ)
}

func talkCoverImage(src source) ([]*graph.Node, error) {
	return coverImageNode(src, talkID(entityKey(src.file)), api.TypeTalk)
}

func guideCoverImage(src source) ([]*graph.Node, error) {
	relDir := src.file.RelativeDirectory
	switch {
	case relDir == "":
		return coverImageNode(src, guideID(src.file.Name), api.TypeGuide)
	case src.file.Name == "index":
		return coverImageNode(src, guideID(path.Base(relDir)), api.TypeGuide)
	default:
		return nil, nil
	}
}

func aboutCoverImage(src source) ([]*graph.Node, error) {
	return coverImageNode(src, pageDataID(api.TypeAboutPageInfo), api.TypeAboutPageInfo)
}
