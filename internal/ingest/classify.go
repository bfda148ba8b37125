package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"go.uber.org/zap"
)

// ErrParentNotFound means a record names a File node that is not in the
// graph. It is a misconfiguration and aborts the load.
var ErrParentNotFound = errors.New("parent node not found")

// source is what a constructor sees: the record plus its File context.
type source struct {
	tag  api.SourceTag
	file api.File
	data map[string]any
	raw  []byte
}

// constructor shapes one record into content nodes. Returning no nodes is a
// legitimate outcome (e.g. an image that illustrates nothing).
type constructor func(src source) ([]*graph.Node, error)

var jsonConstructors = map[api.SourceTag]constructor{
	api.SourceChallenges:         videoRelatedNodes(api.TypeChallenge),
	api.SourceGuestTutorials:     videoRelatedNodes(api.TypeGuestTutorial),
	api.SourceVideos:             videoRelatedNodes(api.TypeVideo),
	api.SourceMainTracks:         trackRelatedNodes("main"),
	api.SourceSideTracks:         trackRelatedNodes("side"),
	api.SourceFAQs:               faqNodes,
	api.SourceTalks:              talkNodes,
	api.SourceGuides:             pageDataNodes(api.TypeGuidesPageInfo),
	api.SourceHomepageData:       pageDataNodes(api.TypeHomepageInfo),
	api.SourceAboutPageData:      pageDataNodes(api.TypeAboutPageInfo),
	api.SourceNotFoundPageData:   pageDataNodes(api.TypeNotFoundInfo),
	api.SourceTracksPageData:     pageDataNodes(api.TypeTracksPageInfo),
	api.SourceChallengesPageData: pageDataNodes(api.TypeChallengesPageInfo),
	api.SourceGuidesPageData:     pageDataNodes(api.TypeGuidesPageInfo),
}

var mdxConstructors = map[api.SourceTag]constructor{
	api.SourceGuides: guideNodes,
}

var imageConstructors = map[api.SourceTag]constructor{
	api.SourceChallenges:     videoCoverImage,
	api.SourceGuestTutorials: videoCoverImage,
	api.SourceVideos:         videoCoverImage,
	api.SourceMainTracks:     trackCoverImage,
	api.SourceSideTracks:     trackCoverImage,
	api.SourceFAQs:           faqCoverImage,
	api.SourceTalks:          talkCoverImage,
	api.SourceGuides:         guideCoverImage,
	api.SourceAboutPageData:  aboutCoverImage,
}

var constructorTables = map[RecordKind]map[api.SourceTag]constructor{
	RecordJSON:  jsonConstructors,
	RecordMDX:   mdxConstructors,
	RecordImage: imageConstructors,
}

// Classifier turns raw records into typed content nodes.
type Classifier struct {
	store IngestionTarget
	log   *zap.Logger
}

func NewClassifier(store IngestionTarget, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{store: store, log: log}
}

// Classify resolves the record's File node, dispatches on its directory tag
// and inserts the resulting nodes. Records from unrecognized directories,
// or of a kind the directory has no constructor for, are dropped silently.
func (c *Classifier) Classify(ctx context.Context, rec Record) error {
	parent, err := c.store.GetNode(ctx, rec.Parent)
	if errors.Is(err, graph.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrParentNotFound, rec.Parent)
	}
	if err != nil {
		return fmt.Errorf("get parent %s: %w", rec.Parent, err)
	}
	var file api.File
	if err := parent.Decode(&file); err != nil {
		return err
	}

	// TODO: decide whether an unknown source tag should fail the load once
	// the content repository pins its directory layout.
	tag, ok := api.ParseSourceTag(file.SourceInstanceName)
	if !ok {
		c.log.Debug("unrecognized source, record dropped",
			zap.String("source", file.SourceInstanceName), zap.String("path", file.RelativePath))
		return nil
	}
	ctor, ok := constructorTables[rec.Kind][tag]
	if !ok {
		c.log.Debug("no constructor for record",
			zap.Stringer("kind", rec.Kind), zap.String("source", string(tag)), zap.String("path", file.RelativePath))
		return nil
	}

	nodes, err := ctor(source{tag: tag, file: file, data: rec.Data, raw: rec.Raw})
	if err != nil {
		return fmt.Errorf("classify %s/%s: %w", tag, file.RelativePath, err)
	}
	for _, n := range nodes {
		if n.Type == api.TypeCoverImage {
			owned, err := c.ownerExists(ctx, n.String("owner"))
			if err != nil {
				return err
			}
			if !owned {
				c.log.Debug("image illustrates no record, dropped",
					zap.String("owner", n.String("owner")), zap.String("path", file.RelativePath))
				continue
			}
		}
		n.Parent = parent.ID
		if n.Digest == "" {
			digest, err := graph.ContentDigest(map[string]any{"parent": parent.ID, "fields": n.Fields})
			if err != nil {
				return err
			}
			n.Digest = digest
		}
		if err := c.store.AddNode(n); err != nil {
			return fmt.Errorf("add %s node %s: %w", n.Type, n.ID, err)
		}
		if l, ok := c.store.(childLinker); ok {
			if err := l.AddChild(parent.ID, n.ID); err != nil {
				return err
			}
		}
		c.log.Debug("node created",
			zap.String("type", string(n.Type)), zap.String("id", n.ID), zap.String("path", file.RelativePath))
	}
	return nil
}

func (c *Classifier) ownerExists(ctx context.Context, id string) (bool, error) {
	_, err := c.store.GetNode(ctx, id)
	if errors.Is(err, graph.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get owner %s: %w", id, err)
	}
	return true, nil
}
