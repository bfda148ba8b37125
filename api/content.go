package api

// File describes the filesystem record a content node was parsed from.
// Every content node's Parent is a File node.
type File struct {
	ID                 string `json:"id"`
	SourceInstanceName string `json:"sourceInstanceName"`
	RelativeDirectory  string `json:"relativeDirectory"`
	RelativePath       string `json:"relativePath"`
	Name               string `json:"name"` // base name without extension
	Ext                string `json:"ext"`
	MediaType          string `json:"mediaType"`
	Size               int64  `json:"size"`
}

// Track is an ordered sequence of chapters or a flat sequence of videos,
// never both. Topics and languages are not stored; see resolve.Tags.
type Track struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"` // "main" or "side"
	Order       int      `json:"order"`
	Chapters    []string `json:"chapters,omitempty"`
	Videos      []string `json:"videos,omitempty"`
}

// Chapter is an ordered sequence of videos owned by one track.
type Chapter struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Videos   []string `json:"videos"`
	Track    string   `json:"track"`
	Position int      `json:"position"`
}

// Timestamp marks a point of interest in a video.
type Timestamp struct {
	Time  string `json:"time"`
	Title string `json:"title"`
}

// CodeExample links to source code accompanying a video.
type CodeExample struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Image       string            `json:"image,omitempty"`
	URLs        map[string]string `json:"urls,omitempty"`
}

// Link is a single entry of a link group.
type Link struct {
	Icon        string `json:"icon,omitempty"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// GroupLinks is a titled list of links (references, videos, ...).
type GroupLinks struct {
	Title string `json:"title"`
	Links []Link `json:"links"`
}

// Video covers plain videos, challenges and guest tutorials. Type carries
// the concrete subtype.
type Video struct {
	ID            string        `json:"id"`
	Type          Type          `json:"type"`
	Slug          string        `json:"slug"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Link          string        `json:"link"`
	Date          string        `json:"date,omitempty"`
	VideoNumber   string        `json:"videoNumber,omitempty"`
	Languages     []string      `json:"languages"`
	Topics        []string      `json:"topics"`
	Timestamps    []Timestamp   `json:"timestamps"`
	CodeExamples  []CodeExample `json:"codeExamples"`
	GroupLinks    []GroupLinks  `json:"groupLinks"`
	CanContribute bool          `json:"canContribute"`
}

// Author credits a contribution.
type Author struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Contribution is a community showcase entry belonging to one video.
type Contribution struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
	Source string `json:"source,omitempty"`
	Author Author `json:"author"`
	Video  string `json:"video"`
}

// Talk is a recorded conference talk.
type Talk struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Date        string `json:"date,omitempty"`
	Speaker     string `json:"speaker,omitempty"`
}

// Answer is the body of an FAQ entry.
type Answer struct {
	Text string   `json:"text"`
	List []string `json:"list,omitempty"`
}

// FAQ is a single question with its answer.
type FAQ struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Question string `json:"question"`
	Answer   Answer `json:"answer"`
	Category string `json:"category,omitempty"`
}

// Guide is an MDX document.
type Guide struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
	Author      string `json:"author,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
	Body        string `json:"body"`
}

// CoverImage associates an image file with the entity it illustrates.
type CoverImage struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	OwnerType    Type   `json:"ownerType"`
	File         string `json:"file"`
	RelativePath string `json:"relativePath"`
	MediaType    string `json:"mediaType"`
}
