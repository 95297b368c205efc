package routing

import "peerscope/internal/domain"

// SectionType is the view kind an info panel can show
type SectionType int

const (
	SectionProfile SectionType = iota
	SectionMedia
	SectionMembers
	SectionCommonGroups
	SectionSettings
	SectionDownloads
	SectionPoll
)

func (t SectionType) String() string {
	switch t {
	case SectionProfile:
		return "profile"
	case SectionMedia:
		return "media"
	case SectionMembers:
		return "members"
	case SectionCommonGroups:
		return "common groups"
	case SectionSettings:
		return "settings"
	case SectionDownloads:
		return "downloads"
	case SectionPoll:
		return "poll"
	}
	return "unknown"
}

// Section describes the active view kind and, for media sections,
// which media kind. Replaced wholesale when the shown section changes.
type Section struct {
	typ   SectionType
	media domain.MediaKind
}

// NewSection describes a non-media section
func NewSection(t SectionType) Section {
	return Section{typ: t}
}

// MediaSection describes a media section of one kind
func MediaSection(kind domain.MediaKind) Section {
	return Section{typ: SectionMedia, media: kind}
}

// Type returns the view kind
func (s Section) Type() SectionType {
	return s.typ
}

// MediaType returns the media kind of a media section, MediaNone
// otherwise
func (s Section) MediaType() domain.MediaKind {
	if s.typ != SectionMedia {
		return domain.MediaNone
	}
	return s.media
}

// Searchable reports whether the section kind carries a search field:
// media of any kind, members, and common groups do; everything else
// does not.
func (s Section) Searchable() bool {
	switch s.typ {
	case SectionMedia, SectionMembers, SectionCommonGroups:
		return true
	}
	return false
}

func (s Section) String() string {
	if s.typ == SectionMedia {
		return s.media.String()
	}
	return s.typ.String()
}
