package domain

// CandidateFile is a discovered file eligible for a run. It is never mutated
// after discovery.
type CandidateFile struct {
	Path  string `json:"path"`
	Group string `json:"group"`
	Tag   string `json:"tag"`
}

type RunState string

const (
	StateDiscovering RunState = "discovering"
	StateSorting     RunState = "sorting"
	StateNormalizing RunState = "normalizing"
	StateAssembling  RunState = "assembling"
	StateCleaning    RunState = "cleaning"
	StateDone        RunState = "done"
	StateFailed      RunState = "failed"
)

// DiscoveryQuery selects candidate files under Root.
type DiscoveryQuery struct {
	Root       string
	Extensions []string
	Include    []string
	Exclude    []string
	Recurse    bool
}

type AssembleRequest struct {
	DiscoveryQuery

	OutputPath   string
	SaveToFolder string
	Overwrite    bool

	// FileOrder sorts files (within a group when recursing), DirOrder sorts
	// groups. Nil means identity.
	FileOrder Ordering
	DirOrder  Ordering

	LabelWithDirectory bool
	LabelWithFilename  bool
	KeepStaging        bool

	// Layout names the page layout, see LayoutByName. Empty means LayoutMargin.
	Layout string
}

type AssembleResult struct {
	OutputPath string   `json:"output_path,omitempty"`
	StagingDir string   `json:"staging_dir,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Pages      []string `json:"pages,omitempty"`
	State      RunState `json:"state"`

	// NoCandidates reports that discovery found nothing. It is not an error.
	NoCandidates bool `json:"no_candidates"`
}

type MergeRequest struct {
	DiscoveryQuery

	OutputPath string
	Overwrite  bool
	Order      Ordering
}

type MergeResult struct {
	OutputPath   string   `json:"output_path,omitempty"`
	Sources      []string `json:"sources,omitempty"`
	NoCandidates bool     `json:"no_candidates"`
}
