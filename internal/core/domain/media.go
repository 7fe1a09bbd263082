package domain

type ConcatMethod string

const (
	ConcatCompose ConcatMethod = "compose"
	ConcatReduce  ConcatMethod = "reduce"
)

type ZipFilter struct {
	FolderTerms []string
	FileTerms   []string
	Extensions  []string
}
