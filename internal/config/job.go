package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/docauto/internal/core/domain"
)

// AssembleJob is the YAML form of an assemble run.
type AssembleJob struct {
	Root       string   `yaml:"root"`
	Extensions []string `yaml:"extensions"`
	Include    []string `yaml:"include"`
	Exclude    []string `yaml:"exclude"`
	Recurse    bool     `yaml:"recurse"`

	Output       string `yaml:"output"`
	SaveToFolder string `yaml:"save_to_folder"`
	Overwrite    bool   `yaml:"overwrite"`

	FileOrder string `yaml:"file_order"`
	DirOrder  string `yaml:"dir_order"`

	LabelWithDirectory bool   `yaml:"label_with_directory"`
	LabelWithFilename  bool   `yaml:"label_with_filename"`
	KeepStaging        bool   `yaml:"keep_staging"`
	Layout             string `yaml:"layout"`
}

// LoadJob reads an assemble job. Unknown keys are rejected and extensions
// default to the image set.
func LoadJob(path string) (AssembleJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return AssembleJob{}, domain.WrapError(domain.ErrNotFound, "load job", err)
		}
		return AssembleJob{}, fmt.Errorf("load job: %w", err)
	}

	var job AssembleJob
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&job); err != nil {
		return AssembleJob{}, domain.WrapError(domain.ErrInvalidArgument, "load job", fmt.Errorf("%s: %w", path, err))
	}
	if len(job.Extensions) == 0 {
		job.Extensions = append([]string(nil), domain.ImageExtensions...)
	}
	return job, nil
}

// Request converts the job into an assemble request. Orderings are resolved
// by the caller from FileOrder and DirOrder.
func (j AssembleJob) Request() domain.AssembleRequest {
	return domain.AssembleRequest{
		DiscoveryQuery: domain.DiscoveryQuery{
			Root:       j.Root,
			Extensions: j.Extensions,
			Include:    j.Include,
			Exclude:    j.Exclude,
			Recurse:    j.Recurse,
		},
		OutputPath:         j.Output,
		SaveToFolder:       j.SaveToFolder,
		Overwrite:          j.Overwrite,
		LabelWithDirectory: j.LabelWithDirectory,
		LabelWithFilename:  j.LabelWithFilename,
		KeepStaging:        j.KeepStaging,
		Layout:             j.Layout,
	}
}
